// Package catalog looks up movie and TV metadata from a TMDB-style API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"lifeboard/internal/apperr"
)

// Candidate is one search result from the external catalog.
type Candidate struct {
	TmdbID      int64   `json:"tmdb_id"`
	MediaType   string  `json:"media_type"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
}

// Client calls the catalog API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type searchResponse struct {
	Results []struct {
		ID           int64   `json:"id"`
		MediaType    string  `json:"media_type"`
		Title        string  `json:"title"`
		Name         string  `json:"name"` // tv results carry name, not title
		PosterPath   string  `json:"poster_path"`
		Overview     string  `json:"overview"`
		VoteAverage  float64 `json:"vote_average"`
		ReleaseDate  string  `json:"release_date"`
		FirstAirDate string  `json:"first_air_date"`
	} `json:"results"`
}

// Search queries the multi-search endpoint and returns movie and tv
// candidates; other media types are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	u := fmt.Sprintf("%s/search/multi?api_key=%s&query=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, "catalog unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperr.New(apperr.KindAuth, "catalog rejected api key")
	case resp.StatusCode != http.StatusOK:
		return nil, apperr.Newf(apperr.KindNetwork, "catalog returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, "decode catalog response", err)
	}

	candidates := make([]Candidate, 0, len(body.Results))
	for _, r := range body.Results {
		if r.MediaType != "movie" && r.MediaType != "tv" {
			continue
		}
		title, release := r.Title, r.ReleaseDate
		if r.MediaType == "tv" {
			title, release = r.Name, r.FirstAirDate
		}
		candidates = append(candidates, Candidate{
			TmdbID:      r.ID,
			MediaType:   r.MediaType,
			Title:       title,
			PosterPath:  r.PosterPath,
			Overview:    r.Overview,
			VoteAverage: r.VoteAverage,
			ReleaseDate: release,
		})
	}
	return candidates, nil
}
