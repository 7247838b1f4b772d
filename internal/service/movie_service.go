package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lifeboard/internal/apperr"
	"lifeboard/internal/cache"
	"lifeboard/internal/catalog"
	"lifeboard/internal/model"
	"lifeboard/internal/reconcile"
	"lifeboard/internal/repository"
)

// MovieInput represents a watchlist addition, usually copied from a catalog
// search candidate.
type MovieInput struct {
	TmdbID      int64   `json:"tmdb_id"`
	MediaType   string  `json:"media_type"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
}

// MovieUpdate carries mutable watchlist fields.
type MovieUpdate struct {
	WatchStatus string     `json:"watch_status"`
	UserRating  *int       `json:"user_rating"`
	UserComment string     `json:"user_comment"`
	WatchedDate *time.Time `json:"watched_date"`
}

// MovieService wraps watchlist business logic.
type MovieService struct {
	movieRepo *repository.MovieRepository
	catalog   *catalog.Client
	rec       *reconcile.Reconciler[model.Movie]
}

func NewMovieService(movieRepo *repository.MovieRepository, cat *catalog.Client, commitTimeout time.Duration) *MovieService {
	s := &MovieService{movieRepo: movieRepo, catalog: cat}
	s.rec = reconcile.New(cache.NewKeyed[model.Movie](), s.fetch, commitTimeout)
	return s
}

func movieCacheKey(userID int64) string { return fmt.Sprintf("movies:%d", userID) }

func (s *MovieService) fetch(ctx context.Context, key string) ([]model.Movie, error) {
	raw, ok := strings.CutPrefix(key, "movies:")
	if !ok {
		return nil, fmt.Errorf("malformed movie cache key %q", key)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed movie cache key %q: %w", key, err)
	}
	return s.movieRepo.ListByUser(ctx, userID)
}

func (s *MovieService) matchUser(userID int64) func(string) bool {
	key := movieCacheKey(userID)
	return func(k string) bool { return k == key }
}

// Search queries the external catalog.
func (s *MovieService) Search(ctx context.Context, query string) ([]catalog.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.New(apperr.KindValidation, "query must not be empty")
	}
	return s.catalog.Search(ctx, query)
}

func (s *MovieService) List(ctx context.Context, user *model.User) ([]model.Movie, error) {
	return s.rec.Lookup(ctx, movieCacheKey(user.ID))
}

// Add puts a catalog item on the watchlist. An entry with the same
// (tmdb_id, media_type) pair is a duplicate and rejected, not upserted.
func (s *MovieService) Add(ctx context.Context, user *model.User, input MovieInput) (*model.Movie, error) {
	if input.TmdbID == 0 {
		return nil, apperr.New(apperr.KindValidation, "tmdb_id is required")
	}
	if input.MediaType != model.MediaTypeMovie && input.MediaType != model.MediaTypeTV {
		return nil, apperr.Newf(apperr.KindValidation, "unknown media type %q", input.MediaType)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.New(apperr.KindValidation, "title must not be empty")
	}

	existing, err := s.movieRepo.FindByCatalogRef(ctx, user.ID, input.TmdbID, input.MediaType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Newf(apperr.KindValidation, "%q is already on the list", input.Title)
	}

	movie := model.Movie{
		UserID:      user.ID,
		TmdbID:      input.TmdbID,
		MediaType:   input.MediaType,
		Title:       strings.TrimSpace(input.Title),
		WatchStatus: model.StatusWillWatch,
		PosterPath:  input.PosterPath,
		Overview:    input.Overview,
		VoteAverage: input.VoteAverage,
		ReleaseDate: input.ReleaseDate,
	}
	err = s.rec.Do(ctx, reconcile.Mutation[model.Movie]{
		Match:     s.matchUser(user.ID),
		Transform: func(items []model.Movie) []model.Movie { return append(items, movie) },
		Commit:    func(ctx context.Context) error { return s.movieRepo.Create(ctx, &movie) },
	})
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// Update edits watch status, rating or comment.
func (s *MovieService) Update(ctx context.Context, user *model.User, movieID int64, update MovieUpdate) (*model.Movie, error) {
	switch update.WatchStatus {
	case model.StatusWillWatch, model.StatusWatched, model.StatusWatchAgain:
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown watch status %q", update.WatchStatus)
	}
	if update.UserRating != nil && (*update.UserRating < 0 || *update.UserRating > 5) {
		return nil, apperr.Newf(apperr.KindValidation, "rating %d out of range", *update.UserRating)
	}

	movie, err := s.movieRepo.FindByID(ctx, user.ID, movieID)
	if err != nil {
		return nil, err
	}
	movie.WatchStatus = update.WatchStatus
	movie.UserRating = update.UserRating
	movie.UserComment = update.UserComment
	movie.WatchedDate = update.WatchedDate

	err = s.rec.Do(ctx, reconcile.Mutation[model.Movie]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Movie) []model.Movie {
			for i := range items {
				if items[i].ID == movieID {
					items[i] = *movie
				}
			}
			return items
		},
		Commit: func(ctx context.Context) error { return s.movieRepo.Update(ctx, movie) },
	})
	if err != nil {
		return nil, err
	}
	return movie, nil
}

// Delete removes the entry permanently; there is no watchlist trash.
func (s *MovieService) Delete(ctx context.Context, user *model.User, movieID int64) error {
	return s.rec.Do(ctx, reconcile.Mutation[model.Movie]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Movie) []model.Movie {
			out := items[:0]
			for _, m := range items {
				if m.ID != movieID {
					out = append(out, m)
				}
			}
			return out
		},
		Commit: func(ctx context.Context) error { return s.movieRepo.Delete(ctx, user.ID, movieID) },
	})
}

// InvalidateCaches drops every cached watchlist.
func (s *MovieService) InvalidateCaches() {
	s.rec.InvalidateAll()
}
