package model

import "time"

// Media types for watchlist entries.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// Watch statuses.
const (
	StatusWillWatch  = "will_watch"
	StatusWatched    = "watched"
	StatusWatchAgain = "watch_again"
)

// Movie is a watchlist entry. Catalog metadata is cached at add time.
// The (UserID, TmdbID, MediaType) tuple is unique; movies are hard-deleted,
// unlike tasks and notes.
type Movie struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"index:idx_user_catalog,unique" json:"user_id"`
	TmdbID      int64      `gorm:"index:idx_user_catalog,unique" json:"tmdb_id"`
	MediaType   string     `gorm:"index:idx_user_catalog,unique" json:"media_type"`
	Title       string     `json:"title"`
	WatchStatus string     `json:"watch_status"`
	UserRating  *int       `json:"user_rating"` // 0..5
	UserComment string     `json:"user_comment"`
	WatchedDate *time.Time `json:"watched_date"`
	PosterPath  string     `json:"poster_path"`
	Overview    string     `json:"overview"`
	VoteAverage float64    `json:"vote_average"`
	ReleaseDate string     `json:"release_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
