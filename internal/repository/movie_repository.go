package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lifeboard/internal/apperr"
	"lifeboard/internal/model"
)

// MovieRepository handles CRUD for watchlist entries. Movies are hard
// deleted, unlike tasks and notes.
type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) Create(ctx context.Context, movie *model.Movie) error {
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

func (r *MovieRepository) ListByUser(ctx context.Context, userID int64) ([]model.Movie, error) {
	var movies []model.Movie
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&movies).Error; err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *MovieRepository) FindByID(ctx context.Context, userID, movieID int64) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, movieID).First(&movie).Error
	switch {
	case err == nil:
		return &movie, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.Newf(apperr.KindNotFound, "movie %d not found", movieID)
	default:
		return nil, fmt.Errorf("find movie: %w", err)
	}
}

// FindByCatalogRef looks up an entry by its external catalog identity.
func (r *MovieRepository) FindByCatalogRef(ctx context.Context, userID, tmdbID int64, mediaType string) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND tmdb_id = ? AND media_type = ?", userID, tmdbID, mediaType).
		First(&movie).Error
	switch {
	case err == nil:
		return &movie, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find movie by catalog ref: %w", err)
	}
}

func (r *MovieRepository) Update(ctx context.Context, movie *model.Movie) error {
	if err := r.db.WithContext(ctx).Save(movie).Error; err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	return nil
}

// Delete removes the entry permanently.
func (r *MovieRepository) Delete(ctx context.Context, userID, movieID int64) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, movieID).Delete(&model.Movie{})
	if res.Error != nil {
		return fmt.Errorf("delete movie: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.KindNotFound, "movie %d not found", movieID)
	}
	return nil
}
