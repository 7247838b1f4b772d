package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeboard/internal/apperr"
	"lifeboard/internal/model"
	"lifeboard/internal/repository"
)

func newMovieService(t *testing.T) (*MovieService, *model.User) {
	t.Helper()
	db := newTestDB(t)
	return NewMovieService(repository.NewMovieRepository(db), nil, 0), newTestUser(t, db)
}

func matrixInput() MovieInput {
	return MovieInput{
		TmdbID:      603,
		MediaType:   model.MediaTypeMovie,
		Title:       "The Matrix",
		Overview:    "A hacker learns the truth.",
		VoteAverage: 8.2,
		ReleaseDate: "1999-03-31",
	}
}

func TestAddMovie(t *testing.T) {
	svc, user := newMovieService(t)
	ctx := context.Background()

	movie, err := svc.Add(ctx, user, matrixInput())
	require.NoError(t, err)
	assert.Equal(t, model.StatusWillWatch, movie.WatchStatus)
	assert.Equal(t, int64(603), movie.TmdbID)
}

func TestAddMovieDuplicateRejected(t *testing.T) {
	svc, user := newMovieService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, user, matrixInput())
	require.NoError(t, err)

	_, err = svc.Add(ctx, user, matrixInput())
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1, "the duplicate must not create a second row")

	// Same catalog id under a different media type is a different entry.
	tv := matrixInput()
	tv.MediaType = model.MediaTypeTV
	_, err = svc.Add(ctx, user, tv)
	require.NoError(t, err)
}

func TestAddMovieValidation(t *testing.T) {
	svc, user := newMovieService(t)
	ctx := context.Background()

	input := matrixInput()
	input.TmdbID = 0
	_, err := svc.Add(ctx, user, input)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	input = matrixInput()
	input.MediaType = "book"
	_, err = svc.Add(ctx, user, input)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateMovie(t *testing.T) {
	svc, user := newMovieService(t)
	ctx := context.Background()

	movie, err := svc.Add(ctx, user, matrixInput())
	require.NoError(t, err)

	rating := 5
	updated, err := svc.Update(ctx, user, movie.ID, MovieUpdate{
		WatchStatus: model.StatusWatched,
		UserRating:  &rating,
		UserComment: "still great",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusWatched, updated.WatchStatus)
	require.NotNil(t, updated.UserRating)
	assert.Equal(t, 5, *updated.UserRating)

	bad := 7
	_, err = svc.Update(ctx, user, movie.ID, MovieUpdate{WatchStatus: model.StatusWatched, UserRating: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Update(ctx, user, movie.ID, MovieUpdate{WatchStatus: "maybe"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDeleteMovieIsHard(t *testing.T) {
	svc, user := newMovieService(t)
	ctx := context.Background()

	movie, err := svc.Add(ctx, user, matrixInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, user, movie.ID))

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Re-adding after a hard delete is allowed; it is not a duplicate.
	_, err = svc.Add(ctx, user, matrixInput())
	require.NoError(t, err)
}

func TestSearchValidation(t *testing.T) {
	svc, _ := newMovieService(t)
	_, err := svc.Search(context.Background(), "  ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
