package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lifeboard/internal/apperr"
	"lifeboard/internal/model"
)

// NoteRepository handles CRUD for notes.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID int64) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) FindByID(ctx context.Context, userID, noteID int64) (*model.Note, error) {
	var note model.Note
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, noteID).First(&note).Error
	switch {
	case err == nil:
		return &note, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.Newf(apperr.KindNotFound, "note %d not found", noteID)
	default:
		return nil, fmt.Errorf("find note: %w", err)
	}
}

func (r *NoteRepository) Update(ctx context.Context, note *model.Note) error {
	if err := r.db.WithContext(ctx).Save(note).Error; err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

// Delete moves a note to the trash (soft delete).
func (r *NoteRepository) Delete(ctx context.Context, userID, noteID int64) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, noteID).Delete(&model.Note{})
	if res.Error != nil {
		return fmt.Errorf("delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.KindNotFound, "note %d not found", noteID)
	}
	return nil
}

func (r *NoteRepository) ListTrash(ctx context.Context, userID int64) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) Restore(ctx context.Context, userID, noteID int64) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&model.Note{}).
		Where("user_id = ? AND id = ? AND deleted_at IS NOT NULL", userID, noteID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("restore note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.KindNotFound, "note %d not in trash", noteID)
	}
	return nil
}
