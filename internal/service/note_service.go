package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lifeboard/internal/apperr"
	"lifeboard/internal/cache"
	"lifeboard/internal/model"
	"lifeboard/internal/reconcile"
	"lifeboard/internal/repository"
)

// NoteInput represents data required to create or update a note. Salt and
// IV are set by the client when the content was encrypted before upload;
// either both are present or neither.
type NoteInput struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	ProjectTitle string `json:"project_title"`
	Salt         string `json:"salt"`
	IV           string `json:"iv"`
}

// Decrypter turns ciphertext back into plaintext. The implementation lives
// with the client; the service only enforces the ciphertext invariant and
// maps failures to decryption errors.
type Decrypter interface {
	Decrypt(content, salt, iv, password string) (string, error)
}

// NoteService wraps note business logic.
type NoteService struct {
	noteRepo  *repository.NoteRepository
	decrypter Decrypter
	rec       *reconcile.Reconciler[model.Note]
}

func NewNoteService(noteRepo *repository.NoteRepository, decrypter Decrypter, commitTimeout time.Duration) *NoteService {
	s := &NoteService{noteRepo: noteRepo, decrypter: decrypter}
	s.rec = reconcile.New(cache.NewKeyed[model.Note](), s.fetch, commitTimeout)
	return s
}

func noteCacheKey(userID int64) string { return fmt.Sprintf("notes:%d", userID) }

func (s *NoteService) fetch(ctx context.Context, key string) ([]model.Note, error) {
	raw, ok := strings.CutPrefix(key, "notes:")
	if !ok {
		return nil, fmt.Errorf("malformed note cache key %q", key)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed note cache key %q: %w", key, err)
	}
	return s.noteRepo.ListByUser(ctx, userID)
}

func (s *NoteService) matchUser(userID int64) func(string) bool {
	key := noteCacheKey(userID)
	return func(k string) bool { return k == key }
}

func validateNoteInput(input NoteInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return apperr.New(apperr.KindValidation, "title must not be empty")
	}
	if (input.Salt == "") != (input.IV == "") {
		return apperr.New(apperr.KindValidation, "salt and iv must be provided together")
	}
	return nil
}

func (s *NoteService) List(ctx context.Context, user *model.User) ([]model.Note, error) {
	return s.rec.Lookup(ctx, noteCacheKey(user.ID))
}

func (s *NoteService) Get(ctx context.Context, user *model.User, noteID int64) (*model.Note, error) {
	return s.noteRepo.FindByID(ctx, user.ID, noteID)
}

// Decrypt returns the plaintext of an encrypted note. Notes missing either
// salt or iv are never handed to the decrypter.
func (s *NoteService) Decrypt(ctx context.Context, user *model.User, noteID int64, password string) (string, error) {
	note, err := s.noteRepo.FindByID(ctx, user.ID, noteID)
	if err != nil {
		return "", err
	}
	if !note.Encrypted() {
		return note.Content, nil
	}
	if password == "" {
		return "", apperr.New(apperr.KindDecryption, "password required")
	}
	if s.decrypter == nil {
		return "", apperr.New(apperr.KindDecryption, "no decrypter configured")
	}
	plain, err := s.decrypter.Decrypt(note.Content, note.Salt, note.IV, password)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDecryption, "decrypt note", err)
	}
	return plain, nil
}

func (s *NoteService) Create(ctx context.Context, user *model.User, input NoteInput) (*model.Note, error) {
	if err := validateNoteInput(input); err != nil {
		return nil, err
	}
	note := model.Note{
		UserID:       user.ID,
		Title:        strings.TrimSpace(input.Title),
		Content:      input.Content,
		ProjectTitle: input.ProjectTitle,
		Salt:         input.Salt,
		IV:           input.IV,
	}
	err := s.rec.Do(ctx, reconcile.Mutation[model.Note]{
		Match:     s.matchUser(user.ID),
		Transform: func(items []model.Note) []model.Note { return append(items, note) },
		Commit:    func(ctx context.Context) error { return s.noteRepo.Create(ctx, &note) },
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *NoteService) Update(ctx context.Context, user *model.User, noteID int64, input NoteInput) (*model.Note, error) {
	if err := validateNoteInput(input); err != nil {
		return nil, err
	}
	note, err := s.noteRepo.FindByID(ctx, user.ID, noteID)
	if err != nil {
		return nil, err
	}
	note.Title = strings.TrimSpace(input.Title)
	note.Content = input.Content
	note.ProjectTitle = input.ProjectTitle
	note.Salt = input.Salt
	note.IV = input.IV

	err = s.rec.Do(ctx, reconcile.Mutation[model.Note]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Note) []model.Note {
			for i := range items {
				if items[i].ID == noteID {
					items[i] = *note
				}
			}
			return items
		},
		Commit: func(ctx context.Context) error { return s.noteRepo.Update(ctx, note) },
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Delete moves the note to the trash.
func (s *NoteService) Delete(ctx context.Context, user *model.User, noteID int64) error {
	return s.rec.Do(ctx, reconcile.Mutation[model.Note]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Note) []model.Note {
			out := items[:0]
			for _, n := range items {
				if n.ID != noteID {
					out = append(out, n)
				}
			}
			return out
		},
		Commit: func(ctx context.Context) error { return s.noteRepo.Delete(ctx, user.ID, noteID) },
	})
}

func (s *NoteService) ListTrash(ctx context.Context, user *model.User) ([]model.Note, error) {
	return s.noteRepo.ListTrash(ctx, user.ID)
}

func (s *NoteService) Restore(ctx context.Context, user *model.User, noteID int64) error {
	if err := s.noteRepo.Restore(ctx, user.ID, noteID); err != nil {
		return err
	}
	return s.rec.Revalidate(ctx, noteCacheKey(user.ID))
}

// InvalidateCaches drops every cached note list.
func (s *NoteService) InvalidateCaches() {
	s.rec.InvalidateAll()
}
