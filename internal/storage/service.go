package storage

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/maiimostafaa/voyager-sub001/internal/db"
	"github.com/maiimostafaa/voyager-sub001/internal/post"

	"github.com/google/uuid"
)

const (
	KindPostImage = "post_image"
	KindAvatar    = "avatar"
)

type Service struct {
	db    db.Querier
	store ObjectStore
	log   *slog.Logger
}

func NewService(db db.Querier, store ObjectStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, store: store, log: log}
}

func (s *Service) SaveObject(ctx context.Context, userID, url, kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, id, userID, url, kind)
	if err != nil {
		return "", err
	}
	return id, nil
}

// UploadPostImage stores one photo of a post under
// {author}/{post}/{index}-{uuid}{ext} and returns its public URL.
func (s *Service) UploadPostImage(ctx context.Context, authorID, postID string, index int, photo post.Photo) (string, error) {
	key := fmt.Sprintf("%s/%s/%d-%s%s", authorID, postID, index, uuid.NewString(), extension(photo.Filename, photo.ContentType))
	url, _, err := s.upload(ctx, authorID, key, KindPostImage, photo)
	return url, err
}

// UploadAvatar stores a profile picture and returns its public URL and the
// storage object id.
func (s *Service) UploadAvatar(ctx context.Context, userID string, photo post.Photo) (string, string, error) {
	key := fmt.Sprintf("%s/avatars/%s%s", userID, uuid.NewString(), extension(photo.Filename, photo.ContentType))
	return s.upload(ctx, userID, key, KindAvatar, photo)
}

func (s *Service) upload(ctx context.Context, userID, key, kind string, photo post.Photo) (string, string, error) {
	body, err := photo.Open()
	if err != nil {
		return "", "", fmt.Errorf("open %s: %w", photo.Filename, err)
	}
	defer body.Close()

	url, err := s.store.Put(ctx, key, photo.ContentType, body)
	if err != nil {
		return "", "", err
	}
	id, err := s.SaveObject(ctx, userID, url, kind)
	if err != nil {
		s.log.WarnContext(ctx, "stored object not recorded",
			"key", key,
			"error", err)
		return "", "", err
	}
	return url, id, nil
}

func extension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
