package post

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/maiimostafaa/voyager-sub001/internal/shared/geo"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("post not found")
	ErrNotOwner        = errors.New("only the author can change this post")
	ErrMissingLocation = errors.New("location name and coordinates required")
	ErrUnknownTag      = errors.New("unknown tag")
)

const (
	ReasonCreated = "post.created"
	ReasonUpdated = "post.updated"
	ReasonDeleted = "post.deleted"
	ReasonLiked   = "post.liked"
	ReasonUnliked = "post.unliked"
	ReasonSaved   = "post.saved"
	ReasonUnsaved = "post.unsaved"
)

// Photo is one selected image waiting to be uploaded.
type Photo struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type Uploader interface {
	UploadPostImage(ctx context.Context, authorID, postID string, index int, photo Photo) (string, error)
}

// Event describes a mutation that invalidates feeds.
type Event struct {
	Reason   string `json:"reason"`
	PostID   string `json:"post_id"`
	ActorID  string `json:"actor_id"`
	AuthorID string `json:"author_id,omitempty"`
}

type Notifier interface {
	Invalidate(ctx context.Context, ev Event)
}

type Service struct {
	repo     *Repository
	uploader Uploader
	notifier Notifier
	log      *slog.Logger
}

func NewService(repo *Repository, uploader Uploader, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, uploader: uploader, notifier: notifier, log: log}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

// Create inserts the pin and its tags, then uploads photos one by one. A
// failed upload does not fail the pin; the report says how many made it.
func (s *Service) Create(ctx context.Context, authorID string, input CreateInput, photos []Photo) (Created, error) {
	name := strings.TrimSpace(input.LocationName)
	point := geo.Point{Lat: input.Latitude, Lng: input.Longitude}
	if name == "" || !point.Valid() || (point.Lat == 0 && point.Lng == 0) {
		return Created{}, ErrMissingLocation
	}
	tags, err := NormalizeTags(input.Tags)
	if err != nil {
		return Created{}, err
	}

	p := Post{
		ID:           uuid.NewString(),
		AuthorID:     authorID,
		LocationName: name,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Notes:        strings.TrimSpace(input.Notes),
	}
	if err := s.repo.Insert(ctx, &p, tags); err != nil {
		return Created{}, err
	}

	out := Created{
		Post:   p,
		Tags:   tags,
		Images: []string{},
		Photos: PhotoReport{Attempted: len(photos)},
	}
	for i, photo := range photos {
		url, err := s.uploadOne(ctx, p, i, photo)
		if err != nil {
			s.log.WarnContext(ctx, "photo upload failed",
				"postID", p.ID,
				"index", i,
				"filename", photo.Filename,
				"error", err)
			continue
		}
		out.Images = append(out.Images, url)
		out.Photos.Uploaded++
	}
	out.Partial = out.Photos.Partial()

	s.notify(ctx, Event{Reason: ReasonCreated, PostID: p.ID, ActorID: authorID, AuthorID: authorID})
	return out, nil
}

func (s *Service) uploadOne(ctx context.Context, p Post, index int, photo Photo) (string, error) {
	if s.uploader == nil {
		return "", errors.New("no uploader configured")
	}
	url, err := s.uploader.UploadPostImage(ctx, p.AuthorID, p.ID, index, photo)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.InsertImage(ctx, p.ID, url); err != nil {
		s.log.WarnContext(ctx, "image row insert failed, stored object orphaned",
			"postID", p.ID,
			"index", index,
			"url", url,
			"error", err)
		return "", err
	}
	return url, nil
}

func (s *Service) Update(ctx context.Context, authorID, postID string, patch UpdateInput) (Post, error) {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if p.AuthorID != authorID {
		return Post{}, ErrNotOwner
	}

	if patch.LocationName != nil {
		p.LocationName = strings.TrimSpace(*patch.LocationName)
	}
	if patch.Latitude != nil {
		p.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		p.Longitude = *patch.Longitude
	}
	if patch.Notes != nil {
		p.Notes = strings.TrimSpace(*patch.Notes)
	}
	if p.LocationName == "" || !(geo.Point{Lat: p.Latitude, Lng: p.Longitude}).Valid() {
		return Post{}, ErrMissingLocation
	}

	var tags []string
	if patch.Tags != nil {
		if tags, err = NormalizeTags(patch.Tags); err != nil {
			return Post{}, err
		}
	}
	if err := s.repo.Update(ctx, &p, tags); err != nil {
		return Post{}, err
	}

	s.notify(ctx, Event{Reason: ReasonUpdated, PostID: p.ID, ActorID: authorID, AuthorID: authorID})
	return p, nil
}

func (s *Service) Delete(ctx context.Context, authorID, postID string) error {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != authorID {
		return ErrNotOwner
	}
	if err := s.repo.Delete(ctx, postID, authorID); err != nil {
		return err
	}
	s.notify(ctx, Event{Reason: ReasonDeleted, PostID: postID, ActorID: authorID, AuthorID: authorID})
	return nil
}

func (s *Service) Like(ctx context.Context, postID, userID string) error {
	return s.react(ctx, s.repo.Like, ReasonLiked, postID, userID)
}

func (s *Service) Unlike(ctx context.Context, postID, userID string) error {
	return s.react(ctx, s.repo.Unlike, ReasonUnliked, postID, userID)
}

func (s *Service) Save(ctx context.Context, postID, userID string) error {
	return s.react(ctx, s.repo.Save, ReasonSaved, postID, userID)
}

func (s *Service) Unsave(ctx context.Context, postID, userID string) error {
	return s.react(ctx, s.repo.Unsave, ReasonUnsaved, postID, userID)
}

func (s *Service) react(ctx context.Context, fn func(context.Context, string, string) error, reason, postID, userID string) error {
	if err := fn(ctx, postID, userID); err != nil {
		return err
	}
	s.notify(ctx, Event{Reason: reason, PostID: postID, ActorID: userID})
	return nil
}

func (s *Service) notify(ctx context.Context, ev Event) {
	if s.notifier != nil {
		s.notifier.Invalidate(ctx, ev)
	}
}
