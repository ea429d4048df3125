package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maiimostafaa/voyager-sub001/internal/db"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound        = errors.New("profile not found")
	ErrInvalidUsername = errors.New("username required")
)

const maxSearchResults = 20

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Get(ctx context.Context, id string) (Summary, error) {
	var p Summary
	err := s.db.QueryRow(ctx, `
		SELECT id, username, avatar_url
		FROM profiles WHERE id=$1
	`, id).Scan(&p.ID, &p.Username, &p.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	return p, err
}

// Summaries returns the profiles that exist among ids. Missing ids are simply
// absent from the result.
func (s *Service) Summaries(ctx context.Context, ids []string) ([]Summary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, username, avatar_url
		FROM profiles WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var p Summary
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Service) Upsert(ctx context.Context, p Summary) (Summary, error) {
	p.Username = strings.TrimSpace(p.Username)
	if p.Username == "" {
		return Summary{}, ErrInvalidUsername
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO profiles (id, username, avatar_url)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET username=EXCLUDED.username, avatar_url=EXCLUDED.avatar_url
	`, p.ID, p.Username, p.AvatarURL)
	if err != nil {
		return Summary{}, err
	}
	return p, nil
}

// Search matches usernames by case-insensitive prefix.
func (s *Service) Search(ctx context.Context, prefix string, limit int) ([]Summary, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []Summary{}, nil
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, username, avatar_url
		FROM profiles
		WHERE username ILIKE $1
		ORDER BY username
		LIMIT $2
	`, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var p Summary
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
