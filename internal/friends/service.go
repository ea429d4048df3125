package friends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maiimostafaa/voyager-sub001/internal/db"

	"github.com/jackc/pgx/v5"
)

var (
	ErrSelfRequest = errors.New("cannot befriend yourself")
	ErrNoRequest   = errors.New("no pending request from this user")
)

type Service struct {
	db  db.Querier
	log *slog.Logger
}

func NewService(db db.Querier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, log: log}
}

// ResolveFriendIDs returns the ids of everyone with an accepted edge to
// viewerID, in either direction, deduplicated and in first-seen order. The
// viewer is never part of the result. Query failures are logged and yield an
// empty set.
func (s *Service) ResolveFriendIDs(ctx context.Context, viewerID string) []string {
	edges, err := s.acceptedEdges(ctx, viewerID)
	if err != nil {
		s.log.WarnContext(ctx, "resolve friends failed",
			"viewerID", viewerID,
			"error", err)
		return []string{}
	}
	return friendIDs(viewerID, edges)
}

func friendIDs(viewerID string, edges []Edge) []string {
	seen := make(map[string]struct{}, len(edges))
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		id := e.Other(viewerID)
		if id == "" || id == viewerID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (s *Service) acceptedEdges(ctx context.Context, viewerID string) ([]Edge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, friend_id, status, created_at
		FROM friendships
		WHERE (user_id=$1 OR friend_id=$1) AND status='accepted'
		ORDER BY created_at
	`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	return collectEdges(rows)
}

// RequestFriend records a pending edge from -> to. Repeating a request is a
// no-op; requesting someone who already asked you accepts their request.
func (s *Service) RequestFriend(ctx context.Context, from, to string) (Edge, error) {
	if from == to {
		return Edge{}, ErrSelfRequest
	}

	existing, err := s.edgeBetween(ctx, from, to)
	switch {
	case err == nil:
		if existing.Status == StatusPending && existing.UserID == to {
			return s.AcceptFriend(ctx, from, to)
		}
		return existing, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return Edge{}, err
	}

	e := Edge{UserID: from, FriendID: to, Status: StatusPending}
	err = s.db.QueryRow(ctx, `
		INSERT INTO friendships (user_id, friend_id, status)
		VALUES ($1,$2,'pending')
		ON CONFLICT (user_id, friend_id) DO UPDATE SET status=friendships.status
		RETURNING status, created_at
	`, from, to).Scan(&e.Status, &e.CreatedAt)
	if err != nil {
		return Edge{}, fmt.Errorf("insert friendship: %w", err)
	}
	return e, nil
}

// AcceptFriend turns requester's pending request to viewer into a friendship.
func (s *Service) AcceptFriend(ctx context.Context, viewerID, requesterID string) (Edge, error) {
	e := Edge{UserID: requesterID, FriendID: viewerID, Status: StatusAccepted}
	err := s.db.QueryRow(ctx, `
		UPDATE friendships SET status='accepted'
		WHERE user_id=$1 AND friend_id=$2 AND status='pending'
		RETURNING created_at
	`, requesterID, viewerID).Scan(&e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Edge{}, ErrNoRequest
	}
	if err != nil {
		return Edge{}, fmt.Errorf("accept friendship: %w", err)
	}
	return e, nil
}

// RemoveFriend deletes the edge between a and b whichever way it points. It
// also declines or withdraws pending requests.
func (s *Service) RemoveFriend(ctx context.Context, a, b string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM friendships
		WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)
	`, a, b)
	return err
}

// PendingRequests lists requests waiting for viewerID to answer.
func (s *Service) PendingRequests(ctx context.Context, viewerID string) ([]Edge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, friend_id, status, created_at
		FROM friendships
		WHERE friend_id=$1 AND status='pending'
		ORDER BY created_at DESC
	`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	return collectEdges(rows)
}

func (s *Service) edgeBetween(ctx context.Context, a, b string) (Edge, error) {
	var e Edge
	err := s.db.QueryRow(ctx, `
		SELECT user_id, friend_id, status, created_at
		FROM friendships
		WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)
		LIMIT 1
	`, a, b).Scan(&e.UserID, &e.FriendID, &e.Status, &e.CreatedAt)
	return e, err
}

func collectEdges(rows pgx.Rows) ([]Edge, error) {
	defer rows.Close()

	edges := []Edge{}
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.UserID, &e.FriendID, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
