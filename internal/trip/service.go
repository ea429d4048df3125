package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maiimostafaa/voyager-sub001/internal/db"
	"github.com/maiimostafaa/voyager-sub001/internal/location"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound     = errors.New("trip not found")
	ErrInvalidTrip  = errors.New("title and destination required")
	ErrInvalidDates = errors.New("invalid trip dates")
)

const tripColumns = `id, user_id, title, destination, start_date, end_date, notes, created_at`

// Recommender finds posts near a place name from the viewer's point of view.
type Recommender interface {
	FindPostsNearLocation(ctx context.Context, viewerID, query string) []location.MatchedPost
}

type Service struct {
	db          db.Querier
	recommender Recommender
	log         *slog.Logger
}

func NewService(db db.Querier, recommender Recommender, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, recommender: recommender, log: log}
}

func (s *Service) CreateTrip(ctx context.Context, userID string, input Input) (Trip, error) {
	trip := Trip{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Destination: strings.TrimSpace(input.Destination),
		Notes:       strings.TrimSpace(input.Notes),
	}
	if trip.Title == "" || trip.Destination == "" {
		return Trip{}, ErrInvalidTrip
	}
	if err := applyDates(&trip, input); err != nil {
		return Trip{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO trip_plans (id, user_id, title, destination, start_date, end_date, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, trip.ID, trip.UserID, trip.Title, trip.Destination, trip.StartDate, trip.EndDate, trip.Notes)
	if err := row.Scan(&trip.CreatedAt); err != nil {
		return Trip{}, fmt.Errorf("insert trip: %w", err)
	}
	return trip, nil
}

// ListTrips returns the user's trips, soonest first; undated trips go last.
func (s *Service) ListTrips(ctx context.Context, userID string) ([]Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+tripColumns+`
		FROM trip_plans WHERE user_id=$1
		ORDER BY start_date NULLS LAST, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	trips := []Trip{}
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// GetTrip only returns trips owned by userID; anything else is ErrNotFound.
func (s *Service) GetTrip(ctx context.Context, userID, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+tripColumns+`
		FROM trip_plans WHERE id=$1 AND user_id=$2
	`, id, userID)
	trip, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, ErrNotFound
	}
	return trip, err
}

func (s *Service) UpdateTrip(ctx context.Context, userID, id string, patch Input) (Trip, error) {
	trip, err := s.GetTrip(ctx, userID, id)
	if err != nil {
		return Trip{}, err
	}
	if v := strings.TrimSpace(patch.Title); v != "" {
		trip.Title = v
	}
	if v := strings.TrimSpace(patch.Destination); v != "" {
		trip.Destination = v
	}
	if v := strings.TrimSpace(patch.Notes); v != "" {
		trip.Notes = v
	}
	if err := applyDates(&trip, patch); err != nil {
		return Trip{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trip_plans
		SET title=$3, destination=$4, start_date=$5, end_date=$6, notes=$7
		WHERE id=$1 AND user_id=$2
	`, trip.ID, userID, trip.Title, trip.Destination, trip.StartDate, trip.EndDate, trip.Notes)
	if err != nil {
		return Trip{}, fmt.Errorf("update trip: %w", err)
	}
	return trip, nil
}

func (s *Service) DeleteTrip(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trip_plans WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Recommendations runs the location matcher over the trip's destination.
func (s *Service) Recommendations(ctx context.Context, userID, id string) ([]location.MatchedPost, error) {
	trip, err := s.GetTrip(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if s.recommender == nil {
		return []location.MatchedPost{}, nil
	}
	matched := s.recommender.FindPostsNearLocation(ctx, userID, trip.Destination)
	s.log.DebugContext(ctx, "trip recommendations",
		"tripID", trip.ID,
		"destination", trip.Destination,
		"matches", len(matched))
	return matched, nil
}

func applyDates(trip *Trip, input Input) error {
	if input.StartDate != "" {
		t, err := time.Parse(dateLayout, input.StartDate)
		if err != nil {
			return fmt.Errorf("%w: start_date %q", ErrInvalidDates, input.StartDate)
		}
		trip.StartDate = &t
	}
	if input.EndDate != "" {
		t, err := time.Parse(dateLayout, input.EndDate)
		if err != nil {
			return fmt.Errorf("%w: end_date %q", ErrInvalidDates, input.EndDate)
		}
		trip.EndDate = &t
	}
	if trip.StartDate != nil && trip.EndDate != nil && trip.EndDate.Before(*trip.StartDate) {
		return fmt.Errorf("%w: end before start", ErrInvalidDates)
	}
	return nil
}

func scanTrip(row pgx.Row) (Trip, error) {
	var trip Trip
	err := row.Scan(&trip.ID, &trip.UserID, &trip.Title, &trip.Destination, &trip.StartDate, &trip.EndDate, &trip.Notes, &trip.CreatedAt)
	return trip, err
}
