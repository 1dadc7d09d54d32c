// internal/adapter/storage/activity_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"miniregion/internal/domain/activity"
)

// ActivityStore implements storage for events, family activities and meetups
type ActivityStore struct {
	db *pgxpool.Pool
}

// NewActivityStore creates a new activity store
func NewActivityStore(db *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{
		db: db,
	}
}

// FindEventsSince returns events dated on or after since, oldest first
func (s *ActivityStore) FindEventsSince(ctx context.Context, since time.Time) ([]activity.Event, error) {
	query := `
		SELECT id, title, date, location, description, image, updated_at
		FROM events
		WHERE date >= $1
		ORDER BY date ASC
	`

	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	events := []activity.Event{}
	for rows.Next() {
		var e activity.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.Location, &e.Description, &e.Image, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// UpsertEvent inserts or overwrites an event by id. A new id is assigned when
// the event has none.
func (s *ActivityStore) UpsertEvent(ctx context.Context, e activity.Event) (activity.Event, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.UpdatedAt = time.Now()

	query := `
		INSERT INTO events (id, title, date, location, description, image, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET
			title = EXCLUDED.title,
			date = EXCLUDED.date,
			location = EXCLUDED.location,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.Exec(ctx, query, e.ID, e.Title, e.Date, e.Location, e.Description, e.Image, e.UpdatedAt)
	if err != nil {
		return e, fmt.Errorf("error upserting event: %w", err)
	}

	return e, nil
}

// ListFamilyActivities returns every stored family activity ordered by title
func (s *ActivityStore) ListFamilyActivities(ctx context.Context) ([]activity.FamilyActivity, error) {
	query := `
		SELECT id, osm_id, kind, title, location, description, image, opening_hours, lat, lng
		FROM family_activities
		ORDER BY title
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	activities := []activity.FamilyActivity{}
	for rows.Next() {
		var a activity.FamilyActivity
		err := rows.Scan(
			&a.ID,
			&a.OSMID,
			&a.Kind,
			&a.Title,
			&a.Location,
			&a.Description,
			&a.Image,
			&a.OpeningHours,
			&a.Lat,
			&a.Lng,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning family activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating family activities: %w", err)
	}

	return activities, nil
}

// UpsertFamilyActivities inserts or overwrites activities keyed by OSM id.
// The row id assigned on first insert is kept.
func (s *ActivityStore) UpsertFamilyActivities(ctx context.Context, activities []activity.FamilyActivity) error {
	if len(activities) == 0 {
		return nil
	}

	query := `
		INSERT INTO family_activities (
			id, osm_id, kind, title, location, description, image, opening_hours, lat, lng
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (osm_id) DO UPDATE
		SET
			kind = EXCLUDED.kind,
			title = EXCLUDED.title,
			location = EXCLUDED.location,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			opening_hours = EXCLUDED.opening_hours,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng
	`

	batch := &pgx.Batch{}
	for _, a := range activities {
		id := a.ID
		if id == "" {
			id = uuid.New().String()
		}
		batch.Queue(query, id, a.OSMID, a.Kind, a.Title, a.Location, a.Description, a.Image, a.OpeningHours, a.Lat, a.Lng)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for _, a := range activities {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("error upserting family activity %d: %w", a.OSMID, err)
		}
	}

	return nil
}

// ListSocialMeetups returns every meetup, newest first
func (s *ActivityStore) ListSocialMeetups(ctx context.Context) ([]activity.SocialMeetup, error) {
	query := `
		SELECT id, title, description, date, location, created_at
		FROM social_meetups
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	meetups := []activity.SocialMeetup{}
	for rows.Next() {
		var m activity.SocialMeetup
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Date, &m.Location, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning meetup: %w", err)
		}
		meetups = append(meetups, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meetups: %w", err)
	}

	return meetups, nil
}

// CreateSocialMeetup stores a new meetup
func (s *ActivityStore) CreateSocialMeetup(ctx context.Context, m activity.SocialMeetup) error {
	query := `
		INSERT INTO social_meetups (id, title, description, date, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.Exec(ctx, query, m.ID, m.Title, m.Description, m.Date, m.Location, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating meetup: %w", err)
	}

	return nil
}
