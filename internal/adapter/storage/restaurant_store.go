// internal/adapter/storage/restaurant_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"miniregion/internal/domain/restaurant"
)

// RestaurantStore implements storage for restaurants keyed by place id
type RestaurantStore struct {
	db *pgxpool.Pool
}

// NewRestaurantStore creates a new restaurant store
func NewRestaurantStore(db *pgxpool.Pool) *RestaurantStore {
	return &RestaurantStore{
		db: db,
	}
}

const upsertRestaurantQuery = `
	INSERT INTO restaurants (
		place_id, name, address, rating, types, lat, lng, photos,
		user_ratings_total, website, phone, opening_hours, reviews, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8,
		$9, $10, $11, $12, $13, $14
	)
	ON CONFLICT (place_id) DO UPDATE
	SET
		name = EXCLUDED.name,
		address = EXCLUDED.address,
		rating = EXCLUDED.rating,
		types = EXCLUDED.types,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		photos = EXCLUDED.photos,
		user_ratings_total = EXCLUDED.user_ratings_total,
		website = EXCLUDED.website,
		phone = EXCLUDED.phone,
		opening_hours = EXCLUDED.opening_hours,
		reviews = EXCLUDED.reviews,
		updated_at = EXCLUDED.updated_at
`

// UpsertPlaces inserts each place or overwrites every field of the stored
// row with the same place id. There is no field merge: the last writer for a
// key wins.
func (s *RestaurantStore) UpsertPlaces(ctx context.Context, places []restaurant.Place) error {
	if len(places) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now()

	for _, p := range places {
		args, err := upsertArgs(p, now)
		if err != nil {
			return err
		}
		batch.Queue(upsertRestaurantQuery, args...)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for _, p := range places {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("error upserting restaurant %s: %w", p.PlaceID, err)
		}
	}

	return nil
}

func upsertArgs(p restaurant.Place, now time.Time) ([]interface{}, error) {
	photos := p.Photos
	if photos == nil {
		photos = []restaurant.Photo{}
	}
	photosJSON, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("error marshaling photos: %w", err)
	}

	reviews := p.Reviews
	if reviews == nil {
		reviews = []restaurant.Review{}
	}
	reviewsJSON, err := json.Marshal(reviews)
	if err != nil {
		return nil, fmt.Errorf("error marshaling reviews: %w", err)
	}

	var hoursJSON []byte
	if p.OpeningHours != nil {
		hoursJSON, err = json.Marshal(p.OpeningHours)
		if err != nil {
			return nil, fmt.Errorf("error marshaling opening hours: %w", err)
		}
	}

	types := p.Types
	if types == nil {
		types = []string{}
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return []interface{}{
		p.PlaceID,
		p.Name,
		p.Address,
		p.Rating,
		types,
		p.Location.Lat,
		p.Location.Lng,
		photosJSON,
		p.UserRatingsTotal,
		p.Website,
		p.Phone,
		hoursJSON,
		reviewsJSON,
		updatedAt,
	}, nil
}

// ListPlaces returns up to limit stored restaurants, most recently updated first
func (s *RestaurantStore) ListPlaces(ctx context.Context, limit int) ([]restaurant.Place, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT
			place_id, name, address, rating, types, lat, lng, photos,
			user_ratings_total, website, phone, opening_hours, reviews, updated_at
		FROM restaurants
		ORDER BY updated_at DESC, place_id
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	places := []restaurant.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restaurants: %w", err)
	}

	return places, nil
}

// GetPlace retrieves a restaurant by place id
func (s *RestaurantStore) GetPlace(ctx context.Context, placeID string) (*restaurant.Place, error) {
	query := `
		SELECT
			place_id, name, address, rating, types, lat, lng, photos,
			user_ratings_total, website, phone, opening_hours, reviews, updated_at
		FROM restaurants
		WHERE place_id = $1
	`

	p, err := scanPlace(s.db.QueryRow(ctx, query, placeID))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPlace(row pgx.Row) (restaurant.Place, error) {
	var p restaurant.Place
	var photosJSON, hoursJSON, reviewsJSON []byte

	err := row.Scan(
		&p.PlaceID,
		&p.Name,
		&p.Address,
		&p.Rating,
		&p.Types,
		&p.Location.Lat,
		&p.Location.Lng,
		&photosJSON,
		&p.UserRatingsTotal,
		&p.Website,
		&p.Phone,
		&hoursJSON,
		&reviewsJSON,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, fmt.Errorf("error scanning restaurant: %w", err)
	}

	if err := json.Unmarshal(photosJSON, &p.Photos); err != nil {
		return p, fmt.Errorf("error unmarshaling photos: %w", err)
	}
	if err := json.Unmarshal(reviewsJSON, &p.Reviews); err != nil {
		return p, fmt.Errorf("error unmarshaling reviews: %w", err)
	}
	if len(hoursJSON) > 0 {
		p.OpeningHours = &restaurant.OpeningHours{}
		if err := json.Unmarshal(hoursJSON, p.OpeningHours); err != nil {
			return p, fmt.Errorf("error unmarshaling opening hours: %w", err)
		}
	}

	return p, nil
}
