// internal/domain/activity/model.go

package activity

import (
	"context"
	"time"
)

// Event is a regional event shown in the events list
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FamilyActivity is a family-friendly place imported from OpenStreetMap
type FamilyActivity struct {
	ID           string  `json:"id"`
	OSMID        int64   `json:"osm_id"`
	Kind         string  `json:"type"`
	Title        string  `json:"title"`
	Location     string  `json:"location"`
	Description  string  `json:"description"`
	Image        string  `json:"image,omitempty"`
	OpeningHours string  `json:"opening_hours,omitempty"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

// SocialMeetup is an informal meetup proposed by a user
type SocialMeetup struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists events, family activities and meetups
type Store interface {
	// FindEventsSince returns events dated on or after since, oldest first
	FindEventsSince(ctx context.Context, since time.Time) ([]Event, error)

	// ListFamilyActivities returns every stored family activity
	ListFamilyActivities(ctx context.Context) ([]FamilyActivity, error)

	// UpsertFamilyActivities inserts or overwrites activities by OSM id
	UpsertFamilyActivities(ctx context.Context, activities []FamilyActivity) error

	// ListSocialMeetups returns every meetup, newest first
	ListSocialMeetups(ctx context.Context) ([]SocialMeetup, error)

	// CreateSocialMeetup stores a new meetup
	CreateSocialMeetup(ctx context.Context, m SocialMeetup) error
}
