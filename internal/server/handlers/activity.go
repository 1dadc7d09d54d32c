// internal/server/handlers/activity.go

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"miniregion/internal/domain/activity"
	"miniregion/internal/domain/restaurant"
)

const dateLayout = "2006-01-02"

// ActivityHandler handles event, family activity and meetup requests
type ActivityHandler struct {
	store    activity.Store
	validate *validator.Validate
	now      func() time.Time
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(store activity.Store) *ActivityHandler {
	return &ActivityHandler{
		store:    store,
		validate: newValidator(),
		now:      time.Now,
	}
}

// GetEvents returns events on or after startDate (default today), oldest first
func (h *ActivityHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, now.Location())
		if err != nil {
			respondWithValidationError(w, &restaurant.ValidationError{
				Field:   "startDate",
				Message: "startDate must be formatted as YYYY-MM-DD",
			})
			return
		}
		since = d
	}

	events, err := h.store.FindEventsSince(r.Context(), since)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to load events", err)
		return
	}

	respondWithJSON(w, http.StatusOK, events)
}

// GetFamilyActivities returns every family activity
func (h *ActivityHandler) GetFamilyActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.store.ListFamilyActivities(r.Context())
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to load family activities", err)
		return
	}

	respondWithJSON(w, http.StatusOK, activities)
}

// GetSocialMeetups returns every meetup, newest first
func (h *ActivityHandler) GetSocialMeetups(w http.ResponseWriter, r *http.Request) {
	meetups, err := h.store.ListSocialMeetups(r.Context())
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to load meetups", err)
		return
	}

	respondWithJSON(w, http.StatusOK, meetups)
}

type createMeetupRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=500"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location" validate:"required,max=200"`
}

// CreateSocialMeetup stores a new meetup
func (h *ActivityHandler) CreateSocialMeetup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req createMeetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verr *restaurant.ValidationError
		if errors.As(toValidationError(err), &verr) {
			respondWithValidationError(w, verr)
			return
		}
		respondWithError(w, r, http.StatusInternalServerError, "Failed to validate request", err)
		return
	}

	date, err := parseMeetupDate(req.Date)
	if err != nil {
		respondWithValidationError(w, &restaurant.ValidationError{
			Field:   "date",
			Message: "date must be RFC3339 or YYYY-MM-DD",
		})
		return
	}

	meetup := activity.SocialMeetup{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
		CreatedAt:   h.now(),
	}

	if err := h.store.CreateSocialMeetup(r.Context(), meetup); err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to create meetup", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, meetup)
}

func parseMeetupDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, raw)
}
