package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgard/triplog/internal/trip"
)

// tripResponse is the JSON shape of a persisted trip.
type tripResponse struct {
	ID            int64     `json:"id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	TransportMode string    `json:"transportMode"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	CoTravelers   int       `json:"coTravelers"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toTripResponse(t trip.Trip) tripResponse {
	resp := tripResponse{
		ID:            t.ID,
		Origin:        t.Origin,
		Destination:   t.Destination,
		TransportMode: t.TransportMode,
		Date:          t.Date,
		Time:          t.Time,
		CoTravelers:   t.CoTravelers,
		CreatedAt:     t.CreatedAt,
	}
	if t.Notes.Valid {
		notes := t.Notes.String
		resp.Notes = &notes
	}
	return resp
}

// userTrips returns a user's trips, newest first.
func (h *handler) userTrips(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	trips, err := h.store.GetUserTrips(c.Request.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to list trips",
			"request_id", getRequestID(c), "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list trips"})
		return
	}

	out := make([]tripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

// userStats returns aggregate trip statistics for a user.
func (h *handler) userStats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	stats, err := h.store.GetTripStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to aggregate stats",
			"request_id", getRequestID(c), "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
