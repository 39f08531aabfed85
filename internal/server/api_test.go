package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTripsAndStats(t *testing.T) {
	t.Parallel()
	router, store := newTestRouter(t, "")

	// Seed two trips through the WhatsApp adapter.
	for _, body := range []string{
		"to: Airport, mode: Bus, co: 2, notes: early flight",
		"to: Beach, mode: Bus",
	} {
		w := postWhatsApp(t, router, url.Values{"Body": {body}, "From": {"whatsapp:+1555"}})
		require.Equal(t, http.StatusOK, w.Code)
	}

	user, err := store.FindUserByAlias(t.Context(), "wa_whatsapp:+1555@internal")
	require.NoError(t, err)
	require.NotNil(t, user)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/"+itoa(user.ID)+"/trips", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var trips []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trips))
	require.Len(t, trips, 2)
	assert.Equal(t, "Beach", trips[0]["destination"], "newest first")
	assert.Equal(t, "Airport", trips[1]["destination"])
	assert.Equal(t, "early flight", trips[1]["notes"])
	_, hasNotes := trips[0]["notes"]
	assert.False(t, hasNotes, "absent notes are omitted")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/"+itoa(user.ID)+"/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 2, stats["totalTrips"])
	assert.EqualValues(t, 2, stats["totalCoTravelers"])
	assert.Equal(t, "Bus", stats["mostUsedTransport"])
}

func TestUserTripsUnknownUserIsEmpty(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/999/trips", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUserTripsInvalidID(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/abc/trips", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/abc/stats", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserStatsStoreFailure(t *testing.T) {
	t.Parallel()
	router := newDownRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/1/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
