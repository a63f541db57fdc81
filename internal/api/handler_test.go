package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medialert/m/domain"
	"medialert/m/internal/alerts"
	"medialert/m/internal/database"
	"medialert/m/internal/inventory"
	"medialert/m/internal/migrations"
	"medialert/m/internal/store"
)

const (
	testSecret   = "test_secret"
	testPassword = "letmein"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := database.Connect(":memory:")
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	st := store.New(db)
	engine := alerts.New(st)
	svc := inventory.New(st, engine)
	server := httptest.NewServer(New(svc, engine, st, testSecret, hash).Router())
	t.Cleanup(server.Close)
	return server
}

func login(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp := doJSON(t, server, http.MethodPost, "/auth/login", "", map[string]string{"password": testPassword})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(encoded)
	} else {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, server, http.MethodPost, "/auth/login", "", map[string]string{"password": "nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_MissingOrBadToken(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, server, http.MethodGet, "/api/medicines", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, server, http.MethodGet, "/api/medicines", "not.a.token", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMedicineLifecycle(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server)

	// Create a medicine expiring in 7 days with low stock: both rules fire.
	resp := doJSON(t, server, http.MethodPost, "/api/medicines", token, map[string]any{
		"name":        "Aspirin",
		"expiry_date": futureDate(7),
		"quantity":    3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[map[string]any](t, resp)
	id := int64(created["id"].(float64))
	require.Positive(t, id)

	resp = doJSON(t, server, http.MethodGet, "/api/medicines", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]domain.Medicine](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Aspirin", list[0].Name)

	resp = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/medicines/%d", id), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.Medicine](t, resp)
	assert.Equal(t, int64(3), got.Quantity)

	resp = doJSON(t, server, http.MethodGet, "/api/alerts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	alertList := decodeBody[[]domain.Alert](t, resp)
	require.Len(t, alertList, 2)

	// Flip the sent flag on the newest alert.
	resp = doJSON(t, server, http.MethodPut, fmt.Sprintf("/api/alerts/%d/sent", alertList[0].ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, server, http.MethodPut, fmt.Sprintf("/api/medicines/%d", id), token, map[string]any{
		"quantity": 50,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/medicines/%d", id), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/medicines/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Cascade removed the alerts with the medicine.
	resp = doJSON(t, server, http.MethodGet, "/api/alerts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	alertList = decodeBody[[]domain.Alert](t, resp)
	assert.Empty(t, alertList)
}

func TestCreateMedicine_ValidationError(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server)

	resp := doJSON(t, server, http.MethodPost, "/api/medicines", token, map[string]any{
		"name": "No Expiry",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckAlerts_RunsChecksAndReturnsRecent(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server)

	resp := doJSON(t, server, http.MethodPost, "/api/medicines", token, map[string]any{
		"name":          "Vitamin C",
		"expiry_date":   futureDate(200),
		"quantity":      3,
		"min_threshold": 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The check endpoint is idempotent: calling it again adds nothing.
	for i := 0; i < 2; i++ {
		resp = doJSON(t, server, http.MethodGet, "/api/alerts/check", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		alertList := decodeBody[[]domain.Alert](t, resp)
		require.Len(t, alertList, 1)
		assert.Equal(t, domain.AlertTypeLowStock, alertList[0].AlertType)
		assert.Contains(t, alertList[0].Message, "Vitamin C")
	}
}

func TestMarkAlertSent_NotFound(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server)

	resp := doJSON(t, server, http.MethodPut, "/api/alerts/999/sent", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettingsRoundTrip(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server)

	resp := doJSON(t, server, http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settings := decodeBody[domain.Settings](t, resp)
	assert.Equal(t, []int{7, 15, 30}, settings.AlertDaysBefore)
	assert.True(t, settings.EmailAlerts)

	resp = doJSON(t, server, http.MethodPut, "/api/settings", token, map[string]any{
		"alert_days_before": []int{3, 14},
		"email_alerts":      false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, server, http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settings = decodeBody[domain.Settings](t, resp)
	assert.Equal(t, []int{3, 14}, settings.AlertDaysBefore)
	assert.False(t, settings.EmailAlerts)
	assert.True(t, settings.NotificationPreferences.Push)
}

func TestUpdateSettings_RejectsUnknownFields(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server)

	resp := doJSON(t, server, http.MethodPut, "/api/settings", token, map[string]any{
		"user_id": 7,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
