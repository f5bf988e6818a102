package rest

import (
	"biteswipe/internal/model"
	"biteswipe/internal/repository/memory"
	"biteswipe/internal/service"
	"biteswipe/internal/transport/ws"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testAPI struct {
	handler http.Handler
	tokens  map[string]string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	catalog := memory.NewRestaurantRepo()
	users := memory.NewUserRepo()
	here := model.Location{Latitude: 49.2827, Longitude: -123.1207}
	for _, id := range []string{"R1", "R2"} {
		require.NoError(t, catalog.Upsert(ctx, &model.Restaurant{ID: id, Name: "Place " + id, Location: model.NewGeoPoint(here)}))
	}

	auth := service.NewAuthService("test-secret", time.Hour)
	api := &testAPI{tokens: map[string]string{}}
	for _, id := range []string{"U1", "U2", "U3"} {
		require.NoError(t, users.Create(ctx, &model.User{ID: id, DisplayName: id}))
		token, err := auth.GenerateUserToken(id)
		require.NoError(t, err)
		api.tokens[id] = token
	}

	hub := ws.NewHub(zap.NewNop())
	t.Cleanup(hub.Close)

	sessions := service.NewSessionService(memory.NewSessionRepo(), catalog, users, zap.NewNop(), service.SessionOptions{})
	sessions.SetNotifier(hub)

	api.handler = NewRouter(&Container{
		AuthService:    auth,
		SessionService: sessions,
		WSHub:          hub,
		Logger:         zap.NewNop(),
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[user])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func (a *testAPI) createSession(t *testing.T) (string, string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/sessions", "U1", map[string]interface{}{
		"latitude": 49.2827, "longitude": -123.1207, "radius": 500,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		SessionID string `json:"sessionId"`
		JoinCode  string `json:"joinCode"`
	}
	decodeBody(t, rec, &created)
	return created.SessionID, created.JoinCode
}

func TestSessionFlow(t *testing.T) {
	api := newTestAPI(t)
	id, code := api.createSession(t)
	base := "/v1/sessions/" + id

	rec := api.do(t, http.MethodPost, base+"/invitations", "U1", map[string]string{"userId": "U2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/v1/sessions/join", "U2", map[string]string{"joinCode": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, base+"/start", "U1", map[string]int{"time": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var started model.Session
	decodeBody(t, rec, &started)
	assert.Equal(t, model.SessionMatching, started.Status)

	for _, v := range []struct {
		user, restaurant string
		liked            bool
	}{
		{"U1", "R1", false}, {"U1", "R2", true},
		{"U2", "R1", true}, {"U2", "R2", true},
	} {
		rec = api.do(t, http.MethodPost, base+"/votes", v.user, map[string]interface{}{"restaurantId": v.restaurant, "liked": v.liked})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, base+"/result", "U1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, u := range []string{"U1", "U2"} {
		rec = api.do(t, http.MethodPost, base+"/done", u, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, base+"/result", "U2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var winner model.Restaurant
	decodeBody(t, rec, &winner)
	assert.Equal(t, "R2", winner.ID)

	rec = api.do(t, http.MethodGet, base, "U2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var final model.Session
	decodeBody(t, rec, &final)
	assert.Equal(t, model.SessionCompleted, final.Status)
	require.NotNil(t, final.FinalSelection)
	assert.Equal(t, "R2", final.FinalSelection.CandidateID)
}

func TestErrorKindsMapToStatusCodes(t *testing.T) {
	api := newTestAPI(t)
	id, _ := api.createSession(t)
	base := "/v1/sessions/" + id

	rec := api.do(t, http.MethodGet, "/v1/sessions/missing", "U1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "not_found", body.Kind)

	rec = api.do(t, http.MethodPost, base+"/leave", "U1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, "forbidden", body.Kind)

	rec = api.do(t, http.MethodPost, base+"/leave", "U3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, base+"/invitations", "U3", map[string]string{"userId": "U2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, "forbidden", body.Kind)

	rec = api.do(t, http.MethodPost, base+"/start", "U2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, base+"/start", "U1", nil).Code)
	rec = api.do(t, http.MethodPost, base+"/start", "U1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, "invalid_state", body.Kind)

	vote := map[string]interface{}{"restaurantId": "R1", "liked": true}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, base+"/votes", "U1", vote).Code)
	rec = api.do(t, http.MethodPost, base+"/votes", "U1", vote)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, "already_voted", body.Kind)

	rec = api.do(t, http.MethodPost, base+"/votes", "U1", map[string]interface{}{"restaurantId": "R9", "liked": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"missing coordinates", "/v1/sessions", map[string]interface{}{"radius": 500}},
		{"latitude out of range", "/v1/sessions", map[string]interface{}{"latitude": 91, "longitude": 0, "radius": 500}},
		{"non-positive radius", "/v1/sessions", map[string]interface{}{"latitude": 0, "longitude": 0, "radius": 0}},
		{"empty body", "/v1/sessions", nil},
		{"short join code", "/v1/sessions/join", map[string]string{"joinCode": "AB"}},
		{"vote without liked", "/v1/sessions/x/votes", map[string]string{"restaurantId": "R1"}},
		{"negative window", "/v1/sessions/x/start", map[string]int{"time": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, tt.path, "U1", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestJoinCodeIsCaseInsensitive(t *testing.T) {
	api := newTestAPI(t)
	id, code := api.createSession(t)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/sessions/"+id+"/invitations", "U1", map[string]string{"userId": "U3"}).Code)
	rec := api.do(t, http.MethodPost, "/v1/sessions/join", "U3", map[string]string{"joinCode": strings.ToLower(code)})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUserSessionsAndRestaurants(t *testing.T) {
	api := newTestAPI(t)
	id, _ := api.createSession(t)

	rec := api.do(t, http.MethodGet, "/v1/users/me/sessions", "U1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []model.Session
	decodeBody(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, id, mine[0].ID)

	rec = api.do(t, http.MethodGet, "/v1/users/me/sessions", "U3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/v1/sessions/"+id+"/restaurants", "U1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var restaurants []model.Restaurant
	decodeBody(t, rec, &restaurants)
	require.Len(t, restaurants, 2)
	assert.Equal(t, "R1", restaurants[0].ID)

	rec = api.do(t, http.MethodGet, "/v1/sessions/"+id+"/restaurants", "U3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/sessions/"+id+"/invitations", "U1", map[string]string{"userId": "U3"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/v1/sessions/"+id+"/invitations/reject", "U3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected model.Session
	decodeBody(t, rec, &rejected)
	assert.Empty(t, rejected.PendingInvitations)
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/v1/users/me/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me/sessions", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpsEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	api.createSession(t)
	rec = api.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "biteswipe_session_operations_total")

	rec = api.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]interface{}
	decodeBody(t, rec, &doc)
	assert.Equal(t, "/v1", doc["basePath"])
}

func TestPreflightSkipsAuth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/sessions", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAllowOrigin(t *testing.T) {
	allowed := []string{"https://a.example", "https://b.example"}
	assert.Equal(t, "https://b.example", allowOrigin(allowed, "https://b.example"))
	assert.Empty(t, allowOrigin(allowed, "https://evil.example"))
	assert.Equal(t, "*", allowOrigin(nil, "https://evil.example"))
	assert.Equal(t, "*", allowOrigin([]string{"*"}, ""))
}
