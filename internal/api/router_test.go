package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/realtimemaps-be/internal/auth"
	"github.com/isdelr/realtimemaps-be/internal/database"
	"github.com/isdelr/realtimemaps-be/internal/metrics"
	"github.com/isdelr/realtimemaps-be/internal/services"
	"github.com/isdelr/realtimemaps-be/internal/testutil"
	"github.com/isdelr/realtimemaps-be/internal/transit"
	ws "github.com/isdelr/realtimemaps-be/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeTransit struct {
	trainErr  error
	flightErr error
	gotFlight [2]string
}

func (f *fakeTransit) TrainStatus(ctx context.Context, trainNo, date string) (json.RawMessage, error) {
	if f.trainErr != nil {
		return nil, f.trainErr
	}
	return json.RawMessage(`{"train":"` + trainNo + `","date":"` + date + `"}`), nil
}

func (f *fakeTransit) FlightSummary(ctx context.Context, flightNo, fr24ID string) (json.RawMessage, error) {
	f.gotFlight = [2]string{flightNo, fr24ID}
	if f.flightErr != nil {
		return nil, f.flightErr
	}
	return json.RawMessage(`{"result":{"flight":"` + flightNo + `"}}`), nil
}

type testEnv struct {
	router  http.Handler
	db      *database.DB
	hub     *ws.Hub
	transit *fakeTransit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	ft := &fakeTransit{}
	router := NewRouter(Deps{
		Logger:            zerolog.Nop(),
		Hub:               hub,
		Metrics:           metrics.New(),
		UserService:       services.NewUserService(db, auth.NewHasher(bcrypt.MinCost)),
		SearchService:     services.NewSearchService(db),
		ReportService:     services.NewReportService(db),
		Transit:           ft,
		FrontendBuildPath: filepath.Join(t.TempDir(), "missing"),
	})
	return &testEnv{router: router, db: db, hub: hub, transit: ft}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodGet, "/api/health", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	// Health does not depend on the database.
	require.NoError(t, env.db.Close())
	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/health", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestSignupScenario(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/signup",
		map[string]string{"email": "a@x.com", "password": "secret123", "display_name": "Ann"}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	raw := w.Body.String()
	assert.NotContains(t, raw, "password")
	assert.NotContains(t, raw, "$2a$")
	assert.NotContains(t, raw, "phone")

	var out struct {
		ID          int64     `json:"id"`
		Email       string    `json:"email"`
		DisplayName string    `json:"display_name"`
		CreatedAt   time.Time `json:"created_at"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, int64(1), out.ID)
	assert.Equal(t, "a@x.com", out.Email)
	assert.Equal(t, "Ann", out.DisplayName)
	assert.False(t, out.CreatedAt.IsZero())

	// Duplicate email: 400, no new row.
	w = env.do(testutil.MakeRequest(http.MethodPost, "/api/signup",
		map[string]string{"email": "a@x.com", "password": "other"}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.JSONEq(t, `{"detail":"Email already exists"}`, w.Body.String())
	assert.Equal(t, 1, testutil.CountRows(t, env.db, "users"))

	// Re-fetch yields the same id.
	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/users/1", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var again map[string]any
	testutil.AssertJSON(t, w, &again)
	assert.Equal(t, float64(1), again["id"])
	assert.NotContains(t, again, "hashed_password")
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/signup", map[string]string{"email": "nope"}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, w.Body.String(), "email")

	w = env.do(testutil.MakeRequest(http.MethodPost, "/api/signup", `{"email":`, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	assert.Equal(t, 0, testutil.CountRows(t, env.db, "users"))
}

func TestSignup_RejectsOverlongPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/signup",
		map[string]string{"email": "long@x.com", "password": strings.Repeat("p", 80)}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.JSONEq(t, `{"detail":"password: must be at most 72 bytes"}`, w.Body.String())
	assert.Equal(t, 0, testutil.CountRows(t, env.db, "users"))

	w = env.do(testutil.MakeRequest(http.MethodPost, "/api/signup",
		map[string]string{"email": "long@x.com", "password": strings.Repeat("p", 72)}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestSignup_RejectsEmptyEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/signup", `{"email":""}`, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.JSONEq(t, `{"detail":"email: value is not a valid email address"}`, w.Body.String())
	assert.Equal(t, 0, testutil.CountRows(t, env.db, "users"))
}

func TestSaveSearch_RejectsTrailingData(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/search", `{"query":"x","lat":1,"lng":1}junk`, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 0, testutil.CountRows(t, env.db, "search_history"))
}

func TestSignup_DuplicatePhoneIsServerError(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/signup", map[string]string{"phone": "555"}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = env.do(testutil.MakeRequest(http.MethodPost, "/api/signup", map[string]string{"phone": "555"}, nil))
	testutil.AssertStatus(t, w, http.StatusInternalServerError)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, w.Body.String())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.do(testutil.MakeRequest(http.MethodPost, "/api/signup", map[string]string{"email": "a@x.com", "password": "secret123"}, nil))

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "secret123"}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"ok":true,"id":1}`, w.Body.String())
	assert.Empty(t, w.Result().Cookies(), "login issues no session")

	w = env.do(testutil.MakeRequest(http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "other"}, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = env.do(testutil.MakeRequest(http.MethodPost, "/api/login", map[string]string{"email": "a@x.com"}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestSaveSearchScenario(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/search", map[string]any{"query": "downtown", "lat": 12.9, "lng": 77.6}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"ok":true,"id":1}`, w.Body.String())

	w = env.do(testutil.MakeRequest(http.MethodPost, "/api/search", map[string]any{"lat": 12.9, "lng": 77.6}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.JSONEq(t, `{"detail":"query: field required"}`, w.Body.String())

	assert.Equal(t, 1, testutil.CountRows(t, env.db, "search_history"))
}

func TestSaveReport_PublishesToWebsocket(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/updates", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	// Echo.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Echo: hi", string(msg))

	resp, err := http.Post(srv.URL+"/api/report", "application/json",
		strings.NewReader(`{"type":"accident","description":"lane blocked","lat":12.9,"lng":77.6}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ack map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, true, ack["ok"])
	assert.Equal(t, float64(1), ack["id"])

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	var note ws.Message
	require.NoError(t, json.Unmarshal(msg, &note))
	assert.Equal(t, "report.created", note.Action)
	payload := note.Payload.(map[string]any)
	assert.Equal(t, "accident", payload["type"])
	assert.Equal(t, float64(0), payload["trust_score"])
}

func TestSaveReport_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodPost, "/api/report", map[string]any{"type": "jam", "lat": 120, "lng": 0}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, w.Body.String(), "lat")
	assert.Equal(t, 0, testutil.CountRows(t, env.db, "route_reports"))
}

func TestUserBackReferences(t *testing.T) {
	env := newTestEnv(t)
	env.do(testutil.MakeRequest(http.MethodPost, "/api/signup", map[string]string{"email": "a@x.com"}, nil))

	w := env.do(testutil.MakeRequest(http.MethodGet, "/api/users/1/searches", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/users/1/reports", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/users/9/reports", nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/users/abc", nil, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/users/9", nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestTransitRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodGet, "/api/train/status?train_no=12627&date=19-10-2026", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"train":"12627","date":"19-10-2026"}`, w.Body.String())

	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/flight/summary?flight_no=AI202&fr24_id=abcd", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Equal(t, [2]string{"AI202", "abcd"}, env.transit.gotFlight)

	env.transit.trainErr = transit.ErrNotConfigured
	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/train/status?train_no=1&date=d", nil, nil))
	testutil.AssertStatus(t, w, http.StatusInternalServerError)
	assert.JSONEq(t, `{"detail":"Train API key not set in environment"}`, w.Body.String())

	env.transit.flightErr = transit.ErrMissingParam
	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/flight/summary", nil, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	env.transit.flightErr = &transit.UpstreamError{Provider: "flight", StatusCode: 503}
	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/flight/summary?flight_no=AI202", nil, nil))
	testutil.AssertStatus(t, w, http.StatusBadGateway)
	assert.JSONEq(t, `{"detail":"Flight API returned error"}`, w.Body.String())

	w = env.do(testutil.MakeRequest(http.MethodGet, "/api/traffic/status", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "placeholder")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(testutil.MakeRequest(http.MethodGet, "/api/health", nil, nil))

	w := env.do(testutil.MakeRequest(http.MethodGet, "/metrics", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `realtimemaps_http_requests_total{code="200",method="GET",route="/api/health"} 1`)
}

func TestFrontend(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(testutil.MakeRequest(http.MethodGet, "/", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "RealtimeMaps backend running")

	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html>maps</html>"), 0o644))
	router := NewRouter(Deps{Logger: zerolog.Nop(), FrontendBuildPath: dist})

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "maps")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")

	w := env.do(req)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
