package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-saturdays/internal/api"
	"github.com/tartampluch/go-saturdays/internal/auth"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
	"github.com/tartampluch/go-saturdays/internal/metrics"
	"github.com/tartampluch/go-saturdays/internal/session"
	"github.com/tartampluch/go-saturdays/internal/store"
)

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// failingStore simulates a disk that refuses writes.
type failingStore struct{}

func (failingStore) All() []engine.MonthSaturdayRecord { return []engine.MonthSaturdayRecord{} }
func (failingStore) Len() int                          { return 0 }
func (failingStore) ReplaceAll([]engine.MonthSaturdayRecord) ([]engine.MonthSaturdayRecord, error) {
	return nil, errors.New("disk full")
}

type replaceBody struct {
	Message            string                       `json:"message"`
	AlternateSaturdays []engine.MonthSaturdayRecord `json:"alternateSaturdays"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Meta    struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func newAPI(t *testing.T, opts api.Options) (*api.API, *httptest.Server) {
	t.Helper()
	if opts.Store == nil {
		s, err := store.Open(filepath.Join(t.TempDir(), "data.json"), nil)
		require.NoError(t, err)
		opts.Store = s
	}
	a := api.New(opts)
	require.NoError(t, a.RebuildFeed())

	ts := httptest.NewServer(a.Handler())
	t.Cleanup(ts.Close)
	return a, ts
}

func post(t *testing.T, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+config.RouteSaturdays, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(config.HeaderContentType, config.MimeJSON)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// -----------------------------------------------------------------------------
// Collection endpoints
// -----------------------------------------------------------------------------

func TestList_Empty(t *testing.T) {
	_, ts := newAPI(t, api.Options{})

	resp, err := http.Get(ts.URL + config.RouteSaturdays)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeJSON, resp.Header.Get(config.HeaderContentType))
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"alternateSaturdays":[]}`, string(body))
}

func TestReplace_Success(t *testing.T) {
	m := metrics.New()
	a, ts := newAPI(t, api.Options{
		Metrics: m,
		Builder: &engine.FeedBuilder{Clock: MockClock{CurrentTime: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)}},
	})

	resp := post(t, ts.URL, `{"alternateSaturdays":[{"month":11,"year":2024,"workingSaturdays":[1,3,5]},{"month":12,"year":2024,"workingSaturdays":[2,4]}]}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[replaceBody](t, resp)

	assert.Equal(t, config.HTTPMsgSaved, out.Message)
	require.Len(t, out.AlternateSaturdays, 2)
	assert.NotEmpty(t, out.AlternateSaturdays[0].ID)
	assert.NotNil(t, out.AlternateSaturdays[0].CreatedAt)

	assert.Equal(t, 5, a.Feed().Events(), "feed is rebuilt after each replace")
	assert.InDelta(t, 2, metricsGauge(t, m), 0)

	feed, err := http.Get(ts.URL + config.RouteFeed)
	require.NoError(t, err)
	defer func() { _ = feed.Body.Close() }()
	ics, _ := io.ReadAll(feed.Body)
	assert.Equal(t, http.StatusOK, feed.StatusCode)
	assert.Contains(t, string(ics), "UID:2024-11-1@"+config.ICalDomain)
}

// metricsGauge reads the stored months gauge from the registry.
func metricsGauge(t *testing.T, m *metrics.Metrics) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "saturdays_stored_months" {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("gauge not found")
	return 0
}

func TestReplace_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"Invalid JSON", `{"alternateSaturdays": [`, http.StatusBadRequest, config.CodeInvalidJSON},
		{"Wrong type", `{"alternateSaturdays": [{"month": "May"}]}`, http.StatusBadRequest, config.CodeInvalidJSON},
		{"Missing key", `{}`, http.StatusUnprocessableEntity, config.CodeValidation},
		{"Month out of range", `{"alternateSaturdays":[{"month":13,"year":2024,"workingSaturdays":[]}]}`, http.StatusUnprocessableEntity, config.CodeValidation},
		{"Ordinal out of range", `{"alternateSaturdays":[{"month":1,"year":2024,"workingSaturdays":[6]}]}`, http.StatusUnprocessableEntity, config.CodeValidation},
		{"Duplicate month", `{"alternateSaturdays":[{"month":1,"year":2024},{"month":1,"year":2024}]}`, http.StatusUnprocessableEntity, config.CodeValidation},
	}

	_, ts := newAPI(t, api.Options{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL, tt.body, nil)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			body := decode[errorBody](t, resp)
			assert.Equal(t, tt.wantErr, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, resp.Header.Get(config.HeaderRequestID), body.Meta.RequestID)
		})
	}
}

func TestReplace_EmptyListClearsCollection(t *testing.T) {
	a, ts := newAPI(t, api.Options{})

	require.Equal(t, http.StatusOK, post(t, ts.URL, `{"alternateSaturdays":[{"month":1,"year":2025,"workingSaturdays":[1,3,5]}]}`, nil).StatusCode)
	require.Equal(t, http.StatusOK, post(t, ts.URL, `{"alternateSaturdays":[]}`, nil).StatusCode)

	assert.Equal(t, 0, a.Feed().Events())
}

func TestReplace_StoreFailure(t *testing.T) {
	_, ts := newAPI(t, api.Options{Store: failingStore{}})

	resp := post(t, ts.URL, `{"alternateSaturdays":[]}`, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, config.CodeInternal, decode[errorBody](t, resp).Code)
}

// -----------------------------------------------------------------------------
// Auth, request ids, CORS
// -----------------------------------------------------------------------------

func TestAuth_BearerRequired(t *testing.T) {
	hash, err := auth.HashToken("s3cret")
	require.NoError(t, err)
	_, ts := newAPI(t, api.Options{Verifier: auth.NewVerifier(hash)})

	resp := post(t, ts.URL, `{"alternateSaturdays":[]}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, config.CodeUnauthorized, decode[errorBody](t, resp).Code)

	ok := post(t, ts.URL, `{"alternateSaturdays":[]}`, http.Header{config.HeaderAuthorization: {"Bearer s3cret"}})
	assert.Equal(t, http.StatusOK, ok.StatusCode)

	feed, err := http.Get(ts.URL + config.RouteFeed)
	require.NoError(t, err)
	_ = feed.Body.Close()
	assert.Equal(t, http.StatusOK, feed.StatusCode, "the calendar feed stays public")
}

func TestRequestID(t *testing.T) {
	_, ts := newAPI(t, api.Options{})

	resp, err := http.Get(ts.URL + config.RouteHealth)
	require.NoError(t, err)
	_ = resp.Body.Close()
	_, err = uuid.Parse(resp.Header.Get(config.HeaderRequestID))
	assert.NoError(t, err, "a request id is minted")

	want := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, ts.URL+config.RouteHealth, nil)
	req.Header.Set(config.HeaderRequestID, want)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, want, resp.Header.Get(config.HeaderRequestID), "a valid incoming id is kept")
}

func TestCORS_Preflight(t *testing.T) {
	_, ts := newAPI(t, api.Options{AllowedOrigins: []string{"https://hr.example.com"}})

	preflight := func(origin string) *http.Response {
		req, _ := http.NewRequest(http.MethodOptions, ts.URL+config.RouteSaturdays, nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp
	}

	allowed := preflight("https://hr.example.com")
	assert.Equal(t, "https://hr.example.com", allowed.Header.Get("Access-Control-Allow-Origin"))

	denied := preflight("https://evil.example.com")
	assert.Empty(t, denied.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newAPI(t, api.Options{})

	resp, err := http.Get(ts.URL + config.RouteHealth)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, err = http.Get(ts.URL + config.RouteMetrics)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "saturdays_api_requests_total")
}

// -----------------------------------------------------------------------------
// End to end
// -----------------------------------------------------------------------------

// TestSessionRoundTrip drives a client session against the real API.
func TestSessionRoundTrip(t *testing.T) {
	hash, err := auth.HashToken("tok")
	require.NoError(t, err)
	_, ts := newAPI(t, api.Options{Verifier: auth.NewVerifier(hash)})

	clock := MockClock{CurrentTime: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)}
	s := session.New(engine.NewClient(ts.URL, "tok"), clock)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Empty(t, s.Snapshot().Records)

	s.Toggle(time.November, 2024, 2, true)
	require.NoError(t, s.Save(context.Background()))

	st := s.Snapshot()
	assert.Equal(t, config.MsgSaved, st.Notice)
	require.Len(t, st.Records, 1)
	assert.NotEmpty(t, st.Records[0].ID, "reconcile picks up server-assigned ids")
	assert.Equal(t, []int{2, 4}, st.Records[0].WorkingSaturdays)

	bad := session.New(engine.NewClient(ts.URL, "wrong"), clock)
	require.Error(t, bad.Refresh(context.Background()))
	assert.Equal(t, config.HTTPMsgUnauthorized, bad.Snapshot().Error)
}
