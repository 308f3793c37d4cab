package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tartampluch/go-saturdays/internal/auth"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
	"github.com/tartampluch/go-saturdays/internal/metrics"
	"github.com/tartampluch/go-saturdays/internal/server"
)

// Store is the persistence the API needs. store.FileStore implements it.
type Store interface {
	All() []engine.MonthSaturdayRecord
	Len() int
	ReplaceAll(records []engine.MonthSaturdayRecord) ([]engine.MonthSaturdayRecord, error)
}

// Options wires the API to its collaborators. Store is required.
type Options struct {
	Store          Store
	Verifier       *auth.Verifier
	Metrics        *metrics.Metrics
	Feed           *server.FeedCache
	Builder        *engine.FeedBuilder
	AllowedOrigins []string
}

// API serves the alternate Saturdays collection, its calendar feed and operational endpoints.
type API struct {
	store    Store
	verifier *auth.Verifier
	metrics  *metrics.Metrics
	feed     *server.FeedCache
	builder  *engine.FeedBuilder
	origins  []string
}

// New fills the optional collaborators with working defaults.
func New(opts Options) *API {
	a := &API{
		store:    opts.Store,
		verifier: opts.Verifier,
		metrics:  opts.Metrics,
		feed:     opts.Feed,
		builder:  opts.Builder,
		origins:  opts.AllowedOrigins,
	}
	if a.verifier == nil {
		a.verifier = auth.NewVerifier("")
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	if a.feed == nil {
		a.feed = server.NewFeedCache()
	}
	if a.builder == nil {
		a.builder = &engine.FeedBuilder{}
	}
	return a
}

// Feed returns the cache serving the ICS route.
func (a *API) Feed() *server.FeedCache {
	return a.feed
}

// Handler builds the router wrapped in CORS.
func (a *API) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, logRequests, a.metrics.Middleware)

	r.Handle(config.RouteFeed, a.feed).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(config.RouteHealth, a.handleHealth).Methods(http.MethodGet)
	r.Handle(config.RouteMetrics, a.metrics.Handler()).Methods(http.MethodGet)

	protect := a.verifier.RequireBearer(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusUnauthorized, config.CodeUnauthorized, config.HTTPMsgUnauthorized)
	})
	r.Handle(config.RouteSaturdays, protect(http.HandlerFunc(a.handleList))).Methods(http.MethodGet)
	r.Handle(config.RouteSaturdays, protect(http.HandlerFunc(a.handleReplace))).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: a.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{config.HeaderAuthorization, config.HeaderContentType, config.HeaderRequestID},
		ExposedHeaders: []string{config.HeaderRequestID, config.HeaderETag},
	})
	return c.Handler(r)
}

// RebuildFeed renders the stored collection into the feed cache and refreshes the gauge.
func (a *API) RebuildFeed() error {
	records := a.store.All()
	a.metrics.SetRecords(len(records))

	data, events, err := a.builder.Build(records)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrFeedBuild, err)
	}
	a.feed.Update(data, events)
	return nil
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": config.HTTPMsgOK})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, engine.Envelope{AlternateSaturdays: a.store.All()})
}

// replaceRequest distinguishes a missing key from an empty list.
type replaceRequest struct {
	AlternateSaturdays *[]engine.MonthSaturdayRecord `json:"alternateSaturdays"`
}

type replaceResponse struct {
	Message            string                       `json:"message"`
	AlternateSaturdays []engine.MonthSaturdayRecord `json:"alternateSaturdays"`
}

func (a *API) handleReplace(w http.ResponseWriter, r *http.Request) {
	log := slog.With(
		config.LogKeyComponent, config.CompAPI,
		config.LogKeyRequestID, RequestID(r.Context()),
	)

	var req replaceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, config.CodeInvalidJSON, config.HTTPMsgInvalidJSON)
		return
	}
	if req.AlternateSaturdays == nil {
		writeError(w, r, http.StatusUnprocessableEntity, config.CodeValidation, config.ErrRecordsRequired)
		return
	}

	records := *req.AlternateSaturdays
	if err := engine.ValidateRecords(records); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, config.CodeValidation, err.Error())
		return
	}

	stored, err := a.store.ReplaceAll(records)
	if err != nil {
		log.Error(config.ErrStoreWrite, config.LogKeyError, err)
		writeError(w, r, http.StatusInternalServerError, config.CodeInternal, config.HTTPMsgInternalErr)
		return
	}

	if err := a.RebuildFeed(); err != nil {
		log.Error(config.ErrFeedBuild, config.LogKeyError, err)
	}

	writeJSON(w, r, http.StatusOK, replaceResponse{Message: config.HTTPMsgSaved, AlternateSaturdays: stored})
}

// -----------------------------------------------------------------------------
// Responses
// -----------------------------------------------------------------------------

type errorMeta struct {
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Message string    `json:"message"`
	Code    string    `json:"code"`
	Meta    errorMeta `json:"meta"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, errorResponse{
		Message: message,
		Code:    code,
		Meta:    errorMeta{RequestID: RequestID(r.Context())},
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompAPI,
			config.LogKeyRequestID, RequestID(r.Context()),
			config.LogKeyError, err)
	}
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the id attached by the requestID middleware.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestID honours an incoming X-Request-ID when it is a UUID, otherwise mints one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(config.HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(config.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := metrics.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		level := slog.LevelDebug
		if rec.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, config.MsgRequest,
			config.LogKeyComponent, config.CompAPI,
			config.LogKeyRequestID, RequestID(r.Context()),
			config.LogKeyMethod, r.Method,
			config.LogKeyRoute, metrics.RouteName(r),
			config.LogKeyStatus, rec.Status(),
			config.LogKeyRemote, r.RemoteAddr,
			config.LogKeyDuration, time.Since(start).Milliseconds(),
		)
	})
}
