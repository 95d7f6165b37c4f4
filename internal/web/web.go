// Package web serves the planner over HTTP: a JSON API for the month grid,
// day agenda, tasks and journal, an ICS export, and a server-rendered month
// page that the capture command screenshots.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"daybook/internal/config"
	"daybook/internal/dateutil"
	appLog "daybook/internal/log"
	"daybook/internal/planner"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Server provides the HTTP API in front of a planner.
type Server struct {
	cfg     *config.Config
	planner *planner.Planner
	mux     *http.ServeMux

	// Month responses are cached until the planner reports a change or the
	// current day rolls over.
	monthMu    sync.RWMutex
	monthCache *monthCache
	monthGen   uint64 // bumped on every drop

	unsubscribe func()
}

// monthCache holds built month responses for one "today".
type monthCache struct {
	today   string
	entries map[string]monthResponse
}

// NewServer constructs a Server and subscribes it to planner changes.
// Call Close to unsubscribe.
func NewServer(cfg *config.Config, p *planner.Planner) *Server {
	s := &Server{
		cfg:     cfg,
		planner: p,
		mux:     http.NewServeMux(),
	}
	s.unsubscribe = p.Subscribe(func(c planner.Change) {
		if c.Kind == planner.ChangeTasks {
			s.dropMonthCache()
		}
	})
	s.registerRoutes()
	return s
}

// Close detaches the server from the planner.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials leave the server open.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="daybook", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Start serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("POST /api/tasks", s.handleSubmitTask)
	s.mux.HandleFunc("DELETE /api/tasks", s.handleDeleteTask)
	s.mux.HandleFunc("GET /api/recurring", s.handleRecurring)
	s.mux.HandleFunc("DELETE /api/recurring", s.handleDeleteRecurring)
	s.mux.HandleFunc("GET /api/journal", s.handleJournal)
	s.mux.HandleFunc("PUT /api/journal", s.handleSetJournal)

	s.mux.HandleFunc("GET /calendar.ics", s.handleExport)
	s.mux.HandleFunc("GET /calendar", s.handleCalendarPage)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// month returns the cached response for year/month (1-based), building it on
// a miss.
func (s *Server) month(year, month int) monthResponse {
	today := dateutil.DateKeyOf(s.planner.Now())
	key := fmt.Sprintf("%04d-%02d", year, month)

	s.monthMu.RLock()
	gen := s.monthGen
	if mc := s.monthCache; mc != nil && mc.today == today {
		if resp, ok := mc.entries[key]; ok {
			s.monthMu.RUnlock()
			return resp
		}
	}
	s.monthMu.RUnlock()

	resp := buildMonthResponse(s.planner, year, month)
	s.storeMonth(gen, today, key, resp)
	return resp
}

// storeMonth caches resp unless the cache was dropped after gen was read;
// a response built before a change must not outlive it.
func (s *Server) storeMonth(gen uint64, today, key string, resp monthResponse) bool {
	s.monthMu.Lock()
	defer s.monthMu.Unlock()
	if s.monthGen != gen {
		return false
	}
	if s.monthCache == nil || s.monthCache.today != today {
		s.monthCache = &monthCache{today: today, entries: map[string]monthResponse{}}
	}
	s.monthCache.entries[key] = resp
	return true
}

func (s *Server) dropMonthCache() {
	s.monthMu.Lock()
	s.monthCache = nil
	s.monthGen++
	s.monthMu.Unlock()
}

// yearMonthParams reads ?year=&month= (1..12), defaulting to the planner's
// current month.
func (s *Server) yearMonthParams(r *http.Request) (int, int, error) {
	now := s.planner.Now()
	q := r.URL.Query()

	year, err := parseIntParam(q.Get("year"), now.Year())
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, errors.New("year must be between 1 and 9999")
	}
	month, err := parseIntParam(q.Get("month"), int(now.Month()))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errors.New("month must be between 1 and 12")
	}
	return year, month, nil
}

func parseIntParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
