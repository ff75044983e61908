// Package agenttest provides an in-memory implementation of the agent
// backend's HTTP contract for tests. It never starts processes or places
// calls; runtime and dispatch state are simulated.
package agenttest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/voicedesk/internal/domain"
)

// Route names accepted by Fail, Hold, Delay and Hits.
const (
	RouteCreate     = "create"
	RouteList       = "list"
	RouteGet        = "get"
	RouteStatus     = "status"
	RouteStart      = "start"
	RouteStop       = "stop"
	RouteDelete     = "delete"
	RouteDeployment = "deployment"
	RouteDispatch   = "dispatch"
	RouteRunning    = "running"
)

type failure struct {
	status int
	body   any
}

type Server struct {
	mu        sync.Mutex
	agents    map[string]*domain.Agent
	seq       map[string]int64
	nextSeq   int64
	processes map[string]int
	nextPID   int

	failures map[string]failure
	holds    map[string]chan struct{}
	delays   map[string]time.Duration
	hits     map[string]int

	now    func() time.Time
	logger *zap.Logger
	router *chi.Mux
}

func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		agents:    make(map[string]*domain.Agent),
		seq:       make(map[string]int64),
		processes: make(map[string]int),
		nextPID:   4000,
		failures:  make(map[string]failure),
		holds:     make(map[string]chan struct{}),
		delays:    make(map[string]time.Duration),
		hits:      make(map[string]int),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
	s.router = s.routes()
	return s
}

// Start serves s on a local listener that is closed when the test ends.
func Start(t testing.TB) (*Server, *httptest.Server) {
	t.Helper()
	s := New(nil)
	srv := httptest.NewServer(s)
	t.Cleanup(func() {
		s.releaseAll()
		srv.Close()
	})
	return s, srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logging(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1/agents", func(r chi.Router) {
		r.With(s.track(RouteCreate)).Post("/", s.createAgent)
		r.With(s.track(RouteList)).Get("/", s.listAgents)
		r.With(s.track(RouteRunning)).Get("/running/list", s.listRunning)
		r.Route("/{id}", func(r chi.Router) {
			r.With(s.track(RouteGet)).Get("/", s.getAgent)
			r.With(s.track(RouteDelete)).Delete("/", s.deleteAgent)
			r.With(s.track(RouteStatus)).Get("/status", s.getStatus)
			r.With(s.track(RouteStart)).Post("/start", s.startAgent)
			r.With(s.track(RouteStop)).Post("/stop", s.stopAgent)
			r.With(s.track(RouteDeployment)).Post("/deployment", s.updateDeployment)
			r.With(s.track(RouteDispatch)).Post("/dispatch", s.dispatchAgent)
		})
	})

	return r
}

// track counts hits per route and applies configured holds, delays and
// forced failures before the handler runs.
func (s *Server) track(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			s.hits[route]++
			hold := s.holds[route]
			delay := s.delays[route]
			s.mu.Unlock()

			if hold != nil {
				select {
				case <-hold:
				case <-r.Context().Done():
					return
				}
			}
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-r.Context().Done():
					return
				}
			}

			s.mu.Lock()
			f, failing := s.failures[route]
			s.mu.Unlock()
			if failing {
				writeJSON(w, f.status, f.body)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Fail makes every request to route answer with status and {"detail": detail}
// until Recover is called.
func (s *Server) Fail(route string, status int, detail string) {
	s.FailWith(route, status, map[string]any{"detail": detail})
}

// FailWith is Fail with an arbitrary JSON body.
func (s *Server) FailWith(route string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold blocks requests to route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.holds[route] == ch {
				delete(s.holds, route)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// Hits returns how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *Server) releaseAll() {
	s.mu.Lock()
	holds := s.holds
	s.holds = make(map[string]chan struct{})
	s.mu.Unlock()
	for _, ch := range holds {
		close(ch)
	}
}
