package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/orgkit-dev/orgkit/pkg/auth"
	"github.com/orgkit-dev/orgkit/pkg/live"
	"github.com/orgkit-dev/orgkit/pkg/org"
)

// DefaultCacheControl is the directive set sent on read responses
// unless overridden with SetCacheControl.
const DefaultCacheControl = "max-age=60, stale-while-revalidate=300"

// Server is the in-memory reference API. It holds the four org
// collections, issues and rotates token pairs, and pushes invalidation
// frames to /live subscribers on every mutation.
type Server struct {
	router chi.Router

	mu      sync.Mutex
	orgs    []org.Organization
	depts   []org.Department
	teams   []org.Team
	members []org.Member
	nextID  int

	access       string
	refresh      string
	tokenSeq     int
	refreshFails bool
	refreshCalls int32

	cacheControl string

	upgrader websocket.Upgrader
	subMu    sync.Mutex
	subs     map[*websocket.Conn]struct{}
}

// New builds a server with empty collections and no issued tokens.
// Mount Handler on an httptest.Server or a real listener.
func New() *Server {
	s := &Server{
		cacheControl: DefaultCacheControl,
		subs:         make(map[*websocket.Conn]struct{}),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Get("/live", s.handleLive)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		mountResource(r, "/organizations", s, &s.orgs, "org",
			func(o org.Organization) string { return o.ID },
			func(o *org.Organization, id string) { o.ID = id })
		mountResource(r, "/departments", s, &s.depts, "dept",
			func(d org.Department) string { return d.ID },
			func(d *org.Department, id string) { d.ID = id })
		mountResource(r, "/teams", s, &s.teams, "team",
			func(t org.Team) string { return t.ID },
			func(t *org.Team, id string) { t.ID = id })
		mountResource(r, "/members", s, &s.members, "member",
			func(m org.Member) string { return m.ID },
			func(m *org.Member, id string) { m.ID = id })
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for the reference API.
func (s *Server) Handler() http.Handler { return s.router }

// IssueTokens mints a fresh token pair and makes it the only valid one.
func (s *Server) IssueTokens() auth.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotateLocked()
}

// ExpireAccess invalidates the current access token without touching
// the refresh token, so the next authenticated request gets a 401 that
// is repairable by refresh.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
}

// SetRefreshFails makes /auth/refresh reject every call when v is true.
func (s *Server) SetRefreshFails(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFails = v
}

// RefreshCalls reports how many times /auth/refresh has been hit.
func (s *Server) RefreshCalls() int {
	return int(atomic.LoadInt32(&s.refreshCalls))
}

// SetCacheControl overrides the Cache-Control header on read responses.
// Empty means no header.
func (s *Server) SetCacheControl(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheControl = v
}

// SeedOrganizations replaces the organization collection.
func (s *Server) SeedOrganizations(items []org.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs = append([]org.Organization(nil), items...)
}

// SeedMembers replaces the member collection.
func (s *Server) SeedMembers(items []org.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append([]org.Member(nil), items...)
}

// Broadcast pushes an invalidation frame for key to every /live
// subscriber.
func (s *Server) Broadcast(key string) {
	msg := live.Message{Type: live.MessageInvalidate, Key: key}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for conn := range s.subs {
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(s.subs, conn)
		}
	}
}

// Close disconnects all live subscribers.
func (s *Server) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for conn := range s.subs {
		conn.Close()
		delete(s.subs, conn)
	}
}

// rotateLocked mints a new pair. Caller holds s.mu.
func (s *Server) rotateLocked() auth.TokenPair {
	s.tokenSeq++
	s.access = fmt.Sprintf("access-%d", s.tokenSeq)
	s.refresh = fmt.Sprintf("refresh-%d", s.tokenSeq)
	return auth.TokenPair{Access: s.access, Refresh: s.refresh}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	s.mu.Lock()
	pair := s.rotateLocked()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.refreshCalls, 1)

	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed refresh request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshFails || s.refresh == "" || body.Refresh != s.refresh {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, s.rotateLocked())
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		valid := s.access != "" && token == s.access
		s.mu.Unlock()

		if !valid {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.subMu.Lock()
	s.subs[conn] = struct{}{}
	s.subMu.Unlock()

	// Drain until the peer disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		s.subMu.Lock()
		delete(s.subs, conn)
		s.subMu.Unlock()
		conn.Close()
	}()
}

// mountResource registers CRUD routes for one collection under prefix.
// Mutations broadcast an invalidation frame keyed by the collection
// path, matching the cache keys clients fetch with.
func mountResource[T any](r chi.Router, prefix string, s *Server, items *[]T, idPrefix string, id func(T) string, setID func(*T, string)) {
	key := prefix

	r.Route(prefix, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			s.mu.Lock()
			out := append([]T(nil), *items...)
			cc := s.cacheControl
			s.mu.Unlock()

			if cc != "" {
				w.Header().Set("Cache-Control", cc)
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var item T
			if err := json.NewDecoder(req.Body).Decode(&item); err != nil {
				writeError(w, http.StatusBadRequest, "malformed request body")
				return
			}

			s.mu.Lock()
			s.nextID++
			// The server never honors client-generated ids.
			setID(&item, fmt.Sprintf("%s-%d", idPrefix, s.nextID))
			*items = append(*items, item)
			s.mu.Unlock()

			s.Broadcast(key)
			writeJSON(w, http.StatusCreated, item)
		})

		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			want := chi.URLParam(req, "id")

			s.mu.Lock()
			cc := s.cacheControl
			for _, it := range *items {
				if id(it) == want {
					s.mu.Unlock()
					if cc != "" {
						w.Header().Set("Cache-Control", cc)
					}
					writeJSON(w, http.StatusOK, it)
					return
				}
			}
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, "not found")
		})

		update := func(w http.ResponseWriter, req *http.Request) {
			want := chi.URLParam(req, "id")

			var item T
			if err := json.NewDecoder(req.Body).Decode(&item); err != nil {
				writeError(w, http.StatusBadRequest, "malformed request body")
				return
			}
			setID(&item, want)

			s.mu.Lock()
			for i, it := range *items {
				if id(it) == want {
					(*items)[i] = item
					s.mu.Unlock()
					s.Broadcast(key)
					writeJSON(w, http.StatusOK, item)
					return
				}
			}
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, "not found")
		}
		r.Put("/{id}", update)
		r.Patch("/{id}", update)

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			want := chi.URLParam(req, "id")

			s.mu.Lock()
			for i, it := range *items {
				if id(it) == want {
					*items = append((*items)[:i], (*items)[i+1:]...)
					s.mu.Unlock()
					s.Broadcast(key)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, "not found")
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
