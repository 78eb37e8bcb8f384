// Package remote exposes running story players over HTTP: listing sessions,
// sending playback commands and streaming snapshots over a websocket.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storyview/internal/controller"
	"storyview/internal/deck"
	"storyview/internal/playback"
)

type contextKey string

const contextKeySubject contextKey = "subject"

// Player is a running story that can be steered remotely.
type Player interface {
	Name() string
	Deck() *deck.Deck
	Controller() *controller.Controller
	Snapshot() playback.Snapshot
	Watch(f func(playback.Snapshot)) (cancel func())
}

// Config configures a Server.
type Config struct {
	JWTSecret string // empty disables auth
	Logger    func(string)
}

// SessionInfo describes one registered player.
type SessionInfo struct {
	ID       string            `json:"id"`
	Name     string            `json:"name,omitempty"`
	Title    string            `json:"title"`
	Started  time.Time         `json:"started"`
	Snapshot playback.Snapshot `json:"snapshot"`
}

// CommandMessage is what stream clients send to steer playback.
type CommandMessage struct {
	Command string `json:"command"`
}

type session struct {
	id      string
	player  Player
	started time.Time
}

// Server holds the registered sessions and serves the HTTP API.
type Server struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewServer creates a server with no sessions.
func NewServer(cfg Config) *Server {
	return &Server{cfg: cfg, sessions: make(map[string]*session)}
}

func (s *Server) logMessage(format string, args ...interface{}) {
	if s.cfg.Logger != nil {
		s.cfg.Logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Register adds a player and returns its session ID.
func (s *Server) Register(p Player) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{id: id, player: p, started: time.Now().UTC()}
	s.mu.Unlock()
	s.logMessage("Remote session %s: %q", id, p.Deck().Title)
	return id
}

// Unregister removes a session. Open streams for it end.
func (s *Server) Unregister(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (sess *session) info() SessionInfo {
	return SessionInfo{
		ID:       sess.id,
		Name:     sess.player.Name(),
		Title:    sess.player.Deck().Title,
		Started:  sess.started,
		Snapshot: sess.player.Snapshot(),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logAdapter{s}, NoColor: true}))

	r.Get("/health", s.handleHealth)

	r.Group(func(protected chi.Router) {
		if s.cfg.JWTSecret != "" {
			protected.Use(s.requireToken)
		}
		protected.Get("/sessions", s.handleListSessions)
		protected.Get("/sessions/{id}", s.handleGetSession)
		protected.Post("/sessions/{id}/commands/{command}", s.handleCommand)
		protected.Get("/sessions/{id}/stream", s.handleStream)
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logMessage("Remote control listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": n,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		infos = append(infos, sess.info())
	}
	s.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].Started.Equal(infos[j].Started) {
			return infos[i].Started.Before(infos[j].Started)
		}
		return infos[i].ID < infos[j].ID
	})
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.info())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	cmd, err := controller.ParseCommand(chi.URLParam(r, "command"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.player.Controller().Emit(cmd)
	writeJSON(w, http.StatusAccepted, map[string]string{"command": cmd.String()})
}

// handleStream sends the current snapshot, then every published one. Clients
// may send CommandMessage frames to steer playback.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logMessage("Stream %s: accept failed: %v", id, err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates := make(chan playback.Snapshot, 16)
	stop := sess.player.Watch(func(snap playback.Snapshot) {
		select {
		case updates <- snap:
		default:
			// Slow client: drop the oldest pending snapshot.
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- snap:
			default:
			}
		}
	})
	defer stop()

	go func() {
		defer cancel()
		for {
			var msg CommandMessage
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				return
			}
			cmd, err := controller.ParseCommand(msg.Command)
			if err != nil {
				s.logMessage("Stream %s: %v", id, err)
				continue
			}
			sess.player.Controller().Emit(cmd)
		}
	}()

	if err := wsjson.Write(ctx, conn, sess.player.Snapshot()); err != nil {
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap := <-updates:
			if err := wsjson.Write(ctx, conn, snap); err != nil {
				return
			}
		case <-ticker.C:
			if _, ok := s.session(id); !ok {
				conn.Close(websocket.StatusGoingAway, "session ended")
				return
			}
		}
	}
}

// IssueToken signs an HS256 token for subject valid for ttl.
func IssueToken(secret, subject string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			// Browsers cannot set headers on websocket upgrades.
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		sub, _ := claims["sub"].(string)
		ctx := context.WithValue(r.Context(), contextKeySubject, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// logAdapter feeds chi's request logger into the server logger.
type logAdapter struct{ s *Server }

func (l logAdapter) Print(v ...interface{}) {
	l.s.logMessage("%s", strings.TrimSpace(fmt.Sprint(v...)))
}
