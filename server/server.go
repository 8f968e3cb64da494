// Package server wires the HTTP surface: auth endpoints, the websocket
// upgrade and static assets.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/config"
	"github.com/lixenwraith/pixelden/protocol"
	"github.com/lixenwraith/pixelden/session"
	"github.com/lixenwraith/pixelden/store"
	"github.com/lixenwraith/pixelden/world"
)

// Server hosts the HTTP listener and tracks live sessions for shutdown.
type Server struct {
	cfg      *config.Config
	st       store.Facade
	director *world.Director
	log      *zap.Logger

	upgrader websocket.Upgrader
	httpSrv  *http.Server

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// New builds the server and its routes.
func New(cfg *config.Config, st store.Facade, director *world.Director, log *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		st:       st,
		director: director,
		log:      log.Named("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The game client is served from anywhere during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*session.Session),
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	}

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", zap.String("addr", s.cfg.ListenAddr))
	return s.httpSrv.ListenAndServe()
}

// Shutdown closes the listener and kicks every live session with a
// terminal notice.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	live := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()
	for _, sess := range live {
		sess.Kick("server shutting down")
	}
	return s.httpSrv.Shutdown(ctx)
}

// Dispatch implements session.Router.
func (s *Server) Dispatch(sessionID string, intent protocol.Intent) {
	s.director.Dispatch(sessionID, intent)
}

// Unbind implements session.Router: director unbind plus registry cleanup.
func (s *Server) Unbind(sessionID string) {
	s.director.Unbind(sessionID)
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// handleWS authenticates the bearer token, upgrades, binds and pumps.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := s.st.LookupToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	sess := session.New(uuid.NewString(), userID, conn, s.cfg.SendQueueSize, s, s.log)
	s.mu.Lock()
	s.sessions[sess.SessionID()] = sess
	s.mu.Unlock()

	if err := s.director.Bind(sess); err != nil {
		s.log.Warn("bind failed", zap.String("user", userID), zap.Error(err))
		sess.Kick("could not enter world")
		return
	}
	sess.Run()
}

// logRequests is the zap request logging middleware. Websocket upgrades
// log on connect only; their lifetime is the session's.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}
