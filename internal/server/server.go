package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/gravitas-games/mazenav/internal/config"
	"github.com/gravitas-games/mazenav/internal/mazemap"
	"github.com/gravitas-games/mazenav/internal/navigation"
	"github.com/gravitas-games/mazenav/internal/network"
	"github.com/gravitas-games/mazenav/internal/pathcache"
	"github.com/gravitas-games/mazenav/pkg/grid"
	"github.com/gravitas-games/mazenav/pkg/models"
	"github.com/zyedidia/generic/mapset"
)

// maxRequestBody caps POST /api/path bodies
const maxRequestBody = 8192

// Server serves path requests over HTTP and WebSocket
type Server struct {
	config       *config.Config
	nav          *navigation.Service
	session      *Session
	upgrader     websocket.Upgrader
	httpSrv      *http.Server
	jwtValidator *JWTValidator // nil when auth is disabled
	redis        *redis.Client // nil when running without Redis
	logger       *log.Logger

	// Connection tracking
	connections mapset.Set[*Connection]
	connMu      sync.Mutex

	// Shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new server instance from configuration
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	logger.Info("Initializing server...")

	ctx, cancel := context.WithCancel(context.Background())

	var (
		redisClient *redis.Client
		cache       pathcache.Cache
	)
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cache = pathcache.NewRedisCache(redisClient, cfg.Redis.PathPrefix, cfg.Redis.PathTTL())
		logger.Info("Connected to Redis", "address", cfg.Redis.Address)
	} else {
		cache = pathcache.NewMemoryCache(cfg.Search.MemoryCacheSize)
		logger.Warn("No Redis configured, caching paths in memory", "size", cfg.Search.MemoryCacheSize)
	}

	registry := mazemap.NewRegistry(logger)
	if err := registry.LoadDir(cfg.Mazes.Dir); err != nil {
		cancel()
		return nil, err
	}

	nav := navigation.NewService(registry, cache, navigation.Options{
		Timeout:       cfg.Search.Timeout(),
		MaxTraceSteps: cfg.Search.MaxTraceSteps,
	}, logger)

	var validator *JWTValidator
	if cfg.JWT.Disabled {
		logger.Warn("JWT authentication disabled")
	} else {
		var blacklist Blacklist
		if redisClient != nil {
			blacklist = NewRedisBlacklist(redisClient, cfg.Redis.BlacklistPrefix)
		}
		var err error
		validator, err = NewJWTValidator(ctx, cfg.JWT, blacklist, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize JWT validator: %w", err)
		}
	}

	srv := newServer(ctx, cancel, cfg, nav, validator, logger)
	srv.redis = redisClient

	logger.Info("Server initialized successfully")
	return srv, nil
}

func newServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, nav *navigation.Service, validator *JWTValidator, logger *log.Logger) *Server {
	return &Server{
		config:       cfg,
		nav:          nav,
		session:      NewSession(logger),
		jwtValidator: validator,
		logger:       logger,
		connections:  mapset.New[*Connection](),
		ctx:          ctx,
		cancel:       cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Echoed back to browsers that send the token as a subprotocol
			Subprotocols: []string{"access_token"},
			// Clients are game frontends on other origins; the token is the gate
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/mazes", s.handleMazes)
	mux.HandleFunc("/api/path", s.handlePath)
	return mux
}

// Start begins listening for connections
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Listening", "ws", fmt.Sprintf("ws://%s/ws", addr), "health", fmt.Sprintf("http://%s/health", addr))

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server...")

	// Cancel context to signal shutdown
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
	}

	// Close all WebSocket connections
	s.connMu.Lock()
	open := make([]*Connection, 0, s.connections.Size())
	s.connections.Each(func(c *Connection) { open = append(open, c) })
	s.connMu.Unlock()
	for _, conn := range open {
		conn.Close()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Redis close error", "error", err)
		}
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

// authenticate resolves the user of a request
func (s *Server) authenticate(r *http.Request) (*models.User, error) {
	if s.jwtValidator == nil {
		return models.Anonymous(), nil
	}
	tokenString := extractToken(r)
	if tokenString == "" {
		return nil, errors.New("missing authentication token")
	}
	return s.jwtValidator.ValidateToken(r.Context(), tokenString)
}

// handleWebSocket handles WebSocket connection requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		s.logger.Warn("Rejected WebSocket connection", "remote", r.RemoteAddr, "error", err)
		http.Error(w, fmt.Sprintf("Unauthorized: %v", err), http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := NewConnection(ws, s, user)

	s.connMu.Lock()
	s.connections.Put(conn)
	s.connMu.Unlock()
	s.session.AddUser(conn.id, user)

	s.logger.Info("WebSocket connection established", "user", user.Username, "remote", r.RemoteAddr, "conn", conn.id)

	conn.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			UserID:        user.ID,
			Username:      user.Username,
			SessionID:     s.session.ID,
			SessionStatus: s.session.Status(s.nav.MazeCount()),
		},
	})

	// Handle connection (blocking)
	conn.Handle()

	s.connMu.Lock()
	s.connections.Remove(conn)
	s.connMu.Unlock()
	s.session.RemoveUser(conn.id)

	s.logger.Info("WebSocket connection closed", "user", user.Username, "remote", r.RemoteAddr, "conn", conn.id)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"mazes":           s.nav.MazeCount(),
		"connected_users": s.session.UserCount(),
	})
}

// handleMazes lists the loaded mazes
func (s *Server) handleMazes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.authenticate(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, network.ErrorPayload{Code: "unauthorized", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.mazeList())
}

// handlePath answers a single path request
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, err := s.authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, network.ErrorPayload{Code: "unauthorized", Message: err.Error()})
		return
	}

	var req network.PathPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, network.ErrorPayload{Code: network.ErrCodeInvalidMessage, Message: "invalid path request"})
		return
	}

	result, err := s.findPath(r.Context(), user, req)
	if err != nil {
		code, status := classify(err)
		writeJSON(w, status, network.ErrorPayload{Ref: req.Ref, Code: code, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// findPath runs a path request for user and converts the response
func (s *Server) findPath(ctx context.Context, user *models.User, req network.PathPayload) (network.PathResultPayload, error) {
	resp, err := s.nav.FindPath(ctx, navigation.Request{MazeID: req.Maze, Start: req.Start, Goal: req.Goal})
	if err != nil {
		s.logger.Debug("Path request failed", "user", user.Username, "maze", req.Maze, "error", err)
		return network.PathResultPayload{}, err
	}
	return network.PathResultPayload{
		Ref:       req.Ref,
		RequestID: resp.RequestID,
		Maze:      resp.MazeID,
		Found:     resp.Found,
		Path:      resp.Path,
		Moves:     resp.Moves,
		Expanded:  resp.Expanded,
		Cached:    resp.Cached,
		ElapsedUs: resp.Elapsed.Microseconds(),
	}, nil
}

func (s *Server) mazeList() network.MazeListPayload {
	mazes := s.nav.Mazes()
	out := network.MazeListPayload{Mazes: make([]network.MazeInfo, 0, len(mazes))}
	for _, m := range mazes {
		out.Mazes = append(out.Mazes, network.MazeInfo{ID: m.ID, Name: m.Name, Width: m.Width, Height: m.Height})
	}
	return out
}

// classify maps service errors onto wire error codes and HTTP statuses.
// Out-of-bounds is a caller error; an unreachable goal never gets here.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, navigation.ErrUnknownMaze):
		return network.ErrCodeUnknownMaze, http.StatusNotFound
	case errors.Is(err, grid.ErrOutOfBounds):
		return network.ErrCodeOutOfBounds, http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return network.ErrCodeSearchTimeout, http.StatusGatewayTimeout
	default:
		return network.ErrCodeInternal, http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
