package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bustraveller/tracker-core/internal/audit"
	"github.com/bustraveller/tracker-core/internal/auth"
	"github.com/bustraveller/tracker-core/internal/infrastructure/config"
	"github.com/bustraveller/tracker-core/internal/infrastructure/database"
	"github.com/bustraveller/tracker-core/internal/infrastructure/influxdb"
	"github.com/bustraveller/tracker-core/internal/infrastructure/logging"
	"github.com/bustraveller/tracker-core/internal/infrastructure/mqtt"
	"github.com/bustraveller/tracker-core/internal/tracking"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Logger    *logging.Logger
	Auth      *auth.Service
	Tracking  *tracking.Service
	AuditRepo audit.Repository // optional: admin actions are not recorded without it
	DB        *database.DB     // optional: database stats in /metrics
	MQTT      *mqtt.Client     // optional: broker state in /metrics
	InfluxDB  *influxdb.Client // optional: history store state in /metrics
	Version   string
}

// Server is the HTTP API server.
//
// It is created with New, started with Start and stopped with Close.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	auth      *auth.Service
	sessions  auth.SessionStore
	tracking  *tracking.Service
	auditRepo audit.Repository
	auditCh   chan *audit.AuditLog
	db        *database.DB
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	version   string
	startTime time.Time
	server    *http.Server
	cancel    context.CancelFunc // cancels background goroutines on Close()
	drained   chan struct{}
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Tracking == nil {
		return nil, fmt.Errorf("tracking service is required")
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		auth:      deps.Auth,
		sessions:  deps.Auth.Sessions(),
		tracking:  deps.Tracking,
		auditRepo: deps.AuditRepo,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}

	return s, nil
}

// Start begins listening for HTTP connections in a background goroutine and
// starts the audit writer. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditCh != nil {
		s.drained = make(chan struct{})
		go func() {
			defer close(s.drained)
			s.drainAuditLog(srvCtx)
		}()
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// flushes queued audit entries.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	if s.drained != nil {
		<-s.drained
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
