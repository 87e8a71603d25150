package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrCaptureRunning is returned when a capture is requested while one is in progress
var ErrCaptureRunning = errors.New("capture already running")

// ReportSink receives every finished report. Sinks run in order; the first
// error stops the remaining ones.
type ReportSink func(ctx context.Context, report *Report) error

// Options configures the capture run by each trigger
type Options struct {
	Iterations int
	Interval   time.Duration
}

// Status is the body of GET /status
type Status struct {
	Running   bool       `json:"running"`
	Version   string     `json:"version,omitempty"`
	Endpoint  string     `json:"endpoint,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Last      *Report    `json:"last,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Server triggers background captures over HTTP. One capture runs at a time.
type Server struct {
	sampler *Sampler
	metrics *Metrics
	logger  *zap.Logger
	opts    Options
	sinks   []ReportSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	status Status
}

// NewServer creates a server. Captures run on a context that Shutdown cancels.
func NewServer(sampler *Sampler, metrics *Metrics, logger *zap.Logger, opts Options, sinks ...ReportSink) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		sampler: sampler,
		metrics: metrics,
		logger:  logger,
		opts:    opts,
		sinks:   sinks,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches a capture for version and endpoint in the background
func (s *Server) Start(version, endpoint string) error {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		return ErrCaptureRunning
	}
	now := time.Now()
	s.status.Running = true
	s.status.Version = version
	s.status.Endpoint = endpoint
	s.status.StartedAt = &now
	s.mu.Unlock()

	s.metrics.CaptureStarted()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.capture(version, endpoint, now)
	}()
	return nil
}

func (s *Server) capture(version, endpoint string, started time.Time) {
	report, err := s.run(version, endpoint)
	s.metrics.CaptureFinished(err, time.Since(started))

	s.mu.Lock()
	s.status.Running = false
	s.status.StartedAt = nil
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.Last = report
		s.status.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Capture failed",
			zap.String("version", version),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return
	}
	s.logger.Info(fmt.Sprintf("Wrote results to file for %s and version %s", endpoint, version))
}

func (s *Server) run(version, endpoint string) (*Report, error) {
	agg, err := s.sampler.Capture(s.ctx, s.opts.Iterations, s.opts.Interval, s.metrics.Observe)
	if err != nil {
		return nil, err
	}
	report := agg.Report(version, endpoint)
	for _, sink := range s.sinks {
		if err := sink(s.ctx, report); err != nil {
			return nil, fmt.Errorf("saving report: %w", err)
		}
	}
	return report, nil
}

// Status returns a snapshot of the capture state
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Wait blocks until the running capture, if any, has finished
func (s *Server) Wait() {
	s.wg.Wait()
}

// Shutdown cancels a running capture and waits for it
func (s *Server) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// Router returns the HTTP routes of the monitor
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/start/:version/:endpoint", func(c *gin.Context) {
		version := c.Param("version")
		endpoint := c.Param("endpoint")
		if err := s.Start(version, endpoint); err != nil {
			if errors.Is(err, ErrCaptureRunning) {
				c.String(http.StatusConflict, "Capture already running")
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		s.logger.Info("Capture triggered", zap.String("version", version), zap.String("endpoint", endpoint))
		c.String(http.StatusOK, "Routine triggered!")
	})

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Status())
	})

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
