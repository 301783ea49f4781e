package httpserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

// Config wires the HTTP API to a playback engine and, optionally, a motion
// profile store.
type Config struct {
	Addr      string
	Engine    model.Engine
	Notifier  model.Notifier      // nil disables /api/stream
	Evaluator *deploy.Engine      // nil uses the canonical engine
	Store     model.ProfileReader // nil disables the profile endpoints
	Logger    zerolog.Logger
}

// Server provides an HTTP API for controlling and observing playback.
type Server struct {
	addr      string
	engine    model.Engine
	notifier  model.Notifier
	evaluator *deploy.Engine
	store     model.ProfileReader
	log       zerolog.Logger
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:3000"
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = deploy.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      cfg.Addr,
		engine:    cfg.Engine,
		notifier:  cfg.Notifier,
		evaluator: cfg.Evaluator,
		store:     cfg.Store,
		log:       cfg.Logger,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/state", s.handleState)
	api.GET("/evaluate", s.handleEvaluate)
	api.GET("/timeline", s.handleTimeline)
	api.GET("/schedule", s.handleSchedule)
	api.GET("/stream", s.handleStream)

	pb := api.Group("/playback")
	pb.POST("/play", s.command(func() error { return s.engine.Play() }))
	pb.POST("/pause", s.command(func() error { return s.engine.Pause() }))
	pb.POST("/reset", s.command(func() error { return s.engine.Reset() }))
	pb.POST("/seek", s.handleSeek)
	pb.POST("/step", s.handleStep)
	pb.POST("/speed", s.handleSpeed)
	pb.POST("/jump", s.handleJump)

	api.GET("/profile", s.handleProfile)
	api.GET("/schema", s.handleSchema)
	api.POST("/query", s.handleQuery)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.router(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("http: serve")
		}
	}()
	s.log.Info().Str("addr", listener.Addr().String()).Msg("http api listening")
	return nil
}

// Stop gracefully shuts down the HTTP server. Open streams end when the
// base context is cancelled.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read playback state"})
		return
	}
	body := gin.H{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).String(),
		"run_state": snap.Playback.RunState,
		"progress":  snap.Playback.OverallProgress,
	}
	if s.store != nil {
		if counts, err := s.store.TableRowCounts(); err == nil {
			body["profile_rows"] = counts["motion_profile"]
		}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleState(c *gin.Context) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func parseProgress(raw string) (float64, error) {
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("progress must be a number, got %q", raw)
	}
	return p, nil
}

func (s *Server) handleEvaluate(c *gin.Context) {
	raw, ok := c.GetQuery("progress")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing progress query parameter"})
		return
	}
	p, err := parseProgress(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := s.evaluator.Evaluate(p)
	idx := s.evaluator.EventIndex(p)
	c.JSON(http.StatusOK, gin.H{
		"progress":    st.OverallProgress,
		"state":       st,
		"event_index": idx,
		"event":       s.evaluator.EventAt(p),
		"fractions":   s.evaluator.Fractions(p),
		"active":      s.evaluator.ActiveSubsystems(p),
	})
}

func (s *Server) handleTimeline(c *gin.Context) {
	tl, err := s.engine.Timeline()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	milestones := make([]float64, len(tl))
	for i := range tl {
		milestones[i] = deploy.MilestoneProgress(i, len(tl))
	}
	c.JSON(http.StatusOK, gin.H{
		"events":     tl,
		"milestones": milestones,
	})
}

func (s *Server) handleSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, s.evaluator.Schedule())
}

// command wraps a body-less playback command and answers with the new
// snapshot.
func (s *Server) command(fn func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respond(c, fn())
	}
}

func (s *Server) respond(c *gin.Context, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.handleState(c)
}

func (s *Server) handleSeek(c *gin.Context) {
	var req struct {
		Progress *float64 `json:"progress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing progress field"})
		return
	}
	s.respond(c, s.engine.Seek(*req.Progress))
}

func (s *Server) handleStep(c *gin.Context) {
	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing direction field"})
		return
	}
	dir, err := model.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, s.engine.Step(dir))
}

func (s *Server) handleSpeed(c *gin.Context) {
	var req struct {
		Multiplier *float64 `json:"multiplier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing multiplier field"})
		return
	}
	s.respond(c, s.engine.SetSpeed(*req.Multiplier))
}

func (s *Server) handleJump(c *gin.Context) {
	var req struct {
		Index *int `json:"index" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing index field"})
		return
	}
	s.respond(c, s.engine.JumpToEvent(*req.Index))
}

// handleStream sends one snapshot event on connect and one per change
// notification until the client disconnects or the server stops.
func (s *Server) handleStream(c *gin.Context) {
	if s.notifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "streaming not available"})
		return
	}
	sub, cancel := s.notifier.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	first := true
	c.Stream(func(w io.Writer) bool {
		if !first {
			select {
			case <-ctx.Done():
				return false
			case _, ok := <-sub:
				if !ok {
					return false
				}
			}
		}
		first = false

		snap, err := s.engine.Snapshot()
		if err != nil {
			c.SSEvent("error", gin.H{"error": err.Error()})
			return false
		}
		c.SSEvent("snapshot", snap)
		return true
	})
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "profile store not configured"})
		return false
	}
	return true
}

func (s *Server) handleProfile(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	from, to := 0.0, 1.0
	var err error
	if raw, ok := c.GetQuery("from"); ok {
		if from, err = parseProgress(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if raw, ok := c.GetQuery("to"); ok {
		if to, err = parseProgress(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	limit := 200
	if raw, ok := c.GetQuery("limit"); ok {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
	}

	samples, err := s.store.ProfileRange(from, to, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read motion profile"})
		return
	}
	milestones, err := s.store.Milestones()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read milestones"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"samples":    samples,
		"count":      len(samples),
		"milestones": milestones,
	})
}

func (s *Server) handleSchema(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	tables, err := s.store.ExecuteQuery(
		"SELECT table_name, column_name, data_type FROM information_schema.columns WHERE table_schema = 'main' ORDER BY table_name, ordinal_position",
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read schema metadata"})
		return
	}

	schema := make(map[string][]map[string]string)
	for _, row := range tables {
		tableName := fmt.Sprintf("%v", row["table_name"])
		schema[tableName] = append(schema[tableName], map[string]string{
			"column": fmt.Sprintf("%v", row["column_name"]),
			"type":   fmt.Sprintf("%v", row["data_type"]),
		})
	}

	counts, err := s.store.TableRowCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read table row counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"description": s.store.GetSchemaDescription(),
		"tables":      schema,
		"row_counts":  counts,
	})
}

func (s *Server) handleQuery(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	var req struct {
		SQL string `json:"sql" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing sql field"})
		return
	}

	results, err := s.store.ExecuteQuery(req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var columns []string
	if len(results) > 0 {
		for col := range results[0] {
			columns = append(columns, col)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":   columns,
		"rows":      results,
		"row_count": len(results),
	})
}
