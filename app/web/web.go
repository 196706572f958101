// Package web implements the http boundary of the ardora service: the ajax action dispatch used by
// the activity player and the structured rpc used by the host platform.
package web

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/jmbouzan/ardora/app/backup"
	"github.com/jmbouzan/ardora/app/jobs"
	"github.com/jmbouzan/ardora/app/jobs/request"
	"github.com/jmbouzan/ardora/app/store"
)

// Tracker is the job and activity service behind the handlers
type Tracker interface {
	AddJob(ctx context.Context, caller jobs.CallerContext, req request.AddJob) (store.JobRecord, error)
	SaveJob(ctx context.Context, caller jobs.CallerContext, req request.SaveJob) (store.JobRecord, error)
	UpdateJob(ctx context.Context, caller jobs.CallerContext, req request.UpdateJob) (store.JobRecord, error)
	DeleteJob(ctx context.Context, caller jobs.CallerContext, req request.DeleteJob) (int64, error)
	ListJobs(ctx context.Context, caller jobs.CallerContext, f request.Filter) (iter.Seq2[store.JobRecord, error], error)
	ListEvaluations(ctx context.Context, caller jobs.CallerContext, f request.Filter) (iter.Seq2[jobs.Evaluation, error], error)
	GetInfo(ctx context.Context, req request.Info) (iter.Seq2[jobs.Info, error], error)
	AddActivity(ctx context.Context, caller jobs.CallerContext, req request.AddActivity) (store.Activity, error)
	UpdateActivity(ctx context.Context, caller jobs.CallerContext, req request.UpdateActivity) (store.Activity, error)
	DeleteActivity(ctx context.Context, caller jobs.CallerContext, id int64) (int64, error)
	ViewActivity(ctx context.Context, caller jobs.CallerContext, id int64) (jobs.ViewResult, error)
	CourseActivities(ctx context.Context, caller jobs.CallerContext, courseID int64) ([]store.Activity, error)
	ActivitiesByCourses(ctx context.Context, courseIDs []int64) ([]store.Activity, []jobs.Warning, error)
}

// Archiver makes and restores course archives
type Archiver interface {
	Backup(ctx context.Context, courseID int64, opts backup.Options) (backup.Archive, error)
	Restore(ctx context.Context, a backup.Archive, targetCourse int64) ([]int64, error)
}

// Config defines server parameters
type Config struct {
	Tracker        Tracker
	Archiver       Archiver // optional, backup routes answer 404 without it
	Version        string
	SecretHash     string  // bcrypt hash of the host shared secret, empty disables the check
	RateLimit      float64 // requests per second per client on write actions, 0 disables
	MaxRequestSize int64   // max body size, default 1MB
}

// Server is the ardora http server
type Server struct {
	tracker        Tracker
	archiver       Archiver
	version        string
	secretHash     string
	maxRequestSize int64
	limiter        *limiter.Limiter
}

// New makes a server with the given config
func New(cfg Config) (*Server, error) {
	if cfg.Tracker == nil {
		return nil, errors.New("tracker is required")
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("invalid rate limit %v", cfg.RateLimit)
	}
	res := &Server{
		tracker:        cfg.Tracker,
		archiver:       cfg.Archiver,
		version:        cfg.Version,
		secretHash:     cfg.SecretHash,
		maxRequestSize: cfg.MaxRequestSize,
	}
	if res.maxRequestSize <= 0 {
		res.maxRequestSize = 1024 * 1024
	}
	if cfg.RateLimit > 0 {
		res.limiter = tollbooth.NewLimiter(cfg.RateLimit, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
		res.limiter.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
		res.limiter.SetMessage(`{"status":false,"error":"too many requests"}`)
		res.limiter.SetMessageContentType("application/json")
	}
	return res, nil
}

// Run starts the http server and blocks until ctx is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("ardora", "jmbouzan", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(s.maxRequestSize),
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	// host secret must be set before any routes are defined
	if s.secretHash != "" {
		log.Printf("[INFO] host secret check enabled")
		router.Use(s.hostAuth)
	}

	router.With(s.callerMiddleware, s.limit).HandleFunc("POST /ajax", s.handleAjax)

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /schema/archive", s.handleArchiveSchema)

		api.Group().Route(func(b *routegroup.Bundle) {
			b.Use(s.callerMiddleware)
			b.HandleFunc("GET /courses/{id}/ardoras", s.handleCourseActivities)
			b.HandleFunc("GET /courses/{id}/backup", s.handleBackup)
			b.HandleFunc("POST /view_ardora", s.handleViewActivity)
			b.HandleFunc("POST /get_ardoras_by_courses", s.handleActivitiesByCourses)

			b.With(s.limit).HandleFunc("POST /save_job", s.handleSaveJob)
			b.With(s.limit).HandleFunc("POST /update_job", s.handleUpdateJob)
			b.With(s.limit).HandleFunc("POST /add_ardora", s.handleAddActivity)
			b.With(s.limit).HandleFunc("POST /update_ardora", s.handleUpdateActivity)
			b.With(s.limit).HandleFunc("POST /delete_ardora", s.handleDeleteActivity)
			b.With(s.limit).HandleFunc("POST /courses/{id}/restore", s.handleRestore)
		})
	})

	return router
}

// limit applies the per-client rate limiter to write actions when configured
func (s *Server) limit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return tollbooth.HTTPMiddleware(s.limiter)(next)
}
