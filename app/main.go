package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jmbouzan/ardora/app/backup"
	"github.com/jmbouzan/ardora/app/events"
	"github.com/jmbouzan/ardora/app/jobs"
	"github.com/jmbouzan/ardora/app/notify"
	"github.com/jmbouzan/ardora/app/store"
	"github.com/jmbouzan/ardora/app/web"
)

var opts struct {
	Listen      string  `short:"l" long:"listen" env:"ARDORA_LISTEN" default:"127.0.0.1:8080" description:"listen address"`
	DB          string  `long:"db" env:"ARDORA_DB" default:"ardora.db" description:"sqlite database file"`
	StrictJobs  bool    `long:"strict-jobs" env:"ARDORA_STRICT_JOBS" description:"reject duplicate jobs of the same user, ardora id and datajob"`
	SecretHash  string  `long:"secret-hash" env:"ARDORA_SECRET_HASH" description:"bcrypt hash of the host shared secret"`
	RateLimit   float64 `long:"rate-limit" env:"ARDORA_RATE_LIMIT" default:"10" description:"write requests per second per client, 0 to disable"`
	MaxRequest  int64   `long:"max-request" env:"ARDORA_MAX_REQUEST" default:"1048576" description:"max request body size"`
	Concurrency int     `long:"observers" env:"ARDORA_OBSERVERS" default:"4" description:"max concurrent event handlers"`
	Dbg         bool    `long:"dbg" env:"ARDORA_DEBUG" description:"debug mode"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" description:"log file name"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of old log files to retain"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max number of days to retain old log files"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"ARDORA_LOG"`

	Notify struct {
		Destinations []string      `long:"dest" env:"DEST" env-delim:"," description:"webhook urls and mailto: destinations for view events"`
		From         string        `long:"from" env:"FROM" description:"email from address"`
		Template     string        `long:"template" env:"TEMPLATE" description:"message template file"`
		Timeout      time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"webhook timeout"`
		QueueSize    int           `long:"queue" env:"QUEUE" default:"100" description:"max pending events"`
		SMTPHost     string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort     int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS      bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut  time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		HostName     string        `long:"host" env:"HOSTNAME" description:"host name running ardora"`
	} `group:"notify" namespace:"notify" env-namespace:"ARDORA_NOTIFY"`

	Repeater struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"how many times to repeat failed delivery"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial duration"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"3" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
	} `group:"repeater" namespace:"repeater" env-namespace:"ARDORA_REPEATER"`

	Backup struct {
		Schedule    string `long:"schedule" env:"SCHEDULE" description:"cron spec of course backups, empty disables"`
		Dir         string `long:"dir" env:"DIR" default:"backups" description:"archives directory"`
		WithJobs    bool   `long:"jobs" env:"JOBS" description:"include jobs into scheduled archives"`
		Concurrency int    `long:"concurrency" env:"CONCURRENCY" default:"2" description:"courses archived in parallel"`
	} `group:"backup" namespace:"backup" env-namespace:"ARDORA_BACKUP"`
}

var revision = "unknown"

func main() {
	fmt.Printf("ardora %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()
}

func run(ctx context.Context) error {
	st, err := store.NewSQLiteStore(opts.DB)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("[WARN] failed to close store: %v", err)
		}
	}()

	handlers := []events.Handler{events.NewAuditLog(log.Default())}
	if svc := makeNotifier(); svc != nil {
		rptr := repeater.New(&strategy.Backoff{Repeats: opts.Repeater.Attempts, Duration: opts.Repeater.Duration,
			Factor: opts.Repeater.Factor, Jitter: opts.Repeater.Jitter})
		notifier := events.NewNotifier(events.NotifierParams{Sender: svc, Repeater: rptr, QueueSize: opts.Notify.QueueSize})
		handlers = append(handlers, notifier)
		go notifier.Run(ctx)
		log.Printf("[INFO] event notifications enabled, %s", svc)
	}

	tracker := jobs.New(st, jobs.Config{
		Observer: events.NewDispatcher(opts.Concurrency, handlers...),
		Strict:   opts.StrictJobs,
	})
	archiver := backup.New(st)

	if opts.Backup.Schedule != "" {
		sched, err := backup.NewScheduler(archiver, backup.SchedulerParams{Spec: opts.Backup.Schedule, Dir: opts.Backup.Dir,
			IncludeJobs: opts.Backup.WithJobs, Concurrency: opts.Backup.Concurrency})
		if err != nil {
			return fmt.Errorf("failed to make backup scheduler: %w", err)
		}
		go sched.Run(ctx)
	}

	srv, err := web.New(web.Config{
		Tracker:        tracker,
		Archiver:       archiver,
		Version:        revision,
		SecretHash:     opts.SecretHash,
		RateLimit:      opts.RateLimit,
		MaxRequestSize: opts.MaxRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to make web server: %w", err)
	}
	return srv.Run(ctx, opts.Listen)
}

// makeNotifier returns nil if no destinations set
func makeNotifier() *notify.Service {
	if len(opts.Notify.Destinations) == 0 {
		return nil
	}
	if opts.Notify.From == "" {
		opts.Notify.From = "ardora@" + makeHostName()
	}
	return notify.NewService(notify.Params{
		Destinations: opts.Notify.Destinations,
		From:         opts.Notify.From,
		Template:     opts.Notify.Template,
		Timeout:      opts.Notify.Timeout,
		SMTP: notify.SMTPParams{
			Host:     opts.Notify.SMTPHost,
			Port:     opts.Notify.SMTPPort,
			TLS:      opts.Notify.SMTPTLS,
			Username: opts.Notify.SMTPUsername,
			Password: opts.Notify.SMTPPassword,
			Timeout:  opts.Notify.SMTPTimeOut,
		},
	})
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// setupLogs sets lgr output to stdout or to the rotated log file and returns the writer
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if opts.Log.Enabled && opts.Log.Filename != "" {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	logOpts := []log.Option{log.Msec, log.LevelBraces, log.Out(out), log.Err(out)}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %s received, shutting down", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
