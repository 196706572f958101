package events

import (
	"context"

	log "github.com/go-pkgz/lgr"
)

// AuditLog writes every event to the log
type AuditLog struct {
	logger log.L
}

// NewAuditLog makes audit handler writing to logger, lgr default logger if nil
func NewAuditLog(logger log.L) *AuditLog {
	if logger == nil {
		logger = log.Default()
	}
	return &AuditLog{logger: logger}
}

// Handle logs the event
func (a *AuditLog) Handle(_ context.Context, ev Event) error {
	a.logger.Logf("[INFO] audit %s at %s", ev, ev.Time.Format("2006-01-02T15:04:05.000Z07:00"))
	return nil
}
