// Package jobs implements the job lifecycle, the job queries and the activity registry on top of a Store.
// Every operation takes the caller context forwarded by the host platform and enforces ownership and
// grading rights itself. Queries return lazy one-shot sequences.
package jobs

import (
	"context"
	"errors"
	"iter"
	"reflect"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/go-playground/validator/v10"

	"github.com/jmbouzan/ardora/app/enums"
	"github.com/jmbouzan/ardora/app/events"
	"github.com/jmbouzan/ardora/app/store"
)

//go:generate moq -out mocks/observer.go -pkg mocks -skip-ensure -fmt goimports . Observer

// Store defines storage operations used by the service
type Store interface {
	InsertJob(ctx context.Context, rec store.JobRecord) (int64, error)
	InsertJobUnique(ctx context.Context, rec store.JobRecord) (int64, error)
	UpdateJob(ctx context.Context, rec store.JobRecord) error
	DeleteJobs(ctx context.Context, c store.Criteria) (int64, error)
	FindJobs(ctx context.Context, f store.JobFilter) iter.Seq2[store.JobRecord, error]
	JobStats(ctx context.Context, typ, ardoraID string) (store.JobStats, error)
	InsertActivity(ctx context.Context, a store.Activity) (int64, error)
	UpdateActivity(ctx context.Context, a store.Activity) error
	DeleteActivity(ctx context.Context, id int64) (int64, error)
	GetActivity(ctx context.Context, id int64) (store.Activity, error)
	ActivitiesByArdoraID(ctx context.Context, ardoraID string) ([]store.Activity, error)
	ActivitiesByCourses(ctx context.Context, courseIDs []int64) ([]store.Activity, error)
}

// Observer receives view/list events after the data fetch succeeded
type Observer interface {
	Notify(ctx context.Context, ev events.Event)
}

// CallerContext is the identity forwarded by the host: user id and roles in the course
type CallerContext struct {
	UserID int64
	Roles  []enums.Role
}

// CanGrade reports whether any of the caller roles holds grading/management rights
func (c CallerContext) CanGrade() bool {
	for _, r := range c.Roles {
		if r.CanGrade() {
			return true
		}
	}
	return false
}

// Config holds service options
type Config struct {
	Observer Observer // optional, receives view/list events
	Strict   bool     // refuse a second job with the same user, ardora id and datajob
}

// Service is the job tracker
type Service struct {
	store    Store
	observer Observer
	strict   bool
}

var validate = newValidator()

// New makes a service on top of the store
func New(st Store, cfg Config) *Service {
	return &Service{store: st, observer: cfg.Observer, strict: cfg.Strict}
}

// fire passes the event to the observer, a panicking observer can't break the action
func (s *Service) fire(ctx context.Context, ev events.Event) {
	if s.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] observer panic on %s: %v", ev, r)
		}
	}()
	s.observer.Notify(ctx, ev)
}

func (s *Service) requireGrader(caller CallerContext, action string) error {
	if !caller.CanGrade() {
		return &AuthorizationError{UserID: caller.UserID, Action: action}
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks struct tags, the first failed field is reported
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		return &ValidationError{Field: fe.Field(), Msg: "failed " + rule}
	}
	return &ValidationError{Field: "request", Msg: err.Error()}
}
