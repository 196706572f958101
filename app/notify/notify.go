// Package notify delivers event messages to webhook and email destinations
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/template"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"

	"github.com/jmbouzan/ardora/app/events"
)

const defaultTemplate = `ardora {{.Type.EventName}} at {{.Time.Format "2006-01-02T15:04:05Z07:00"}}
course: {{.CourseID}}, user: {{.UserID}}{{if .ObjectID}}, activity: {{.ObjectID}} ({{.ArdoraID}}){{end}}
`

// Params configures the notification service
type Params struct {
	Destinations []string      // http(s):// webhook urls and mailto: addresses
	From         string        // sender address for emails
	Template     string        // optional path to a text/template file, falls back to the default one
	Timeout      time.Duration // webhook timeout
	SMTP         SMTPParams
}

// SMTPParams defines email server used by mailto destinations
type SMTPParams struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	Timeout  time.Duration
}

// Service sends messages to all configured destinations
type Service struct {
	destinations []notify.Notifier
	targets      []string
	fromEmail    string
	tmpl         *template.Template
}

// NewService makes the service, returns nil if no destinations set
func NewService(p Params) *Service {
	if len(p.Destinations) == 0 {
		return nil
	}
	res := &Service{targets: p.Destinations, fromEmail: p.From, tmpl: loadTemplate(p.Template)}

	var hasEmail, hasWebhook bool
	for _, d := range p.Destinations {
		switch {
		case strings.HasPrefix(d, "mailto:"):
			hasEmail = true
		case strings.HasPrefix(d, "http://"), strings.HasPrefix(d, "https://"):
			hasWebhook = true
		default:
			log.Printf("[WARN] unsupported notification destination %q", d)
		}
	}
	if hasWebhook {
		res.destinations = append(res.destinations, notify.NewWebhook(notify.WebhookParams{
			Timeout: p.Timeout,
			Headers: []string{"Content-Type:text/plain"},
		}))
	}
	if hasEmail {
		res.destinations = append(res.destinations, notify.NewEmail(notify.SMTPParams{
			Host:     p.SMTP.Host,
			Port:     p.SMTP.Port,
			TLS:      p.SMTP.TLS,
			Username: p.SMTP.Username,
			Password: p.SMTP.Password,
			TimeOut:  p.SMTP.Timeout,
		}))
	}
	return res
}

// Send delivers text to every destination, subject is used by emails only
func (s *Service) Send(ctx context.Context, subj, text string) error {
	var errs []error
	for _, target := range s.targets {
		dest := target
		if strings.HasPrefix(target, "mailto:") {
			dest = s.emailDestination(target, subj)
		}
		if err := notify.Send(ctx, s.destinations, dest, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MakeEventText renders the message for an event
func (s *Service) MakeEventText(ev events.Event) (string, error) {
	buf := bytes.Buffer{}
	if err := s.tmpl.Execute(&buf, ev); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

func (s *Service) String() string {
	return fmt.Sprintf("notify to %s", strings.Join(s.targets, ", "))
}

// emailDestination adds from and subject to mailto url unless already set
func (s *Service) emailDestination(target, subj string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	if q.Get("from") == "" && s.fromEmail != "" {
		q.Set("from", s.fromEmail)
	}
	if q.Get("subject") == "" {
		q.Set("subject", subj)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// loadTemplate reads custom template, the default one is used on any failure
func loadTemplate(fname string) *template.Template {
	def := template.Must(template.New("msg").Parse(defaultTemplate))
	if fname == "" {
		return def
	}
	data, err := os.ReadFile(fname) //nolint:gosec // template path comes from trusted configuration
	if err != nil {
		log.Printf("[WARN] can't read template %s, using default: %v", fname, err)
		return def
	}
	t, err := template.New("msg").Parse(string(data))
	if err != nil {
		log.Printf("[WARN] can't parse template %s, using default: %v", fname, err)
		return def
	}
	return t
}
