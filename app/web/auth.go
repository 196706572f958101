package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmbouzan/ardora/app/enums"
	"github.com/jmbouzan/ardora/app/jobs"
)

const (
	headerUser  = "X-Ardora-User"
	headerRoles = "X-Ardora-Roles"
	hostUser    = "ardora"
)

type callerKey struct{}

// hostAuth checks basic auth of the host platform against the bcrypt hash of the shared secret
func (s *Server) hostAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if ok && username == hostUser {
			if err := bcrypt.CompareHashAndPassword([]byte(s.secretHash), []byte(password)); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="ardora"`)
		s.writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	})
}

// callerMiddleware extracts the caller identity forwarded by the host and puts it to request context
func (s *Server) callerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := parseCaller(r)
		if err != nil {
			log.Printf("[DEBUG] rejected caller from %s: %v", r.RemoteAddr, err)
			s.writeJSONError(w, http.StatusUnauthorized, "caller user id is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

// parseCaller reads user id and roles headers, unknown roles are skipped
func parseCaller(r *http.Request) (jobs.CallerContext, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(headerUser)), 10, 64)
	if err != nil {
		return jobs.CallerContext{}, err
	}
	if userID <= 0 {
		return jobs.CallerContext{}, strconv.ErrRange
	}
	res := jobs.CallerContext{UserID: userID}
	for _, v := range strings.Split(r.Header.Get(headerRoles), ",") {
		if strings.TrimSpace(v) == "" {
			continue
		}
		role, err := enums.RoleFromHost(v)
		if err != nil {
			log.Printf("[DEBUG] skip role %q of user %d: %v", v, userID, err)
			continue
		}
		res.Roles = append(res.Roles, role)
	}
	return res, nil
}

// callerFrom returns the caller set by callerMiddleware
func callerFrom(ctx context.Context) jobs.CallerContext {
	c, _ := ctx.Value(callerKey{}).(jobs.CallerContext)
	return c
}
