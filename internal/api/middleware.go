package api

import (
	"context"
	"net/http"

	"github.com/guanw/ReviewMate/internal/storage"
)

type ctxKey int

const userKey ctxKey = 1

func withAuth(s *Server, next http.HandlerFunc, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		s.audit(u.Username, action, r.URL.Path, map[string]any{"method": r.Method})
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

func withAdmin(s *Server, next http.HandlerFunc, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		if !u.IsAdmin() {
			s.audit(u.Username, action+":denied", r.URL.Path, nil)
			s.err(w, http.StatusForbidden, "forbidden")
			return
		}
		s.audit(u.Username, action, r.URL.Path, map[string]any{"method": r.Method})
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

// audit records an action. A failed write does not fail the request but is
// logged so gaps in the trail are visible.
func (s *Server) audit(username, action, resource string, meta map[string]any) {
	if err := s.UserStore.LogAudit(username, action, resource, meta); err != nil {
		s.logger().Warn("audit write failed", "user", username, "action", action, "err", err)
	}
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (storage.User, bool) {
	tok, err := readSessionCookie(r)
	if err != nil {
		s.err(w, http.StatusUnauthorized, "unauthorized")
		return storage.User{}, false
	}
	u, err := s.UserStore.GetSession(tok)
	if err != nil {
		s.err(w, http.StatusUnauthorized, "unauthorized")
		return storage.User{}, false
	}
	return u, true
}

func userFromCtx(ctx context.Context) (storage.User, bool) {
	u, ok := ctx.Value(userKey).(storage.User)
	return u, ok
}
