package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"

	"minitwit/models"
)

const (
	// SessionName is the cookie holding the signed session.
	SessionName = "session-cookie"
	// UserIDKey stores the logged-in user's id as an int64.
	UserIDKey = "user_id"
)

// NewSessionStore returns a cookie store signing sessions with secretKey.
// secure marks the cookie Secure, so browsers only send it over HTTPS.
func NewSessionStore(secretKey string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secretKey))
	store.Options.Path = "/"
	store.Options.Secure = secure
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// ViewerHandlerFunc receives the logged-in user, or nil for anonymous requests.
type ViewerHandlerFunc func(w http.ResponseWriter, r *http.Request, viewer *models.User)

// WithViewer resolves the session's user before calling next.
func (h *Handler) WithViewer(next ViewerHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r, h.viewer(r))
	}
}

func (h *Handler) viewer(r *http.Request) *models.User {
	userID, ok := h.sessionUserID(r)
	if !ok {
		return nil
	}
	users, _, err := h.repos(r)
	if err != nil {
		h.log.WithError(err).Error("Loading viewer")
		return nil
	}
	user, err := users.FindByID(r.Context(), userID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("Loading viewer")
		return nil
	}
	if user == nil {
		h.log.WithField("user_id", userID).Warn("Session refers to a missing user")
	}
	return user
}

// session returns the request's session. A cookie that fails to decode
// yields a fresh session.
func (h *Handler) session(r *http.Request) *sessions.Session {
	session, err := h.sessions.Get(r, SessionName)
	if err != nil {
		h.log.WithError(err).Debug("Discarding invalid session cookie")
	}
	return session
}

func (h *Handler) sessionUserID(r *http.Request) (int64, bool) {
	id, ok := h.session(r).Values[UserIDKey].(int64)
	return id, ok
}

// flash queues msg for the next rendered page. It must run before the
// response header is written.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, msg string) {
	session := h.session(r)
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		h.log.WithError(err).Error("Saving flash message")
	}
}

func (h *Handler) takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	session := h.session(r)
	pending := session.Flashes()
	if len(pending) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		h.log.WithError(err).Error("Clearing flash messages")
	}
	flashes := make([]string, 0, len(pending))
	for _, f := range pending {
		if s, ok := f.(string); ok {
			flashes = append(flashes, s)
		}
	}
	return flashes
}
