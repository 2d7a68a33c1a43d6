package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"minitwit/database"
	"minitwit/monitoring"
	"minitwit/repositories"
	"minitwit/views"
)

type Handler struct {
	renderer *views.Renderer
	sessions sessions.Store
	perPage  int
	log      logrus.FieldLogger
	metrics  *monitoring.Metrics
}

func NewHandler(renderer *views.Renderer, store sessions.Store, perPage int, log logrus.FieldLogger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		renderer: renderer,
		sessions: store,
		perPage:  perPage,
		log:      log,
		metrics:  metrics,
	}
}

// repos builds repositories on the request's connection accessor.
func (h *Handler) repos(r *http.Request) (repositories.UserRepository, repositories.MessageRepository, error) {
	accessor, err := database.FromContext(r.Context())
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewUserRepository(accessor), repositories.NewMessageRepository(accessor), nil
}

// render attaches pending flashes to page and writes it with status.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page *views.Page) {
	page.Flashes = h.takeFlashes(w, r)
	if err := h.renderer.Render(w, status, name, page); err != nil {
		h.log.WithError(err).WithField("page", name).Error("Rendering page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
