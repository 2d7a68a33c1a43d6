package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"minitwit/dto"
	"minitwit/models"
	"minitwit/views"
)

// Timeline shows the viewer's messages and those of the users they follow.
// Anonymous visitors are sent to the public timeline.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request, viewer *models.User) {
	if viewer == nil {
		http.Redirect(w, r, "/public", http.StatusFound)
		return
	}
	_, messageRepo, err := h.repos(r)
	if err != nil {
		h.serverError(w, r, err, "Loading timeline")
		return
	}
	messages, err := messageRepo.PersonalTimeline(r.Context(), viewer.UserID, h.perPage)
	if err != nil {
		h.serverError(w, r, err, "Loading timeline")
		return
	}
	h.render(w, r, http.StatusOK, views.TimelinePage, &views.Page{
		Title:    "My Timeline",
		Endpoint: views.EndpointTimeline,
		User:     viewer,
		Messages: messages,
	})
}

func (h *Handler) PublicTimeline(w http.ResponseWriter, r *http.Request, viewer *models.User) {
	_, messageRepo, err := h.repos(r)
	if err != nil {
		h.serverError(w, r, err, "Loading public timeline")
		return
	}
	messages, err := messageRepo.PublicTimeline(r.Context(), h.perPage)
	if err != nil {
		h.serverError(w, r, err, "Loading public timeline")
		return
	}
	h.render(w, r, http.StatusOK, views.TimelinePage, &views.Page{
		Title:    "Public Timeline",
		Endpoint: views.EndpointPublicTimeline,
		User:     viewer,
		Messages: messages,
	})
}

// UserTimeline shows one author's messages and whether the viewer follows them.
func (h *Handler) UserTimeline(w http.ResponseWriter, r *http.Request, viewer *models.User) {
	username := mux.Vars(r)["username"]

	userRepo, messageRepo, err := h.repos(r)
	if err != nil {
		h.serverError(w, r, err, "Loading user timeline")
		return
	}
	profile, err := userRepo.FindByUsername(r.Context(), username)
	if err != nil {
		h.serverError(w, r, err, "Loading user timeline")
		return
	}
	if profile == nil {
		http.NotFound(w, r)
		return
	}

	followed := false
	if viewer != nil {
		followed, err = userRepo.IsFollowing(r.Context(), viewer.UserID, profile.UserID)
		if err != nil {
			h.serverError(w, r, err, "Loading follow state")
			return
		}
	}

	messages, err := messageRepo.UserTimeline(r.Context(), profile.UserID, h.perPage)
	if err != nil {
		h.serverError(w, r, err, "Loading user timeline")
		return
	}
	h.render(w, r, http.StatusOK, views.TimelinePage, &views.Page{
		Title:       profile.Username + "'s Timeline",
		Endpoint:    views.EndpointUserTimeline,
		User:        viewer,
		Messages:    messages,
		ProfileUser: profile,
		Followed:    followed,
	})
}

// AddMessage records a message for the session's user. Empty text is
// accepted but not stored.
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	authorID, ok := h.sessionUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	form := dto.ParseMessageForm(r)
	if form.Text != "" {
		_, messageRepo, err := h.repos(r)
		if err != nil {
			h.serverError(w, r, err, "Adding message")
			return
		}
		message := &models.Message{
			AuthorID: authorID,
			Text:     form.Text,
			PubDate:  time.Now().Unix(),
		}
		if err := messageRepo.Create(r.Context(), message); err != nil {
			h.serverError(w, r, err, "Adding message")
			return
		}
		h.metrics.MessagesPosted.Inc()
		h.log.WithField("author_id", authorID).Info("Message recorded")
		h.flash(w, r, "Your message was recorded")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
