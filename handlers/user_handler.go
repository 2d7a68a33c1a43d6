package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"minitwit/dto"
	"minitwit/models"
	"minitwit/monitoring"
	"minitwit/repositories"
	"minitwit/views"
)

// Follow action labels.
const (
	actionFollow   = "follow"
	actionUnfollow = "unfollow"
)

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request, viewer *models.User) {
	h.changeFollow(w, r, viewer, actionFollow)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request, viewer *models.User) {
	h.changeFollow(w, r, viewer, actionUnfollow)
}

func (h *Handler) changeFollow(w http.ResponseWriter, r *http.Request, viewer *models.User, action string) {
	if viewer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username := mux.Vars(r)["username"]

	userRepo, _, err := h.repos(r)
	if err != nil {
		h.serverError(w, r, err, "Changing follow")
		return
	}
	whom, err := userRepo.FindByUsername(r.Context(), username)
	if err != nil {
		h.serverError(w, r, err, "Changing follow")
		return
	}
	if whom == nil {
		http.NotFound(w, r)
		return
	}

	var msg string
	if action == actionFollow {
		err = userRepo.Follow(r.Context(), viewer.UserID, whom.UserID)
		msg = `You are now following "` + whom.Username + `"`
	} else {
		err = userRepo.Unfollow(r.Context(), viewer.UserID, whom.UserID)
		msg = `You are no longer following "` + whom.Username + `"`
	}
	if err != nil {
		h.serverError(w, r, err, "Changing follow")
		return
	}

	h.metrics.Follows.WithLabelValues(action).Inc()
	h.flash(w, r, msg)
	http.Redirect(w, r, "/"+url.PathEscape(whom.Username), http.StatusFound)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, viewer *models.User) {
	if viewer != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	page := &views.Page{Title: "Sign In"}
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, views.LoginPage, page)
		return
	}

	form := dto.ParseLoginForm(r)
	page.Form.Username = form.Username

	userRepo, _, err := h.repos(r)
	if err != nil {
		h.serverError(w, r, err, "Logging in")
		return
	}
	user, err := userRepo.FindByUsername(r.Context(), form.Username)
	if err != nil {
		h.serverError(w, r, err, "Logging in")
		return
	}

	switch {
	case user == nil:
		h.metrics.LoginFailure.WithLabelValues(monitoring.ReasonInvalidUsername).Inc()
		page.Error = dto.ErrInvalidUsername
	case bcrypt.CompareHashAndPassword([]byte(user.PwHash), []byte(form.Password)) != nil:
		h.metrics.LoginFailure.WithLabelValues(monitoring.ReasonInvalidPassword).Inc()
		page.Error = dto.ErrInvalidPassword
	}
	if page.Error != "" {
		h.render(w, r, http.StatusOK, views.LoginPage, page)
		return
	}

	session := h.session(r)
	session.Values[UserIDKey] = user.UserID
	session.AddFlash("You were logged in")
	if err := session.Save(r, w); err != nil {
		h.serverError(w, r, err, "Saving session")
		return
	}
	h.metrics.LoginSuccess.Inc()
	h.log.WithField("username", user.Username).Info("User logged in")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, viewer *models.User) {
	if viewer != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	page := &views.Page{Title: "Sign Up"}
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, views.RegisterPage, page)
		return
	}

	form := dto.ParseRegisterForm(r)
	page.Form = views.FormValues{Username: form.Username, Email: form.Email}

	if page.Error = form.Validate(); page.Error != "" {
		h.metrics.RegisterFailure.WithLabelValues(monitoring.ReasonValidation).Inc()
		h.render(w, r, http.StatusOK, views.RegisterPage, page)
		return
	}

	userRepo, _, err := h.repos(r)
	if err != nil {
		h.serverError(w, r, err, "Registering user")
		return
	}
	exists, err := userRepo.Exists(r.Context(), form.Username)
	if err != nil {
		h.serverError(w, r, err, "Registering user")
		return
	}
	if exists {
		h.usernameTaken(w, r, page)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(w, r, err, "Hashing password")
		return
	}
	err = userRepo.Create(r.Context(), &models.User{
		Username: form.Username,
		Email:    form.Email,
		PwHash:   string(hash),
	})
	if errors.Is(err, repositories.ErrUsernameTaken) {
		h.usernameTaken(w, r, page)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "Registering user")
		return
	}

	h.metrics.RegisterSuccess.Inc()
	h.log.WithField("username", form.Username).Info("User registered")
	h.flash(w, r, "You were successfully registered and can login now")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) usernameTaken(w http.ResponseWriter, r *http.Request, page *views.Page) {
	h.metrics.RegisterFailure.WithLabelValues(monitoring.ReasonUsernameTaken).Inc()
	page.Error = dto.ErrUsernameTaken
	h.render(w, r, http.StatusOK, views.RegisterPage, page)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	delete(session.Values, UserIDKey)
	session.AddFlash("You were logged out")
	if err := session.Save(r, w); err != nil {
		h.serverError(w, r, err, "Saving session")
		return
	}
	http.Redirect(w, r, "/public", http.StatusFound)
}
