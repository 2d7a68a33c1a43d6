package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"minitwit/database"
	"minitwit/handlers"
	"minitwit/monitoring"
	"minitwit/views"
)

// SetupRoutes initializes all the application routes.
// Fixed paths are registered before /{username} so they are never taken
// for a user name.
func SetupRoutes(h *handlers.Handler, db *sqlx.DB, metrics *monitoring.Metrics, log logrus.FieldLogger) http.Handler {
	router := mux.NewRouter()
	router.Use(
		metrics.InstrumentHandler,
		handlers.RequestLogger(log),
		database.Middleware(db, log),
	)

	router.PathPrefix("/static/").Handler(views.Static()).Methods("GET", "HEAD")

	// Timelines
	router.HandleFunc("/", h.WithViewer(h.Timeline)).Methods("GET")
	router.HandleFunc("/public", h.WithViewer(h.PublicTimeline)).Methods("GET")
	router.HandleFunc("/add_message", h.AddMessage).Methods("POST")
	// Claims the other methods so they are not served as /{username}.
	router.HandleFunc("/add_message", methodNotAllowed("POST"))

	// Accounts
	router.HandleFunc("/login", h.WithViewer(h.Login)).Methods("GET", "POST")
	router.HandleFunc("/register", h.WithViewer(h.Register)).Methods("GET", "POST")
	router.HandleFunc("/logout", h.Logout).Methods("GET")

	// Users
	router.HandleFunc("/{username}/follow", h.WithViewer(h.Follow)).Methods("GET")
	router.HandleFunc("/{username}/unfollow", h.WithViewer(h.Unfollow)).Methods("GET")
	router.HandleFunc("/{username}", h.WithViewer(h.UserTimeline)).Methods("GET")

	return router
}

func methodNotAllowed(allowed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allowed)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}
