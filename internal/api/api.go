package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"barstock/internal/config"
	"barstock/internal/domain/models"
	"barstock/internal/lib/session"
	"barstock/internal/storage/postgres"
)

// Storage is the data-access surface the handlers depend on. The postgres
// implementation satisfies it; tests substitute an in-memory fake.
type Storage interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	ListLiquors(ctx context.Context, f postgres.ListFilter) ([]models.Liquor, error)
	LiquorByID(ctx context.Context, id int) (*models.Liquor, error)
	CreateLiquor(ctx context.Context, l *models.Liquor) error
	UpdateLiquor(ctx context.Context, l *models.Liquor) error
	DeleteLiquor(ctx context.Context, id int, actor string, when time.Time) error
	ListActivity(ctx context.Context) ([]models.ActivityLog, error)
	Setup(ctx context.Context) error
}

type APIServer struct {
	config  *config.Config
	logger  *slog.Logger
	server  *http.Server
	storage Storage
}

func New(config *config.Config, logger *slog.Logger, storage Storage) *APIServer {
	return &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr: config.HttpHost + ":" + strconv.Itoa(config.HttpPort),
		},
		storage: storage,
	}
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("port", strconv.Itoa(s.config.HttpPort)))

	s.configureRouter()

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()
	router.HandleFunc("/setup-db", s.setupDbHandler()).Methods("GET")
	router.HandleFunc("/login", s.loginHandler()).Methods("GET", "POST")
	router.HandleFunc("/logout", s.authenticate(s.logoutHandler())).Methods("GET")
	router.HandleFunc("/", s.authenticate(s.indexHandler())).Methods("GET")
	router.HandleFunc("/add", s.authenticate(s.requireEditor(s.addHandler()))).Methods("GET", "POST")
	router.HandleFunc("/edit/{id:[0-9]+}", s.authenticate(s.requireEditor(s.editHandler()))).Methods("GET", "POST")
	router.HandleFunc("/delete/{id:[0-9]+}", s.authenticate(s.requireEditor(s.deleteHandler()))).Methods("POST")
	router.HandleFunc("/logs", s.authenticate(s.requireEditor(s.logsHandler()))).Methods("GET")
	s.server.Handler = router
}

type contextKey int

const identityKey contextKey = iota

// authenticate resolves the session cookie into an identity and threads it
// through the request context. Anything without a valid session goes back
// to the login form.
func (s *APIServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ident, err := session.ParseToken(cookie.Value, s.config.SessionSecret)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), identityKey, ident))
		next(w, r)
	}
}

// requireEditor gates write routes. Viewers land back on the list with a
// notice instead of an HTTP error.
func (s *APIServer) requireEditor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := identityFrom(r)
		if !ok || !ident.Role.CanEdit() {
			http.Redirect(w, r, "/?notice=unauthorized", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func identityFrom(r *http.Request) (*session.Identity, bool) {
	ident, ok := r.Context().Value(identityKey).(*session.Identity)
	return ident, ok
}
