package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"barstock/internal/domain/models"
	"barstock/internal/lib/session"
	"barstock/internal/storage/postgres"
	"barstock/internal/web"
)

const sessionTTL = 24 * time.Hour

// genericLoginError is the one message shown for every failed login, so a
// missing user and a wrong password are indistinguishable from outside.
const genericLoginError = "Invalid username or password"

type loginView struct {
	Error string
}

type listView struct {
	Identity *session.Identity
	Liquors  []models.Liquor
	Search   string
	SortBy   string
	Order    string
	Notice   string
}

// NextOrder gives the order a column-header link should request: clicking
// the active ascending column flips it to descending.
func (v listView) NextOrder(column string) string {
	if v.SortBy == column && v.Order == "asc" {
		return "desc"
	}
	return "asc"
}

type editView struct {
	Liquor *models.Liquor
}

type logsView struct {
	Entries []models.ActivityLog
}

// listFilterFromQuery normalizes the listing query params: unknown sort
// keys fall back to name, anything but desc means ascending.
func listFilterFromQuery(q url.Values) postgres.ListFilter {
	f := postgres.ListFilter{
		Search: strings.TrimSpace(q.Get("search")),
		SortBy: q.Get("sort_by"),
		Order:  q.Get("order"),
	}

	switch f.SortBy {
	case "name", "type", "quantity":
	default:
		f.SortBy = "name"
	}

	if f.Order != "desc" {
		f.Order = "asc"
	}

	return f
}

func noticeText(code string) string {
	if code == "unauthorized" {
		return "You are not authorized to perform that action."
	}
	return ""
}

func (s *APIServer) render(w http.ResponseWriter, name string, data any) {
	if err := web.Render(w, name, data); err != nil {
		s.logger.Error("Failed to render template", "error", err)
	}
}

func (s *APIServer) loginHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			s.render(w, "login.html", loginView{})
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")

		user, err := s.storage.UserByUsername(r.Context(), username)
		if err != nil {
			if !errors.Is(err, postgres.ErrNotFound) {
				s.logger.Error("Failed to look up user", "error", err)
			}
			s.render(w, "login.html", loginView{Error: genericLoginError})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			s.render(w, "login.html", loginView{Error: genericLoginError})
			return
		}

		token, err := session.NewToken(user, s.config.SessionSecret, sessionTTL)
		if err != nil {
			s.logger.Error("Failed to issue session token", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		s.logger.Info("User logged in", slog.String("username", user.Username))

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *APIServer) logoutHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (s *APIServer) indexHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identityFrom(r)

		filter := listFilterFromQuery(r.URL.Query())

		liquors, err := s.storage.ListLiquors(r.Context(), filter)
		if err != nil {
			s.logger.Error("Failed to list liquors", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.render(w, "index.html", listView{
			Identity: ident,
			Liquors:  liquors,
			Search:   filter.Search,
			SortBy:   filter.SortBy,
			Order:    filter.Order,
			Notice:   noticeText(r.URL.Query().Get("notice")),
		})
	}
}

func (s *APIServer) addHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			s.render(w, "add.html", nil)
			return
		}

		ident, _ := identityFrom(r)

		liquor, err := liquorFromForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		liquor.LastUpdated = time.Now()
		liquor.EditedBy = ident.Username

		if err := s.storage.CreateLiquor(r.Context(), liquor); err != nil {
			s.logger.Error("Failed to create liquor", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.logger.Info("Liquor added",
			slog.String("name", liquor.Name),
			slog.String("by", ident.Username),
		)

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *APIServer) editHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.NotFound(w, r)
			return
		}

		if r.Method == http.MethodGet {
			liquor, err := s.storage.LiquorByID(r.Context(), id)
			if err != nil {
				if errors.Is(err, postgres.ErrNotFound) {
					http.NotFound(w, r)
					return
				}
				s.logger.Error("Failed to get liquor", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			s.render(w, "edit.html", editView{Liquor: liquor})
			return
		}

		ident, _ := identityFrom(r)

		liquor, err := liquorFromForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		liquor.ID = id
		liquor.LastUpdated = time.Now()
		liquor.EditedBy = ident.Username

		if err := s.storage.UpdateLiquor(r.Context(), liquor); err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			s.logger.Error("Failed to update liquor", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.logger.Info("Liquor updated",
			slog.Int("id", id),
			slog.String("by", ident.Username),
		)

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *APIServer) deleteHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.NotFound(w, r)
			return
		}

		ident, _ := identityFrom(r)

		if err := s.storage.DeleteLiquor(r.Context(), id, ident.Username, time.Now()); err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			s.logger.Error("Failed to delete liquor", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.logger.Info("Liquor deleted",
			slog.Int("id", id),
			slog.String("by", ident.Username),
		)

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *APIServer) logsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.storage.ListActivity(r.Context())
		if err != nil {
			s.logger.Error("Failed to list activity", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.render(w, "logs.html", logsView{Entries: entries})
	}
}

func (s *APIServer) setupDbHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.storage.Setup(r.Context()); err != nil {
			s.logger.Error("Failed to set up schema", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Error creating tables: %v", err)
			return
		}

		fmt.Fprintln(w, "Tables created")
	}
}

func liquorFromForm(r *http.Request) (*models.Liquor, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form")
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		return nil, fmt.Errorf("invalid quantity")
	}

	return &models.Liquor{
		Name:       r.FormValue("liquor_name"),
		Type:       r.FormValue("liquor_type"),
		BottleSize: r.FormValue("bottle_size"),
		Quantity:   quantity,
	}, nil
}
