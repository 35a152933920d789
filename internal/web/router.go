package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/poshledger/internal/blob"
	"github.com/erazemk/poshledger/internal/model"
	webembed "github.com/erazemk/poshledger/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, blobs *blob.Store, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Blobs:     blobs,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return cookieAuth(RequireWebRole(model.RoleAdmin)(h))
	}

	// Static assets and uploaded images.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.Handle("GET /"+blob.RefPrefix, cookieAuth(http.StripPrefix("/"+blob.RefPrefix, noListing(http.FileServer(http.Dir(blobs.Dir))))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.RedirectHandler("/items", http.StatusSeeOther)))

	mux.Handle("GET /items", cookieAuth(http.HandlerFunc(s.ItemsPage)))
	mux.Handle("GET /items/new", cookieAuth(http.HandlerFunc(s.ItemNewPage)))
	mux.Handle("POST /items", cookieAuth(http.HandlerFunc(s.ItemCreateSubmit)))
	mux.Handle("GET /items/{id}/edit", cookieAuth(http.HandlerFunc(s.ItemEditPage)))
	mux.Handle("POST /items/{id}", cookieAuth(http.HandlerFunc(s.ItemUpdateSubmit)))
	mux.Handle("POST /items/{id}/delete", cookieAuth(http.HandlerFunc(s.ItemDeleteSubmit)))

	mux.Handle("GET /import", cookieAuth(http.HandlerFunc(s.ImportPage)))
	mux.Handle("POST /import", cookieAuth(http.HandlerFunc(s.ImportSubmit)))
	mux.Handle("GET /export", cookieAuth(http.HandlerFunc(s.ExportDownload)))

	mux.Handle("GET /users", adminOnly(s.UsersPage))
	mux.Handle("POST /users", adminOnly(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}/password", adminOnly(s.UserResetPasswordSubmit))
	mux.Handle("POST /users/{id}/role", adminOnly(s.UserUpdateRoleSubmit))
	mux.Handle("POST /users/{id}/delete", adminOnly(s.UserDeleteSubmit))

	mux.Handle("GET /settings", cookieAuth(http.HandlerFunc(s.SettingsPage)))
	mux.Handle("POST /settings", cookieAuth(http.HandlerFunc(s.SettingsSubmit)))

	return mux, nil
}

// noListing hides directory indexes of the upload directory.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "private, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
