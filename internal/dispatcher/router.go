package dispatcher

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bcactf/arcs-deploy-controller/internal/auth"
)

// NewRouter builds the chi router the HTTP listener binds: request
// logging and recovery, permissive CORS (the hub and admin panel both
// call this from browser contexts), then the bearer-auth gate in front of
// the single dispatch route.
func NewRouter(d *Dispatcher, authToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(bearerAuth(authToken))

	r.Post("/", d.ServeHTTP)
	return r
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	const prefix = "Bearer "
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			candidate := header[len(prefix):]
			if len(candidate) != auth.TokenSize {
				writeError(w, http.StatusBadRequest, "malformed bearer token")
				return
			}
			if !auth.ValidateToken(token, candidate) {
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
