package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sbilibin2017/gw-catalog/internal/handlers"
	"github.com/sbilibin2017/gw-catalog/internal/middlewares"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/sbilibin2017/gw-catalog/internal/services"
)

type routerConfig struct {
	db          handlers.Pinger
	auth        *services.AuthService
	products    *services.ProductService
	tokens      middlewares.Tokener
	uploadDir   string
	corsOrigins []string
	swaggerURL  string
	build       handlers.BuildInfo
}

// newRouter mounts the API, the static uploads and the system routes.
func newRouter(c routerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middlewares.LoggingMiddleware)
	r.Use(middlewares.Recoverer)
	r.Use(middlewares.SecurityHeaders)
	r.Use(chimiddleware.StripSlashes)

	r.NotFound(handlers.NotFoundHandler)
	r.MethodNotAllowed(handlers.MethodNotAllowedHandler)

	authMiddleware := middlewares.AuthMiddleware(c.tokens, c.auth)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   c.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", handlers.NewLoginHandler(c.auth))
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Post("/change-password", handlers.NewChangePasswordHandler(c.auth))
				r.Get("/me", handlers.NewMeHandler(c.auth))
				r.Post("/logout", handlers.NewLogoutHandler(c.auth))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", handlers.NewListProductsHandler(c.products))
			r.Get("/brand/{brandName}", handlers.NewListProductsByBrandHandler(c.products))
			r.Get("/{id}", handlers.NewGetProductHandler(c.products))

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(middlewares.RequireRole(models.RoleAdmin))
				r.Post("/", handlers.NewCreateProductHandler(c.products))
				r.Put("/{id}", handlers.NewUpdateProductHandler(c.products))
				r.Delete("/{id}", handlers.NewDeleteProductHandler(c.products))
			})
		})
	})

	r.With(middlewares.StaticHeaders).Get("/uploads/*", uploadsHandler(c.uploadDir))

	r.Get("/health", handlers.NewHealthHandler(c.db, c.build))
	r.Get("/", handlers.NewRootHandler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(c.swaggerURL)))

	return r
}

// uploadsHandler serves stored images. Directory listings are not served.
func uploadsHandler(dir string) http.HandlerFunc {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/uploads/" || strings.HasSuffix(r.URL.Path, "/") {
			handlers.NotFoundHandler(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	}
}
