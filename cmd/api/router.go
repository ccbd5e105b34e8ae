package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nurbekov/csvtodo/internal/config"
	"github.com/nurbekov/csvtodo/internal/handlers"
	"github.com/nurbekov/csvtodo/internal/middleware"
	"github.com/nurbekov/csvtodo/internal/store"
)

// newRouter builds the full handler chain. Split out of main so the
// integration tests can run the real router against a temp-dir store.
func newRouter(st *store.Store, cfg config.Config) http.Handler {
	secret := []byte(cfg.JWTSecret)

	authHandler := &handlers.AuthHandler{Store: st, Secret: secret, ExpireHours: cfg.JWTExpireHours}
	todoHandler := &handlers.TodoHandler{Store: st}
	categoryHandler := &handlers.CategoryHandler{Store: st}
	rpcHandler := &handlers.RPCHandler{Store: st}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(); err != nil {
			handlers.JSONError(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.AuthRateLimiter()
	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter.Middleware).Post("/register", authHandler.Register)
		r.With(authLimiter.Middleware).Post("/login", authHandler.Login)
		r.With(middleware.JWT(secret)).Get("/me", authHandler.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWT(secret))

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", todoHandler.ListTodos)
			r.Post("/", todoHandler.CreateTodo)
			r.Get("/{id}", todoHandler.GetTodo)
			r.Put("/{id}", todoHandler.UpdateTodo)
			r.Delete("/{id}", todoHandler.DeleteTodo)
			r.Post("/{id}/toggle", todoHandler.ToggleTodo)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Post("/", categoryHandler.CreateCategory)
			r.Put("/{id}", categoryHandler.UpdateCategory)
			r.Delete("/{id}", categoryHandler.DeleteCategory)
		})

		r.Post("/mcp", rpcHandler.Dispatch)
	})

	return r
}
