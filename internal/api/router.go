package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"spendwise-be/internal/api/handlers"
	"spendwise-be/internal/auth"
	"spendwise-be/internal/config"
	"spendwise-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	tokens *auth.TokenManager,
	userService services.UserServiceProvider,
	expenseService services.ExpenseServiceProvider,
	adminService services.AdminServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens, cfg)
	userHandler := handlers.NewUserHandler(userService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	adminHandler := handlers.NewAdminHandler(adminService)

	authmw := auth.NewMiddleware(tokens, userService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/admin-login", authHandler.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireUser)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(authmw.RequireUser)
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)
			r.Delete("/profile", userHandler.DeleteAccount)
			r.Put("/change-password", userHandler.ChangePassword)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Use(authmw.RequireUser)
			r.Post("/", expenseHandler.Create)
			r.Get("/", expenseHandler.List)
			r.Get("/stats", expenseHandler.Stats)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", expenseHandler.Get)
				r.Put("/", expenseHandler.Update)
				r.Delete("/", expenseHandler.Delete)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.RequireUser)
			r.Use(authmw.RequireAdmin)
			r.Get("/dashboard", adminHandler.Dashboard)
			r.Get("/expenses", adminHandler.ListExpenses)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", adminHandler.ListUsers)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", adminHandler.GetUser)
					r.Put("/", adminHandler.UpdateUser)
					r.Delete("/", adminHandler.DeleteUser)
				})
			})
		})
	})

	return r
}
