package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/roshansubedi/apphub-auth/internal/api/handlers"
	"github.com/roshansubedi/apphub-auth/internal/auth"
	"github.com/roshansubedi/apphub-auth/internal/config"
	"github.com/roshansubedi/apphub-auth/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(accounts services.AccountProvider, tokens *auth.TokenService, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	accountHandler := handlers.NewAccountHandler(accounts)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", accountHandler.Signup)
		r.Post("/verify-email", accountHandler.VerifyEmail)
		r.Post("/resend-code", accountHandler.ResendCode)
		r.Post("/login", accountHandler.Login)
		r.Post("/reset-username", accountHandler.ResetUsername)
		r.Post("/reset-password-request", accountHandler.ResetPasswordRequest)
		r.Post("/reset-password-confirm", accountHandler.ResetPasswordConfirm)

		// Routes requiring a session bearer token
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens))
			r.Get("/user-info", accountHandler.UserInfo)
			r.Post("/update-password", accountHandler.UpdatePassword)
			r.Post("/update-email", accountHandler.UpdateEmail)
			r.Post("/update-profile", accountHandler.UpdateProfile)
			r.Delete("/delete-account", accountHandler.DeleteAccount)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Route not found"})
	})

	return r
}
