/**
 * @description
 * This file sets up the HTTP router for the account-management-service using
 * the `chi` routing library. It defines all the API routes and applies
 * necessary middleware.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - The service's internal packages for handlers and middleware.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andeanbank/account-management-service/internal/app"
	"github.com/andeanbank/account-management-service/internal/config"
	"github.com/andeanbank/account-management-service/pkg/middleware"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(cfg *config.Config, usecases *app.AccountUseCases, assets *app.AssetAccountService, passives *app.PassiveAccountService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RateLimitMiddleware(600))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	accountHandler := NewAccountHandler(usecases)
	assetHandler := NewAssetAccountHandler(assets)
	passiveHandler := NewPassiveAccountHandler(passives)

	// Group routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWKSURL))

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/asset", accountHandler.CreateAssetAccount)
			r.Post("/passive", accountHandler.CreatePassiveAccount)
			r.Get("/{accountCode}", accountHandler.GetAccountByCode)
			r.Get("/{accountCode}/balance", accountHandler.GetAccountBalance)
			r.Delete("/{accountID}", accountHandler.DeleteAccount)

			r.Post("/asset/{accountID}/drawdowns", assetHandler.Drawdown)
			r.Post("/asset/{accountID}/charges", assetHandler.Charge)
			r.Post("/asset/{accountID}/payments", assetHandler.Pay)

			r.Post("/passive/{accountID}/deposits", passiveHandler.Deposit)
			r.Post("/passive/{accountID}/withdrawals", passiveHandler.Withdraw)
		})

		r.Get("/clients/{clientID}/accounts", accountHandler.GetAccountsForClient)
	})

	return r
}
