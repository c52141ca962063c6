package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/rpg-market/api/controllers"
	"github.com/angelmondragon/rpg-market/api/middleware"
	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/internal/addresses"
	"github.com/angelmondragon/rpg-market/internal/analytics"
	"github.com/angelmondragon/rpg-market/internal/auth"
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/market"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/pkg/auth/session"
	"github.com/angelmondragon/rpg-market/pkg/config"
	"github.com/angelmondragon/rpg-market/pkg/logger"
)

// Store is the redis surface the router needs: flashes, auth rate limits and
// the readiness ping.
type Store interface {
	responses.FlashStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// Services bundles the domain services behind the HTTP surface. Nil services
// answer with an internal error instead of panicking.
type Services struct {
	Auth         auth.Service
	Register     auth.RegisterService
	Users        controllers.UserReader
	Market       market.Service
	Listings     listings.Service
	Transactions transactions.Service
	Addresses    addresses.Service
	Analytics    analytics.Service
	Seeder       controllers.Seeder
}

// Params wires the router. Store, BidLimiter and Metrics are optional.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         controllers.Pinger
	Store      Store
	Sessions   session.AccessSessionChecker
	BidLimiter *middleware.BidRateLimiter
	Metrics    http.Handler
	Services   Services
}

func NewRouter(p Params) http.Handler {
	cfg, logg, svc := p.Config, p.Logger, p.Services

	var flashStore responses.FlashStore
	readiness := map[string]controllers.Pinger{"database": p.DB}
	if p.Store != nil {
		flashStore = p.Store
		readiness["redis"] = p.Store
	}
	redirect := responses.Redirector{Store: flashStore, Logger: logg}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Flash(flashStore, logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	loginLimit, registerLimit := passthrough, passthrough
	if p.Store != nil {
		loginLimit = middleware.AuthRateLimit(loginPolicy, p.Store, logg)
		registerLimit = middleware.AuthRateLimit(registerPolicy, p.Store, logg)
	}
	bidLimit := passthrough
	if p.BidLimiter != nil {
		bidLimit = p.BidLimiter.Handler
	}

	metricsHandler := p.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	requireAuth := middleware.Auth(cfg.JWT, p.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, p.Sessions, logg)
	privileged := middleware.RequirePrivileged(logg)

	items := controllers.ItemHandlers{Listings: svc.Listings, Market: svc.Market, Redirect: redirect, Logger: logg}
	checkout := controllers.CheckoutHandlers{
		Listings:  svc.Listings,
		Market:    svc.Market,
		Addresses: svc.Addresses,
		Users:     svc.Users,
		Redirect:  redirect,
		Logger:    logg,
	}
	trades := controllers.TransactionHandlers{Transactions: svc.Transactions, Redirect: redirect, Logger: logg}
	addrs := controllers.AddressHandlers{Addresses: svc.Addresses, Redirect: redirect, Logger: logg}
	master := controllers.MasterHandlers{Analytics: svc.Analytics, Ledger: svc.Transactions, Logger: logg}
	admin := controllers.AdminHandlers{Seeder: svc.Seeder, Redirect: redirect, Logger: logg}

	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Handle("/metrics", metricsHandler)

	r.Route("/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(registerLimit).Post("/registro", controllers.AuthRegister(svc.Register, svc.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.With(requireAuth).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
	})

	// Browsing works anonymously; a presented token narrows the categories.
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", redirectTo("/mercado"))
		r.Get("/mercado", controllers.MarketHome(svc.Market, logg))
		r.Get("/mercado/categoria/{category}", controllers.MarketCategory(svc.Market, logg))
		r.Get("/mercado/buscar", controllers.MarketSearch(svc.Market, logg))
		r.Get("/mercado/masmorra-dos-leiloes", controllers.MarketAuctions(svc.Market, logg))
		r.Get("/mercado/vendas-diretas", controllers.MarketDirectSales(svc.Market, logg))
		r.Get("/mercado/ranking-dos-nobres", controllers.PublicRanking(svc.Analytics, logg))
		r.Get("/item/{id}", controllers.ItemDetail(svc.Market, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/perfil", controllers.Profile(svc.Users, logg))
		r.Get("/mercado/meus-itens", controllers.MyInventory(svc.Market, logg))

		r.Get("/item/novo", items.NewForm())
		r.Post("/item/novo", items.Create())
		r.Get("/item/{id}/editar", items.EditForm())
		r.Post("/item/{id}/editar", items.Update())
		r.Post("/item/{id}/excluir", items.Delete())
		r.With(privileged).Post("/item/{id}/excluir-mestre", items.DeleteAsMaster())
		r.With(bidLimit).Post("/item/{id}/lance", items.PlaceBid())
		r.Post("/item/{id}/comprar", items.Buy())

		r.Get("/checkout/{id}", checkout.Page())
		r.Post("/checkout/{id}", checkout.Confirm())

		r.Route("/transacoes", func(r chi.Router) {
			r.Get("/", trades.List())
			r.Get("/{id}", trades.Get())
			r.Post("/{id}/enviar", trades.Ship())
			r.Post("/{id}/concluir", trades.Complete())
			r.Post("/{id}/cancelar", trades.Cancel())
		})

		r.Route("/enderecos", func(r chi.Router) {
			r.Get("/", addrs.List())
			r.Post("/", addrs.Create())
			r.Post("/{id}/padrao", addrs.SetDefault())
			r.Post("/{id}/excluir", addrs.Delete())
		})

		r.Route("/mestre", func(r chi.Router) {
			r.Use(privileged)
			r.Get("/dashboard", master.Dashboard())
			r.Get("/ranking-nobres", master.Ranking())
			r.Get("/relatorio-atividades", master.Activity())
			r.Get("/gestao-anuncios", master.Listings())
			r.Get("/transacoes", master.Transactions())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(privileged)
			r.Post("/criar-dados-demonstracao", admin.SeedDemo())
			r.Post("/criar-dados-simples", admin.SeedSimple())
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }

func redirectTo(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, location, http.StatusFound)
	}
}
