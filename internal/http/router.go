package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenvolt/loanhub/internal/auth"
	"github.com/greenvolt/loanhub/internal/config"
	"github.com/greenvolt/loanhub/internal/http/handlers"
	"github.com/greenvolt/loanhub/internal/http/middlewares"
	"github.com/greenvolt/loanhub/internal/observability"
	"github.com/greenvolt/loanhub/internal/repo/postgres"
	"github.com/greenvolt/loanhub/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type RouterDeps struct {
	Cfg     config.Config
	Pool    *pgxpool.Pool
	Metrics *observability.Prom
	// Gatherer backs the /metrics endpoint.
	Gatherer prometheus.Gatherer
	// OfferCache may be nil; single-offer reads then always hit the store.
	OfferCache service.OfferCache
	// CachePinger may be nil; readiness then skips the cache check.
	CachePinger handlers.Pinger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Cfg

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware chain, outermost first

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(otelgin.Middleware("loanhub"))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinHandleMiddleware())
		r.Use(observeAuthzOutcomes(deps.Metrics))
	}

	// wire up repositories, instrumented when metrics are on

	var obs service.DBObserver
	if deps.Metrics != nil {
		obs = deps.Metrics
	}

	userStore := service.InstrumentUserStore(postgres.NewUsersRepo(deps.Pool), obs)
	customerStore := service.InstrumentCustomerStore(postgres.NewCustomersRepo(deps.Pool), obs)
	offerStore := service.InstrumentLoanOfferStore(postgres.NewLoanOffersRepo(deps.Pool), obs)
	refreshStore := postgres.NewRefreshTokensRepo(deps.Pool)

	// services

	principals := service.NewPrincipalResolver(customerStore)
	customersSvc := service.NewCustomers(customerStore, userStore)
	offersSvc := service.NewLoanOffers(offerStore, customerStore, deps.OfferCache)
	registrationSvc := service.NewRegistration(userStore, customerStore, cfg.Production())
	credentialsSvc := service.NewAuth(userStore)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	// handlers

	healthHandler := handlers.NewHealthHandler(deps.Pool, deps.CachePinger)
	authHandler := handlers.NewAuthHandler(registrationSvc, credentialsSvc, principals, jwtManager, refreshStore)
	customersHandler := handlers.NewCustomersHandler(customersSvc, principals)
	offersHandler := handlers.NewLoanOffersHandler(offersSvc, principals)

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// credential endpoints get a tight per-IP limit; everything behind auth is
	// limited per user
	loginLimiter := middlewares.NewRateLimiter(20, time.Minute)
	apiLimiter := middlewares.NewRateLimiter(300, time.Minute)

	authGroup := r.Group("/auth")
	authGroup.Use(loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/register-customer", authHandler.RegisterCustomer)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	authed := r.Group("/")
	authed.Use(authMW.RequireAuth())
	authed.Use(apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		authed.POST("/auth/installers/create", authHandler.CreateInstaller)
		authed.GET("/auth/me", authHandler.Me)
		authed.PUT("/auth/me", authHandler.UpdateMe)

		authed.POST("/customers", customersHandler.CreateCustomer)
		authed.GET("/customers", customersHandler.ListCustomers)
		authed.GET("/customers/:id", customersHandler.GetCustomer)
		authed.PUT("/customers/:id", customersHandler.UpdateCustomer)
		authed.DELETE("/customers/:id", customersHandler.DeleteCustomer)

		authed.POST("/loan-offers", offersHandler.CreateLoanOffer)
		authed.GET("/loan-offers", offersHandler.ListLoanOffers)
		authed.GET("/loan-offers/:id", offersHandler.GetLoanOffer)
		authed.PUT("/loan-offers/:id", offersHandler.UpdateLoanOffer)
		authed.DELETE("/loan-offers/:id", offersHandler.DeleteLoanOffer)
	}

	return r
}

// observeAuthzOutcomes counts allowed and denied requests per route.
func observeAuthzOutcomes(p *observability.Prom) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			return
		}

		op := ctx.Request.Method + " " + route

		switch ctx.Writer.Status() {
		case http.StatusUnauthorized, http.StatusForbidden:
			p.AuthzDecisions.WithLabelValues(op, "deny").Inc()
		default:
			p.AuthzDecisions.WithLabelValues(op, "allow").Inc()
		}
	}
}
