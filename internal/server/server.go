package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/marketplace-core/internal/config"
	"github.com/shinyyama/marketplace-core/internal/handler"
	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/listingstatus"
	appmw "github.com/shinyyama/marketplace-core/internal/middleware"
	"github.com/shinyyama/marketplace-core/internal/realtime"
	"github.com/shinyyama/marketplace-core/internal/repository"
	"github.com/shinyyama/marketplace-core/internal/service"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Server struct {
	e *echo.Echo
}

// Options carries build metadata and the clock used by every component.
type Options struct {
	SHA       string
	BuildTime string
	Now       func() time.Time
}

func New(cfg *config.Config, db *gorm.DB, auth appmw.Authenticator, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestContext)
	e.Use(middleware.Logger())
	allowOrigin := originMatcher(cfg.AllowedOriginSuffix)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.HeaderUserID},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			return allowOrigin(origin), nil
		},
	}))
	if cfg.RateLimitRPS > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS))))
	}

	store := repository.NewStore(db)
	locks := ledger.NewLocks()
	ledgerOpts := ledger.Options{
		Increment:        cfg.BidIncrement,
		EndingSoonWindow: cfg.EndingSoonWindow,
		Now:              opts.Now,
	}
	bids := ledger.NewBidLedger(store, locks, ledgerOpts)
	offers := ledger.NewOfferLedger(store, locks, ledgerOpts)

	hub := realtime.NewHub(log, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowOrigin(origin)
	})

	accountSvc := service.NewAccountService(repository.NewAccountRepository(db))
	notificationSvc := service.NewNotificationService(repository.NewNotificationRepository(db), log)
	listingSvc := service.NewListingService(repository.NewListingRepository(db), listingstatus.NewResolver(cfg.EndingSoonWindow), opts.Now)
	coord := service.NewNegotiationCoordinator(bids, offers, notificationSvc, hub, log, cfg.PollInterval)

	listingHandler := handler.NewListingHandler(listingSvc)
	negotiationHandler := handler.NewNegotiationHandler(coord)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	realtimeHandler := handler.NewRealtimeHandler(hub, listingSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    opts.SHA,
			"build_time": opts.BuildTime,
		})
	})

	withCaller := []echo.MiddlewareFunc{auth.RequireAuth, appmw.LoadCaller(accountSvc)}

	api := e.Group("/api")
	api.GET("/listings", listingHandler.List)
	api.GET("/listings/:id", listingHandler.Get)
	api.GET("/listings/:id/auction", negotiationHandler.Auction)
	api.GET("/listings/:id/ws", realtimeHandler.Subscribe)
	api.POST("/listings", listingHandler.Create, withCaller...)
	api.POST("/listings/:id/bids", negotiationHandler.PlaceBid, withCaller...)
	api.GET("/listings/:id/bids/me", negotiationHandler.MyBidStatus, withCaller...)
	api.POST("/listings/:id/offers", negotiationHandler.MakeOffer, withCaller...)
	api.GET("/listings/:id/offers/me", negotiationHandler.MyOfferState, withCaller...)
	api.GET("/listings/:id/offers", negotiationHandler.ListOffers, withCaller...)
	api.POST("/offers/:id/respond", negotiationHandler.RespondToOffer, withCaller...)
	api.GET("/notifications", notificationHandler.List, auth.RequireAuth)
	api.POST("/notifications/read", notificationHandler.MarkRead, auth.RequireAuth)

	return &Server{e: e}
}

// originMatcher allows localhost and hosts ending in suffix.
func originMatcher(suffix string) func(origin string) bool {
	suffix = strings.ToLower(strings.TrimSpace(suffix))
	return func(origin string) bool {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true
		}
		u, err := url.Parse(low)
		if err != nil {
			return false
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		return suffix != "" && strings.HasSuffix(u.Hostname(), suffix)
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
