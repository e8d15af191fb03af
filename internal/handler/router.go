package handler

import (
	"net/http"

	"labbook/internal/handler/api"
	"labbook/internal/handler/middleware"
	"labbook/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	registry *prometheus.Registry,
	bookingHandler *api.BookingHandler,
	availabilityHandler *api.AvailabilityHandler,
	waitlistHandler *api.WaitlistHandler,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, registry, bookingHandler, availabilityHandler, waitlistHandler)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	registry *prometheus.Registry,
	bookingHandler *api.BookingHandler,
	availabilityHandler *api.AvailabilityHandler,
	waitlistHandler *api.WaitlistHandler,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	apiGroup := engine.Group("/api")
	apiGroup.Use(middleware.RequireIdentity())
	{
		reservations := apiGroup.Group("/reservations")
		{
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: bookingHandler.CreateReservation},
				{Method: http.MethodGet, Path: "", Handler: bookingHandler.GetUserReservations},
				{Method: http.MethodGet, Path: "/:id", Handler: bookingHandler.GetReservation},
				{Method: http.MethodDelete, Path: "/:id", Handler: bookingHandler.CancelReservation},
				{Method: http.MethodPost, Path: "/:id/series", Handler: bookingHandler.MaterializeSeries},
				{Method: http.MethodGet, Path: "/:id/series", Handler: bookingHandler.GetSeries},
				{Method: http.MethodDelete, Path: "/:id/series", Handler: bookingHandler.CancelSeries},
			})
		}

		resources := apiGroup.Group("/resources")
		{
			addRoutes(resources, []route{
				{Method: http.MethodGet, Path: "/:id/availability", Handler: availabilityHandler.GetFreeGaps},
				{Method: http.MethodGet, Path: "/:id/check", Handler: availabilityHandler.CheckSlot},
				{Method: http.MethodGet, Path: "/:id/conflicts", Handler: availabilityHandler.GetRangeConflicts},
				{Method: http.MethodPost, Path: "/:id/resolve", Handler: availabilityHandler.BulkResolve,
					Mw: []gin.HandlerFunc{middleware.RequirePrivileged()}},
			})
		}

		waitlist := apiGroup.Group("/waitlist")
		{
			addRoutes(waitlist, []route{
				{Method: http.MethodPost, Path: "", Handler: waitlistHandler.Enroll},
				{Method: http.MethodGet, Path: "", Handler: waitlistHandler.GetUserEntries},
				{Method: http.MethodDelete, Path: "/:id", Handler: waitlistHandler.CancelEntry},
				{Method: http.MethodPost, Path: "/offers/:id/respond", Handler: waitlistHandler.RespondToOffer},
				{Method: http.MethodPost, Path: "/sweep", Handler: waitlistHandler.Sweep,
					Mw: []gin.HandlerFunc{middleware.RequirePrivileged()}},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
