package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"github.com/yuzpew2/casadbendang/internal/infra/config"
	"github.com/yuzpew2/casadbendang/internal/infra/obs"
)

type Handlers struct {
	Public PublicHandler
	Admin  AdminHandler
	Cron   CronHandler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	api.GET("/property", h.Public.Property)
	api.GET("/properties/:id", h.Public.GetProperty)
	api.GET("/properties/:id/calendar", h.Public.Calendar)
	api.POST("/properties/:id/quote", h.Public.Quote)
	api.POST("/properties/:id/bookings", h.Public.CreateBooking)

	admin := api.Group("/admin")
	admin.GET("/properties/:id/bookings", h.Admin.ListBookings)
	admin.PATCH("/bookings/:bookingID/status", h.Admin.UpdateBookingStatus)
	admin.DELETE("/bookings/:bookingID", h.Admin.DeleteBooking)
	admin.POST("/properties/:id/maintenance-blocks", h.Admin.CreateMaintenanceBlock)
	admin.PUT("/properties/:id/settings", h.Admin.UpdateSettings)
	admin.GET("/properties/:id/add-ons", h.Admin.ListAddOns)
	admin.POST("/properties/:id/add-ons", h.Admin.CreateAddOn)
	admin.PATCH("/add-ons/:addonID", h.Admin.UpdateAddOn)
	admin.DELETE("/add-ons/:addonID", h.Admin.DeleteAddOn)
	admin.POST("/properties/:id/sweep", h.Admin.TriggerSweep)

	router.GET("/api/cron/cancel-expired", h.Cron.CancelExpired)

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
