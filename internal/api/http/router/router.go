package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/caretap/caretap_backend/config"
	"github.com/caretap/caretap_backend/internal/api/http/handler"
	"github.com/caretap/caretap_backend/internal/api/http/middleware"
	"github.com/caretap/caretap_backend/internal/service/appointment"
	"github.com/caretap/caretap_backend/internal/service/auth"
	"github.com/caretap/caretap_backend/internal/service/dashboard"
	"github.com/caretap/caretap_backend/internal/service/user"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg            *config.Config
	Redis          *redis.Client
	UserSvc        user.Service
	AuthSvc        auth.Service
	AppointmentSvc appointment.Service
	DashboardSvc   dashboard.Service
	PasetoMgr      *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Redis)

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	userH := handler.NewUserHandler(r.p.UserSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	watchH := handler.NewWatchHandler(r.p.AppointmentSvc)
	dashboardH := handler.NewDashboardHandler(r.p.DashboardSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerUserRoutes(api, userH, authRequired)
	r.registerAppointmentRoutes(api, appointmentH, watchH, authRequired)
	r.registerDashboardRoutes(api, dashboardH, authRequired)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
