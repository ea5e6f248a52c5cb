package app

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/caretap/caretap_backend/config"
	"github.com/caretap/caretap_backend/internal/events"
	"github.com/caretap/caretap_backend/internal/service/appointment"
	"github.com/caretap/caretap_backend/internal/service/auth"
	"github.com/caretap/caretap_backend/internal/service/dashboard"
	"github.com/caretap/caretap_backend/internal/service/user"
	"github.com/caretap/caretap_backend/internal/store"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideAppointmentService,
		ProvideDashboardService,
		ProvideAuthService,
		ProvideUserService,
		ProvidePasetoManager,
	),
)

func ProvideAppointmentService(db store.Store, bus events.Bus, cfg *config.Config) appointment.Service {
	return appointment.New(db, bus, cfg.Booking.EffectiveDailyLimit())
}

func ProvideDashboardService(db store.Store) dashboard.Service {
	return dashboard.New(db)
}

func ProvideAuthService(
	db store.Store,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	cfg *config.Config,
) auth.Service {
	return auth.New(db, rdb, paseto, cfg)
}

func ProvideUserService(db store.Store) user.Service {
	return user.New(db)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
