package app

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/caretap/caretap_backend/config"
	"github.com/caretap/caretap_backend/internal/events"
	"github.com/caretap/caretap_backend/internal/notify"
	"github.com/caretap/caretap_backend/internal/store"
	"github.com/caretap/caretap_backend/pkg/email"
	"github.com/caretap/caretap_backend/pkg/sms"
)

// WorkerModule runs the notification worker against the event firehose.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterNotifyWorker),
)

type WorkerParams struct {
	fx.In

	Lc    fx.Lifecycle
	Bus   events.Bus
	DB    store.Store
	Email *email.Client
	SMS   *sms.Client
	Cfg   *config.Config
}

func RegisterNotifyWorker(p WorkerParams) {
	notifier := notify.New(p.DB, p.Email, p.SMS, p.Cfg.SMS.SMSIR.TemplateID)

	var sub events.Subscription
	runCtx, cancel := context.WithCancel(context.Background())

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s, err := p.Bus.SubscribeAll(ctx)
			if err != nil {
				cancel()
				return err
			}
			sub = s
			go notifier.Run(runCtx, sub)
			slog.Info("notify worker started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			if sub != nil {
				return sub.Close()
			}
			return nil
		},
	})
}
