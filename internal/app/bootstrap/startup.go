// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	outboxstore "github.com/dalemusser/stratalaw/internal/app/store/outbox"
	trafficstore "github.com/dalemusser/stratalaw/internal/app/store/traffic"
	"github.com/dalemusser/stratalaw/internal/app/system/dispatch"
	"github.com/dalemusser/stratalaw/internal/app/system/mailer"
	"github.com/dalemusser/stratalaw/internal/app/system/tasks"
	"github.com/dalemusser/stratalaw/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// staleSendThreshold is how long a notification may sit in sending before
// maintenance returns it to the queue.
const staleSendThreshold = 10 * time.Minute

// Background workers, kept for Shutdown.
var (
	taskRunner *tasks.Runner
	dispatcher *dispatch.Dispatcher
)

// Startup runs once after schema setup and before the handler is built.
// It starts the notification dispatcher and the maintenance jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:     appCfg.TimeoutPing,
		Short:    appCfg.TimeoutShort,
		External: appCfg.TimeoutExternal,
	})

	outbox := outboxstore.New(deps.MongoDatabase)

	if appCfg.NotifyEnabled {
		var sender mailer.Sender
		if deps.Mailer != nil && deps.Mailer.Configured() {
			sender = deps.Mailer
		} else {
			logger.Warn("SMTP not configured; queued notifications will fail until it is")
		}
		dispatcher = dispatch.New(outbox, sender, logger, dispatch.Config{
			Workers:      appCfg.NotifyWorkers,
			PollInterval: appCfg.NotifyPollInterval,
			RetryDelay:   appCfg.NotifyRetryDelay,
		})
		if err := dispatcher.Start(); err != nil {
			return err
		}
	}

	startTaskRunner(appCfg, deps, outbox, logger)
	return nil
}

func startTaskRunner(appCfg AppConfig, deps DBDeps, outbox *outboxstore.Store, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.OutboxRequeueJob(outbox, staleSendThreshold, logger))
	taskRunner.Register(tasks.OutboxPruneJob(outbox, appCfg.NotifyRetention, logger))
	taskRunner.Register(tasks.AuditRetentionJob(auditstore.New(deps.MongoDatabase), appCfg.AuditRetention, logger))
	taskRunner.Register(tasks.TrafficRetentionJob(trafficstore.New(deps.MongoDatabase), appCfg.TrafficRetention, logger))

	taskRunner.Start()
}
