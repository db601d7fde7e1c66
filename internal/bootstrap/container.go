package bootstrap

import (
	"context"
	"fmt"
	"time"

	"refund-lifecycle-be/internal/config"
	"refund-lifecycle-be/internal/controller"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/pkg/mailer"
	"refund-lifecycle-be/internal/pkg/serverutils"
	"refund-lifecycle-be/internal/service"
	"refund-lifecycle-be/pkg/gateway/midtrans"
	"refund-lifecycle-be/pkg/gateway/sandbox"
	"refund-lifecycle-be/pkg/gateway/stripe"
	"refund-lifecycle-be/pkg/idempotency"
	"refund-lifecycle-be/pkg/notify"
	"refund-lifecycle-be/pkg/production"
	"refund-lifecycle-be/pkg/refund"

	pktNats "refund-lifecycle-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	RefundController     controller.IRefundController
	ProductionController controller.IProductionController

	// Domain services
	Processor *refund.Processor
	Query     *refund.QueryService
	Board     *production.Board
	Stores    *Stores

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	RetryScheduler  *refund.RetryScheduler

	Logger logger.ILogger

	closers []func()
}

func NewContainer(cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Stores
	stores, err := OpenStores(cfg)
	if err != nil {
		return nil, err
	}
	c.Stores = stores
	c.closers = append(c.closers, func() { _ = stores.Close() })

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS is optional; without it staff events are only logged.
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOT", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
			natsPub = nil
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var idem idempotency.Store = idempotency.NewMemoryStore(idempotency.DefaultTTL)
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOT", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			sysLogger.Warn("BOOT", "Failed to connect to Redis, idempotency keys stay in memory", map[string]interface{}{"error": err.Error()})
			_ = rdb.Close()
		} else {
			idem = idempotency.NewRedisStore(rdb, "refund:idem:", idempotency.DefaultTTL)
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	gateway, err := NewGateway(cfg.Gateway)
	if err != nil {
		c.Close()
		return nil, err
	}

	// 4. Notifications
	notifiers := notify.Fanout{notify.NewBusNotifier(pubSub, sysLogger)}
	natsNotifier := notify.NewNatsNotifier(natsPub, sysLogger)
	notifiers = append(notifiers, natsNotifier)
	if cfg.SMTP.Host != "" {
		emailService := mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
		)
		notifiers = append(notifiers, notify.NewEmailNotifier(emailService, sysLogger, true))
	}

	// 5. Services
	c.Processor = refund.NewProcessor(stores.Refunds, stores.Directory, stores.Directory, gateway, sysLogger,
		refund.WithEngine(NewEngine(cfg.Refund)),
		refund.WithRetryPolicy(refund.RetryPolicy{
			MaxRetries: cfg.Refund.MaxRetries,
			Backoff:    cfg.Refund.RetryBackoff,
			MaxBackoff: cfg.Refund.RetryBackoffMax,
		}),
		refund.WithGatewayTimeout(cfg.Gateway.Timeout),
		refund.WithNotifier(notifiers),
	)
	c.Query = refund.NewQueryService(stores.Refunds, nil)
	c.Board = production.NewBoard(stores.Production, natsNotifier, sysLogger, nil)

	c.ConsumerService = service.NewConsumerService(pubSub, c.Processor, sysLogger)
	c.RetryScheduler, err = refund.NewRetryScheduler(c.Processor, cfg.Refund.SweepInterval, sysLogger)
	if err != nil {
		c.Close()
		return nil, err
	}

	// 6. Controllers
	auth := serverutils.JwtMiddleware(cfg.Keys.JWTSecret)
	c.RefundController = controller.NewRefundController(c.Processor, c.Query, idem, sysLogger, auth)
	c.ProductionController = controller.NewProductionController(c.Board, auth)

	return c, nil
}

// NewGateway returns the adapter selected by GATEWAY_PROVIDER.
func NewGateway(cfg config.GatewayConfig) (refund.Gateway, error) {
	switch cfg.Provider {
	case "sandbox", "":
		return sandbox.New(), nil
	case "midtrans":
		if cfg.MidtransServerKey == "" {
			return nil, fmt.Errorf("MIDTRANS_SERVER_KEY is required for the midtrans gateway")
		}
		return midtrans.New(cfg.MidtransServerKey, cfg.MidtransEnv), nil
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required for the stripe gateway")
		}
		return stripe.New(cfg.StripeSecretKey), nil
	}
	return nil, fmt.Errorf("unknown GATEWAY_PROVIDER %q", cfg.Provider)
}

// NewEngine builds the rule engine from the refund policy settings.
func NewEngine(cfg config.RefundConfig) *refund.Engine {
	limits := refund.DefaultRuleLimits()
	limits.SmallAmount = cfg.SmallAmountLimit
	limits.AbuseRefunds = cfg.AbuseLimit
	return refund.NewEngine(refund.DefaultRules(limits), refund.Thresholds{
		Auto:     cfg.AutoThreshold,
		Annotate: cfg.AnnotateThreshold,
	})
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
