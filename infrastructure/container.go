// infrastructure/container.go
package infrastructure

import (
	"context"
	"time"

	redisv8 "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/eGGnogSC/qbfields/config"
	redisinfra "github.com/eGGnogSC/qbfields/infrastructure/redis"
	"github.com/eGGnogSC/qbfields/internal/auth"
	"github.com/eGGnogSC/qbfields/internal/customer"
	"github.com/eGGnogSC/qbfields/internal/customfield"
	"github.com/eGGnogSC/qbfields/internal/invoice"
	"github.com/eGGnogSC/qbfields/internal/item"
	"github.com/eGGnogSC/qbfields/internal/metrics"
	"github.com/eGGnogSC/qbfields/internal/session"
	"github.com/eGGnogSC/qbfields/internal/web"
	"github.com/eGGnogSC/qbfields/pkg/qbclient"
)

// Container provides application dependencies.
type Container struct {
	AuthService        *auth.Service
	CustomerService    *customer.Service
	ItemService        *item.Service
	CustomFieldService *customfield.Service
	InvoiceService     *invoice.Service

	SessionStore session.Store
	WebHandler   *web.Handler
	Metrics      *metrics.Metrics

	RedisClient redisv8.UniversalClient
	RedisHealth *redisinfra.HealthChecker

	logger *zap.Logger
}

// NewContainer creates and wires the dependency container.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{logger: logger}

	c.Metrics = metrics.New()

	// Session store: in-memory by default, Redis with local fallback when
	// addresses are configured.
	var healthFunc func() bool
	if cfg.RedisEnabled() {
		redisCfg := redisinfra.DefaultConfig()
		redisCfg.Addresses = cfg.Redis.Addresses
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		c.RedisClient = redisinfra.NewUniversalClient(redisCfg)
		c.RedisHealth = redisinfra.NewHealthChecker(ctx, c.RedisClient, 30*time.Second, logger)
		healthFunc = c.RedisHealth.IsHealthy

		fallback := session.NewFallbackStore(c.RedisClient, cfg.Redis.KeyPrefix, healthFunc, logger)
		fallback.StartReplicationRoutine(ctx)
		c.SessionStore = fallback
	} else {
		c.SessionStore = session.NewMemoryStore()
	}

	c.AuthService = auth.NewService(auth.Config{
		ClientID:     cfg.QuickBooks.ClientID,
		ClientSecret: cfg.QuickBooks.ClientSecret,
		RedirectURI:  cfg.QuickBooks.RedirectURI,
		Scopes:       config.Scopes,
		AuthURL:      config.AuthURL,
		TokenURL:     config.TokenURL,
	}, logger)

	qbClient := qbclient.NewClient(
		cfg.APIBaseURL(),
		config.GraphQLURL,
		cfg.QuickBooks.MinorVersion,
		logger,
	).WithInstrumenter(c.Metrics)

	c.CustomerService = customer.NewService(qbClient)
	c.ItemService = item.NewService(qbClient)
	c.CustomFieldService = customfield.NewService(qbClient, logger)
	c.InvoiceService = invoice.NewService(qbClient, config.DeepLinkBase, logger)

	cookies := web.NewCookieStore([]byte(cfg.Session.Secret))
	c.WebHandler = web.NewHandler(
		c.SessionStore,
		cookies,
		c.AuthService,
		c.CustomerService,
		c.ItemService,
		c.CustomFieldService,
		c.InvoiceService,
		healthFunc,
		logger,
	)

	return c, nil
}

// Shutdown gracefully closes connections.
func (c *Container) Shutdown() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.logger.Warn("error closing redis connection", zap.Error(err))
		}
	}
}
