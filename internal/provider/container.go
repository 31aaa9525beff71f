package provider

import (
	"strings"
	"time"

	"github.com/imobiliare-next/internal/authz"
	"github.com/imobiliare-next/internal/cache"
	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/media"
	"github.com/imobiliare-next/internal/metrics"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/payment/stripe"
	"github.com/imobiliare-next/internal/queue"
	"github.com/imobiliare-next/internal/repository"
	"github.com/imobiliare-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	Cache       *cache.Store
	QueueClient *queue.Client
	Metrics     *metrics.Metrics
	Media       media.Store
	Stripe      *stripe.Client

	// Repositories
	AdminRepo               repository.AdminRepository
	UserRepo                repository.UserRepository
	AnnouncementRepo        repository.AnnouncementRepository
	AnnouncementPaymentRepo repository.AnnouncementPaymentRepository
	AnnouncementPackageRepo repository.AnnouncementPackageRepository
	PromotionPackageRepo    repository.PromotionPackageRepository
	DiscountRepo            repository.DiscountRepository

	// Services
	AuthzService               *authz.Service
	AuthService                *service.AuthService
	UserAuthService            *service.UserAuthService
	EmailService               *service.EmailService
	Notifier                   service.Notifier
	DiscountService            *service.DiscountService
	PricingService             *service.PricingService
	AnnouncementPaymentService *service.AnnouncementPaymentService
	CheckoutService            *service.CheckoutService
	ListingService             *service.ListingService
	ExpirationService          *service.ExpirationService
	CleanupService             *service.CleanupService
	CatalogAdminService        *service.CatalogAdminService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	c := &Container{Config: cfg}

	// 缓存未启用时 Store 为空实现
	c.Cache = cache.New(&cfg.Redis)
	if c.Cache.Enabled() {
		logger.Infow("provider_cache_enabled", "prefix", cfg.Redis.Prefix)
	}

	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			c.QueueClient = qc
		}
	}

	if cfg.Metrics.Enabled {
		m, err := metrics.New(cfg.Metrics.Namespace)
		if err != nil {
			logger.Errorw("provider_init_metrics_failed", "error", err)
		} else {
			c.Metrics = m
		}
	}

	c.Media = media.NewStore(cfg.Media)
	c.Stripe = newStripeClient(cfg)

	c.initRepositories()
	c.initServices()
	return c
}

func newStripeClient(cfg *config.Config) *stripe.Client {
	if strings.TrimSpace(cfg.Stripe.SecretKey) == "" {
		logger.Warnw("provider_stripe_not_configured")
		return nil
	}
	stripeCfg := stripe.Config{
		SecretKey:               cfg.Stripe.SecretKey,
		PublishableKey:          cfg.Stripe.PublishableKey,
		WebhookSecret:           cfg.Stripe.WebhookSecret,
		SuccessURL:              cfg.Frontend.CheckoutSuccessURL,
		CancelURL:               cfg.Frontend.CheckoutCancelURL,
		APIBaseURL:              cfg.Stripe.APIBaseURL,
		WebhookToleranceSeconds: cfg.Stripe.WebhookToleranceSeconds,
		PaymentMethodTypes:      cfg.Stripe.PaymentMethodTypes,
	}
	if err := stripe.ValidateConfig(stripeCfg); err != nil {
		logger.Errorw("provider_stripe_config_invalid", "error", err)
		return nil
	}
	return stripe.NewClient(stripeCfg)
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.AnnouncementRepo = repository.NewAnnouncementRepository(db)
	c.AnnouncementPaymentRepo = repository.NewAnnouncementPaymentRepository(db)
	c.AnnouncementPackageRepo = repository.NewAnnouncementPackageRepository(db)
	c.PromotionPackageRepo = repository.NewPromotionPackageRepository(db)
	c.DiscountRepo = repository.NewDiscountRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	// 队列可用时邮件走异步任务，由 worker 调用 EmailService 发送
	c.Notifier = c.EmailService
	if c.QueueClient.Enabled() {
		c.Notifier = c.QueueClient
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo, c.Cache)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.Cache)
	c.DiscountService = service.NewDiscountService(c.DiscountRepo)
	c.PricingService = service.NewPricingService(
		c.AnnouncementPackageRepo,
		c.PromotionPackageRepo,
		c.DiscountRepo,
		c.Cache,
		time.Duration(c.Config.Catalog.CacheTTLSeconds)*time.Second,
	)
	c.AnnouncementPaymentService = service.NewAnnouncementPaymentService(service.AnnouncementPaymentServiceOptions{
		AnnouncementRepo: c.AnnouncementRepo,
		PaymentRepo:      c.AnnouncementPaymentRepo,
		PackageRepo:      c.AnnouncementPackageRepo,
		PromotionRepo:    c.PromotionPackageRepo,
		DiscountRepo:     c.DiscountRepo,
		UserRepo:         c.UserRepo,
		Notifier:         c.Notifier,
		Metrics:          c.Metrics,
		FrontendURL:      c.Config.Frontend.URL,
	})

	var gateway service.PaymentGateway
	if c.Stripe != nil {
		gateway = c.Stripe
	}
	c.CheckoutService = service.NewCheckoutService(
		c.AnnouncementRepo,
		c.AnnouncementPackageRepo,
		c.PromotionPackageRepo,
		c.DiscountService,
		c.AnnouncementPaymentService,
		gateway,
	)
	c.ListingService = service.NewListingService(service.ListingServiceOptions{
		AnnouncementRepo: c.AnnouncementRepo,
		PaymentRepo:      c.AnnouncementPaymentRepo,
		Metrics:          c.Metrics,
		RankingMode:      c.Config.Listing.RankingMode,
		DefaultPageSize:  c.Config.Listing.DefaultPageSize,
		MaxPageSize:      c.Config.Listing.MaxPageSize,
	})
	c.ExpirationService = service.NewExpirationService(service.ExpirationServiceOptions{
		AnnouncementRepo: c.AnnouncementRepo,
		PaymentRepo:      c.AnnouncementPaymentRepo,
		UserRepo:         c.UserRepo,
		Notifier:         c.Notifier,
		Metrics:          c.Metrics,
		Location:         c.Config.Schedule.Location(),
		FrontendURL:      c.Config.Frontend.URL,
		BatchSize:        c.Config.Schedule.ExpirationBatchSize,
	})
	c.CleanupService = service.NewCleanupService(c.AnnouncementRepo, c.Media, c.Metrics, c.Config.Media.RootFolder)
	c.CatalogAdminService = service.NewCatalogAdminService(
		c.AnnouncementPackageRepo,
		c.PromotionPackageRepo,
		c.DiscountRepo,
		c.AnnouncementPaymentRepo,
		c.PricingService,
	)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := c.Cache.Close(); err != nil {
		logger.Warnw("provider_close_cache_failed", "error", err)
	}
}
