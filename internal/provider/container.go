package provider

import (
	"time"

	"github.com/partnerdesk/internal/authz"
	"github.com/partnerdesk/internal/cache"
	"github.com/partnerdesk/internal/config"
	"github.com/partnerdesk/internal/logger"
	"github.com/partnerdesk/internal/models"
	"github.com/partnerdesk/internal/queue"
	"github.com/partnerdesk/internal/repository"
	"github.com/partnerdesk/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	AffiliateRepo     repository.AffiliateRepository
	TierRepo          repository.TierRepository
	PaymentMethodRepo repository.PaymentMethodRepository
	PayoutRepo        repository.PayoutRepository
	SettingRepo       repository.SettingRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository
	DashboardRepo     repository.DashboardRepository

	// Services
	AuthzService         *authz.Service
	AuthService          *service.AuthService
	SettingService       *service.SettingService
	TierService          *service.TierService
	PaymentMethodService *service.PaymentMethodService
	PayoutService        *service.PayoutService
	AffiliateService     *service.AffiliateService
	DashboardService     *service.DashboardService
	AuthzAuditService    *service.AuthzAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.AffiliateRepo = repository.NewAffiliateRepository(db)
	c.TierRepo = repository.NewTierRepository(db)
	c.PaymentMethodRepo = repository.NewPaymentMethodRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
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

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.TierService = service.NewTierService(c.TierRepo, c.AffiliateRepo)
	c.PaymentMethodService = service.NewPaymentMethodService(c.PaymentMethodRepo, c.PayoutRepo, c.AffiliateRepo)
	c.PayoutService = service.NewPayoutService(
		c.PayoutRepo,
		c.PaymentMethodRepo,
		c.AffiliateRepo,
		c.PaymentMethodService,
		c.SettingService,
		c.QueueClient,
		time.Duration(c.Config.Payout.ProcessDelaySeconds)*time.Second,
	)
	c.AffiliateService = service.NewAffiliateService(c.AffiliateRepo, c.UserRepo, c.PayoutRepo, c.TierService, c.QueueClient)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.SettingService)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
}
