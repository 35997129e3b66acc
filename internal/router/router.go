package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/partnerdesk/internal/authz"
	"github.com/partnerdesk/internal/cache"
	"github.com/partnerdesk/internal/config"
	adminhandlers "github.com/partnerdesk/internal/http/handlers/admin"
	publichandlers "github.com/partnerdesk/internal/http/handlers/public"
	"github.com/partnerdesk/internal/http/response"
	"github.com/partnerdesk/internal/logger"
	"github.com/partnerdesk/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pd"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	trackRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:track", redisPrefix),
		WindowSeconds: cfg.Security.TrackRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.TrackRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.TrackRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/tiers", publicHandler.GetTiers)
			public.GET("/affiliates/:code", publicHandler.GetAffiliateByCode)
		}

		// 推广埋点接口（按 IP 限流）
		track := apiV1.Group("/track")
		track.Use(RateLimitMiddleware(redisClient, trackRule, KeyByIP))
		{
			track.POST("/:code/click", publicHandler.TrackClick)
			track.POST("/:code/conversion", publicHandler.TrackConversion)
			track.POST("/:code/referral", publicHandler.TrackReferral)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
				authorized.GET("/dashboard/trends", adminHandler.GetDashboardTrends)

				// 推广档案管理
				authorized.GET("/affiliates", adminHandler.ListAffiliateProfiles)
				authorized.POST("/affiliates", adminHandler.OpenAffiliateProfile)
				authorized.GET("/affiliates/:id", adminHandler.GetAffiliateProfile)
				authorized.PATCH("/affiliates/:id/status", adminHandler.UpdateAffiliateProfileStatus)
				authorized.PATCH("/affiliates/:id/compliance", adminHandler.UpdateAffiliateCompliance)
				authorized.GET("/affiliates/:id/progress", adminHandler.GetTierProgress)

				// 等级管理
				authorized.GET("/tiers", adminHandler.ListTiers)
				authorized.POST("/tiers", adminHandler.CreateTier)
				authorized.GET("/tiers/stats", adminHandler.GetTierStats)
				authorized.GET("/tiers/assignments", adminHandler.ListTierAssignments)
				authorized.POST("/tiers/assign", adminHandler.AssignTier)
				authorized.POST("/tiers/auto-assign", adminHandler.RunTierAutoAssign)
				authorized.GET("/tiers/:id", adminHandler.GetTier)
				authorized.PUT("/tiers/:id", adminHandler.UpdateTier)
				authorized.DELETE("/tiers/:id", adminHandler.DeleteTier)
				authorized.GET("/tiers/:id/leaderboard", adminHandler.GetTierLeaderboard)

				// 支付方式管理
				authorized.GET("/payment-methods", adminHandler.ListPaymentMethods)
				authorized.POST("/payment-methods", adminHandler.CreatePaymentMethod)
				authorized.GET("/payment-methods/usage-stats", adminHandler.GetPaymentMethodUsageStats)
				authorized.POST("/payment-methods/validate", adminHandler.ValidatePaymentPreview)
				authorized.POST("/payment-methods/compare", adminHandler.ComparePaymentMethods)
				authorized.GET("/payment-methods/:id", adminHandler.GetPaymentMethod)
				authorized.PUT("/payment-methods/:id", adminHandler.UpdatePaymentMethod)
				authorized.PATCH("/payment-methods/:id/status", adminHandler.UpdatePaymentMethodStatus)
				authorized.GET("/payment-methods/:id/health", adminHandler.GetPaymentMethodHealth)

				// 提现管理
				authorized.GET("/payouts", adminHandler.ListPayouts)
				authorized.POST("/payouts", adminHandler.RequestPayout)
				authorized.GET("/payouts/:id", adminHandler.GetPayout)
				authorized.POST("/payouts/:id/processing", adminHandler.MarkPayoutProcessing)
				authorized.POST("/payouts/:id/complete", adminHandler.CompletePayout)
				authorized.POST("/payouts/:id/fail", adminHandler.FailPayout)
				authorized.POST("/payouts/:id/cancel", adminHandler.CancelPayout)

				// 用户管理
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.PUT("/users/:id", adminHandler.UpdateAdminUser)

				// 设置管理
				authorized.GET("/settings", adminHandler.GetSettings)
				authorized.PUT("/settings", adminHandler.UpdateSettings)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword) // 修改密码

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id", adminHandler.UpdateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
