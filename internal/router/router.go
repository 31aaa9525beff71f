package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/imobiliare-next/internal/authz"
	"github.com/imobiliare-next/internal/config"
	adminhandlers "github.com/imobiliare-next/internal/http/handlers/admin"
	publichandlers "github.com/imobiliare-next/internal/http/handlers/public"
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "imo"
	}
	redisClient := c.Cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}
	webhookRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:webhook", redisPrefix),
		WindowSeconds: cfg.Security.WebhookRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WebhookRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.WebhookRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/announcements", publicHandler.GetListings)
			public.GET("/announcements/:id", publicHandler.GetListing)
		}

		// 支付回调（签名校验代替鉴权）
		apiV1.POST("/payments/webhook/stripe", RateLimitMiddleware(redisClient, webhookRule, KeyByIP), publicHandler.StripeWebhook)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserAuthService))
		{
			user.GET("/packages", publicHandler.GetPackages)
			user.GET("/promotions", publicHandler.GetPromotions)
			user.GET("/catalog", publicHandler.GetCatalog)
			user.POST("/payments/checkout", publicHandler.Checkout)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AuthService))
			{
				// 个人设置与权限快照不走 RBAC
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)

				rbac := authorized.Group("")
				rbac.Use(AdminRBACMiddleware(c.AuthzService))

				// 展示套餐
				rbac.GET("/packages", adminHandler.GetAdminPackages)
				rbac.POST("/packages", adminHandler.CreatePackage)
				rbac.PUT("/packages/:id", adminHandler.UpdatePackage)
				rbac.DELETE("/packages/:id", adminHandler.DeletePackage)

				// 推广套餐
				rbac.GET("/promotion-packages", adminHandler.GetAdminPromotionPackages)
				rbac.POST("/promotion-packages", adminHandler.CreatePromotionPackage)
				rbac.PUT("/promotion-packages/:id", adminHandler.UpdatePromotionPackage)
				rbac.DELETE("/promotion-packages/:id", adminHandler.DeletePromotionPackage)

				// 折扣
				rbac.GET("/discounts", adminHandler.GetAdminDiscounts)
				rbac.POST("/discounts", adminHandler.CreateDiscount)
				rbac.PUT("/discounts/:id", adminHandler.UpdateDiscount)
				rbac.DELETE("/discounts/:id", adminHandler.DeleteDiscount)

				// 支付流水
				rbac.GET("/payments", adminHandler.GetAdminPayments)

				// 扫描任务
				rbac.POST("/sweeps/expiration", adminHandler.RunExpirationSweep)
				rbac.POST("/sweeps/cleanup", adminHandler.RunCleanupSweep)

				// 权限管理
				rbac.GET("/authz/roles", adminHandler.ListAuthzRoles)
				rbac.POST("/authz/policies", adminHandler.GrantAuthzRolePolicy)
				rbac.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				rbac.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				rbac.GET("/authz/permissions", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 汇总后台路由，供角色授权界面选择
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
		switch item.Path {
		case "/api/v1/admin/login", "/api/v1/admin/password", "/api/v1/admin/authz/me":
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
	return segments[1]
}
