package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guild-ledger/backend/config"
	"guild-ledger/backend/internal/api/handler"
	"guild-ledger/backend/internal/api/middleware"
	"guild-ledger/backend/pkg/jwt"
	"guild-ledger/backend/pkg/metrics"
	"guild-ledger/backend/pkg/redis"
)

// Deps 路由依赖；Redis、Metrics、Realtime 均可为空
type Deps struct {
	Config   *config.Config
	Handler  *handler.Handler
	JWT      *jwt.Manager
	Redis    *redis.Client
	Metrics  *metrics.Manager
	Realtime http.Handler
	// Ping 健康检查时探测数据库
	Ping   func(ctx context.Context) error
	Logger *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	cfg := d.Config
	h := d.Handler
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitMB << 20))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if d.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil && cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Redis 为空时不检查黑名单
	var blacklist middleware.TokenChecker
	if d.Redis != nil {
		blacklist = d.Redis
	}
	requireAdmin := middleware.JWTAuth(d.JWT, blacklist)

	if d.Realtime != nil {
		r.GET("/ws", requireAdmin, gin.WrapH(d.Realtime))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(d.Redis, cfg.Server.LoginPerMin, time.Minute), h.Auth.Login)
			auth.GET("/verify", requireAdmin, h.Auth.Verify)
			auth.POST("/logout", requireAdmin, h.Auth.Logout)
		}

		// 公开的只读列表
		v1.GET("/members", h.Member.ListMembers)
		v1.GET("/bosses", h.Boss.ListBosses)
		v1.GET("/bosses/calendar.ics", h.Export.BossCalendar)
		v1.GET("/loot", h.Loot.ListLoot)

		// 需要管理员认证的路由
		admin := v1.Group("")
		admin.Use(requireAdmin)
		{
			// 成员与角色时间线
			members := admin.Group("/members")
			{
				members.POST("", h.Member.CreateMember)
				members.POST("/attendance/sync", h.Member.SyncAttendance)
				members.POST("/role-history/initialize", h.Member.InitializeRoleHistory)
				members.PUT("/role-history/:periodId", h.Member.UpdateRolePeriod)
				members.DELETE("/role-history/:periodId", h.Member.DeleteRolePeriod)
				members.GET("/:id", h.Member.GetMember)
				members.PUT("/:id", h.Member.UpdateMember)
				members.DELETE("/:id", h.Member.DeleteMember)
				members.GET("/:id/role", h.Member.GetRoleAt)
				members.GET("/:id/role-history", h.Member.GetRoleHistory)
				members.POST("/:id/role-history", h.Member.AddRolePeriod)
				members.GET("/:id/role-history/overlaps", h.Member.GetRoleOverlaps)
			}

			// Boss
			bosses := admin.Group("/bosses")
			{
				bosses.POST("", h.Boss.CreateBoss)
				bosses.PUT("/:id", h.Boss.UpdateBoss)
				bosses.POST("/:id/kill", h.Boss.KillBoss)
				bosses.DELETE("/:id", h.Boss.DeleteBoss)
			}

			// 战利品与工资分配
			loot := admin.Group("/loot")
			{
				loot.POST("", h.Loot.CreateLoot)
				loot.POST("/import", h.Loot.ImportLoot)
				loot.POST("/recalculate", h.Loot.Recalculate)
				loot.GET("/:id", h.Loot.GetLoot)
				loot.PUT("/:id", h.Loot.UpdateLoot)
				loot.PUT("/:id/status", h.Loot.UpdateLootStatus)
				loot.DELETE("/:id", h.Loot.DeleteLoot)
			}

			// 报表
			reports := admin.Group("/reports")
			{
				reports.GET("/financial", h.Report.Financial)
				reports.GET("/financial/export", h.Export.ExportFinancial)
				reports.GET("/members", h.Report.Members)
				reports.GET("/market-exchange", h.Report.MarketExchange)
				reports.GET("/integrity", h.Report.Integrity)
			}
			admin.GET("/dashboard", h.Report.Dashboard)
		}
	}

	return r
}
