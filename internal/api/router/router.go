package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"academy-portal/backend/config"
	"academy-portal/backend/internal/api/handler"
	"academy-portal/backend/internal/api/middleware"
	"academy-portal/backend/pkg/jwt"
	"academy-portal/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			// 登录走防爆破限流：每 IP 每分钟 10 次
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/register", middleware.RoleAuth("admin"), h.Auth.Register)
			authorized.GET("/auth/users", middleware.RoleAuth("admin"), h.Auth.ListUsers)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 学生模块
			students := authorized.Group("/students")
			{
				students.GET("", h.Student.List)
				students.GET("/:id", h.Student.Get)
				students.POST("", middleware.RoleAuth("admin"), h.Student.Create)
				students.PATCH("/:id", h.Student.Update)
				students.DELETE("/:id", middleware.RoleAuth("admin"), h.Student.Delete)

				// 课表模块（挂在学生资源下）
				students.PUT("/:id/timetable", h.Timetable.Save)
				students.GET("/:id/timetable", h.Timetable.GetResolved)
				students.GET("/:id/timetable/partition", h.Timetable.DayPartition)
				students.POST("/:id/timetable/import-ics", h.Timetable.ImportICS)
			}

			// 考勤模块
			attendance := authorized.Group("/attendance")
			{
				// 扫码打卡限流：每 IP 每分钟 30 次
				qrLimit := middleware.RateLimit(rdb, 30, time.Minute)
				attendance.POST("/check-in", qrLimit, h.Attendance.CheckIn)
				attendance.POST("/check-out", qrLimit, h.Attendance.CheckOut)
				attendance.POST("/segments/start", h.Attendance.StartSegment)
				attendance.POST("/segments/end", h.Attendance.EndSegment)
				attendance.POST("/status", h.Attendance.SetStatus)
				attendance.GET("/seats", h.Attendance.ListSeatStatuses)
				attendance.GET("/occupancy", h.Attendance.OccupancyGrid)
				attendance.GET("/students/:id/status", h.Attendance.GetLiveStatus)
				attendance.GET("/students/:id/summary", h.Attendance.DailySummary)
				attendance.GET("/students/:id/summary/range", h.Attendance.RangeSummary)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/attendance", h.Export.ExportMonthly)
			}
		}
	}

	return r
}
