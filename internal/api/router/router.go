package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-booking/backend/config"
	"campus-booking/backend/internal/api/handler"
	"campus-booking/backend/internal/api/middleware"
	"campus-booking/backend/internal/model"
	"campus-booking/backend/pkg/jwt"
	pkgredis "campus-booking/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *pkgredis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录注册限速防爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.GET("/advisors", h.Auth.ListAdvisors)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/my-students", middleware.RoleAuth(model.RoleStaff), h.User.GetMyStudents)
				users.GET("/my-students/stats", middleware.RoleAuth(model.RoleStaff), h.User.GetMyStudentsStats)
				users.GET("", middleware.RoleAuth(model.RoleAdmin), h.User.ListUsers)
				users.GET("/:id", middleware.RoleAuth(model.RoleAdmin), h.User.GetUser)
				users.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.User.UpdateUser)
				users.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.User.DeleteUser)
			}

			// 资源模块
			resources := authorized.Group("/resources")
			{
				resources.GET("", h.Resource.ListResources)
				resources.GET("/:id", h.Resource.GetResource)
				resources.POST("", middleware.RoleAuth(model.RoleAdmin), h.Resource.CreateResource)
				resources.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Resource.UpdateResource)
				resources.PATCH("/:id/status", middleware.RoleAuth(model.RoleAdmin), h.Resource.ChangeResourceStatus)
			}

			// 预约模块
			bookings := authorized.Group("/bookings")
			{
				bookings.POST("", h.Booking.CreateBooking)
				bookings.GET("/my", h.Booking.GetMyBookings)
				bookings.GET("/slots/:resourceId", h.Booking.GetAvailableSlots)
				bookings.GET("/all", middleware.RoleAuth(model.RoleAdmin), h.Booking.GetAllBookings)
				bookings.GET("/:id/history", h.Booking.GetBookingHistory)

				// 审批流转（导师阶段允许管理员越权代行，归属校验在 Service 层）
				bookings.GET("/pending-staff", middleware.RoleAuth(model.RoleStaff, model.RoleAdmin), h.Approval.GetPendingForStaff)
				bookings.GET("/pending-admin", middleware.RoleAuth(model.RoleAdmin), h.Approval.GetPendingForAdmin)
				bookings.GET("/my-students", middleware.RoleAuth(model.RoleStaff), h.Approval.GetStaffStudentBookings)
				bookings.GET("/my-students/stats", middleware.RoleAuth(model.RoleStaff), h.Approval.GetStaffBookingStats)
				bookings.POST("/:id/staff-approve", middleware.RoleAuth(model.RoleStaff, model.RoleAdmin), h.Approval.StaffApprove)
				bookings.POST("/:id/staff-reject", middleware.RoleAuth(model.RoleStaff, model.RoleAdmin), h.Approval.StaffReject)
				bookings.POST("/:id/admin-approve", middleware.RoleAuth(model.RoleAdmin), h.Approval.AdminApprove)
				bookings.POST("/:id/admin-reject", middleware.RoleAuth(model.RoleAdmin), h.Approval.AdminReject)
			}

			// 配额策略模块
			policies := authorized.Group("/policies")
			{
				policies.GET("/remaining", h.Policy.GetRemaining)
				policies.GET("", middleware.RoleAuth(model.RoleAdmin), h.Policy.ListPolicies)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/bookings", middleware.RoleAuth(model.RoleAdmin), h.Export.ExportBookingsReport)
				export.GET("/my-calendar", h.Export.ExportMyCalendar)
			}
		}
	}

	return r
}
