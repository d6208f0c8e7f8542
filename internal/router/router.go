package router

import (
	"time"

	"eims/internal/access"
	"eims/internal/database"
	"eims/internal/handlers"
	"eims/internal/middleware"
	"eims/internal/models"
	"eims/internal/services"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {
	db := database.GetDB()
	sessions := access.NewSessionContextService(db, database.GetSessionCache())
	auth := middleware.NewAuthMiddleware(db, sessions)

	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// JWT认证路由
		authHandler := handlers.NewAuthHandler(userService, sessions)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", auth.RequireLogin(), authHandler.Logout)
			authGroup.POST("/refresh", authHandler.RefreshToken)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 用户账号路由（系统管理面，settings模块）
		userHandler := handlers.NewUserHandler(userService, sessions, auditService)
		users := api.Group("/users", auth.RequireLogin())
		{
			users.POST("", auth.RequireModulePermission(models.ModuleSettings, models.ActionCreate), userHandler.Create)
			users.GET("", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), userHandler.GetAll)
			users.GET("/:id", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), userHandler.GetByID)
			users.PUT("/:id", auth.RequireModulePermission(models.ModuleSettings, models.ActionModify), userHandler.Update)
			users.PUT("/:id/role", auth.RequireModulePermission(models.ModuleSettings, models.ActionFull), userHandler.UpdateRole)
			users.DELETE("/:id", auth.RequireModulePermission(models.ModuleSettings, models.ActionDelete), userHandler.Delete)
			users.POST("/:id/reset-password", auth.RequireModulePermission(models.ModuleSettings, models.ActionFull), userHandler.ResetPassword)
			users.GET("/login-logs", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), userHandler.GetLoginLogs)
		}

		// 分支机构路由（settings模块）
		branchHandler := handlers.NewBranchHandler(services.NewBranchService(db))
		branches := api.Group("/branches", auth.RequireLogin())
		{
			branches.POST("", auth.RequireModulePermission(models.ModuleSettings, models.ActionCreate), branchHandler.Create)
			branches.GET("", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), branchHandler.GetAll)
			branches.GET("/stats", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), branchHandler.GetStats)
			branches.GET("/:id", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), branchHandler.GetByID)
			branches.PUT("/:id", auth.RequireModulePermission(models.ModuleSettings, models.ActionModify), branchHandler.Update)
			branches.DELETE("/:id", auth.RequireModulePermission(models.ModuleSettings, models.ActionDelete), branchHandler.Delete)
		}

		// 权限矩阵路由（settings模块）
		permissionHandler := handlers.NewPermissionHandler(services.NewPermissionService(db), auditService)
		permissions := api.Group("/permissions", auth.RequireLogin())
		{
			permissions.GET("", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), permissionHandler.GetAll)
			permissions.GET("/role/:role", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), permissionHandler.GetByRole)
			permissions.PUT("", auth.RequireModulePermission(models.ModuleSettings, models.ActionFull), permissionHandler.UpdateGrant)
		}

		// 课程路由（courses模块，全局资源）
		courseHandler := handlers.NewCourseHandler(services.NewCourseService(db))
		courses := api.Group("/courses", auth.RequireLogin())
		{
			courses.POST("", auth.RequireModulePermission(models.ModuleCourses, models.ActionCreate), courseHandler.Create)
			courses.GET("", auth.RequireModulePermission(models.ModuleCourses, models.ActionRead), courseHandler.GetAll)
			courses.GET("/:id", auth.RequireModulePermission(models.ModuleCourses, models.ActionRead), courseHandler.GetByID)
			courses.PUT("/:id", auth.RequireModulePermission(models.ModuleCourses, models.ActionModify), courseHandler.Update)
			courses.DELETE("/:id", auth.RequireModulePermission(models.ModuleCourses, models.ActionDelete), courseHandler.Delete)
		}

		// 班级路由（batches模块，分支范围 + 讲师收窄）
		batchService := services.NewBatchService(db)
		batchHandler := handlers.NewBatchHandler(batchService, auditService)
		batches := api.Group("/batches", auth.RequireLogin())
		{
			batches.POST("", auth.RequireModulePermission(models.ModuleBatches, models.ActionCreate), batchHandler.Create)
			batches.GET("", auth.RequireModulePermission(models.ModuleBatches, models.ActionRead), batchHandler.GetAll)
			batches.GET("/:id", auth.RequireModulePermission(models.ModuleBatches, models.ActionRead), batchHandler.GetByID)
			batches.PUT("/:id", auth.RequireModulePermission(models.ModuleBatches, models.ActionModify), batchHandler.Update)
			batches.DELETE("/:id", auth.RequireModulePermission(models.ModuleBatches, models.ActionDelete), batchHandler.Delete)

			// 讲师指派
			batches.POST("/:id/trainers", auth.RequireModulePermission(models.ModuleBatches, models.ActionModify), batchHandler.AssignTrainer)
			batches.DELETE("/:id/trainers/:trainer_id", auth.RequireModulePermission(models.ModuleBatches, models.ActionModify), batchHandler.RemoveTrainer)
			batches.GET("/:id/trainers", auth.RequireModulePermission(models.ModuleBatches, models.ActionRead), batchHandler.GetTrainers)
		}

		// 学员路由（students模块，分支范围）
		studentService := services.NewStudentService(db)
		studentHandler := handlers.NewStudentHandler(studentService)
		students := api.Group("/students", auth.RequireLogin())
		{
			students.POST("", auth.RequireModulePermission(models.ModuleStudents, models.ActionCreate), studentHandler.Enroll)
			students.GET("", auth.RequireModulePermission(models.ModuleStudents, models.ActionRead), studentHandler.GetAll)
			students.GET("/:id", auth.RequireModulePermission(models.ModuleStudents, models.ActionRead), studentHandler.GetByID)
			students.PUT("/:id", auth.RequireModulePermission(models.ModuleStudents, models.ActionModify), studentHandler.Update)
			students.DELETE("/:id", auth.RequireModulePermission(models.ModuleStudents, models.ActionDelete), studentHandler.Delete)
		}

		// 考勤路由（attendance模块，分支范围 + 讲师收窄）
		attendanceHandler := handlers.NewAttendanceHandler(services.NewAttendanceService(db), batchService)
		attendance := api.Group("/attendance", auth.RequireLogin())
		{
			attendance.POST("/mark", auth.RequireModulePermission(models.ModuleAttendance, models.ActionWrite), attendanceHandler.MarkBatch)
			attendance.GET("", auth.RequireModulePermission(models.ModuleAttendance, models.ActionRead), attendanceHandler.GetAll)
			attendance.GET("/batch/:batch_id", auth.RequireModulePermission(models.ModuleAttendance, models.ActionRead), attendanceHandler.GetBatchSheet)
			attendance.PUT("/:id", auth.RequireModulePermission(models.ModuleAttendance, models.ActionModify), attendanceHandler.UpdateRecord)
		}

		// 费用与收款路由（finance模块，分支范围）
		financeHandler := handlers.NewFinanceHandler(services.NewFinanceService(db), studentService, auditService)
		finance := api.Group("/finance", auth.RequireLogin())
		{
			finance.POST("/invoices", auth.RequireModulePermission(models.ModuleFinance, models.ActionCreate), financeHandler.CreateInvoice)
			finance.GET("/invoices", auth.RequireModulePermission(models.ModuleFinance, models.ActionRead), financeHandler.GetInvoices)
			finance.GET("/invoices/:id", auth.RequireModulePermission(models.ModuleFinance, models.ActionRead), financeHandler.GetInvoiceByID)
			finance.POST("/invoices/:id/cancel", auth.RequireModulePermission(models.ModuleFinance, models.ActionDelete), financeHandler.CancelInvoice)

			finance.POST("/payments", auth.RequireModulePermission(models.ModuleFinance, models.ActionWrite), financeHandler.RecordPayment)
			finance.GET("/payments", auth.RequireModulePermission(models.ModuleFinance, models.ActionRead), financeHandler.GetPayments)
		}

		// 员工路由（staff模块，分支范围）
		staffHandler := handlers.NewStaffHandler(services.NewStaffService(db, sessions), auditService)
		staff := api.Group("/staff", auth.RequireLogin())
		{
			staff.GET("", auth.RequireModulePermission(models.ModuleStaff, models.ActionRead), staffHandler.GetAll)
			staff.POST("/profiles", auth.RequireModulePermission(models.ModuleStaff, models.ActionCreate), staffHandler.CreateProfile)
			staff.GET("/profiles/:user_id", auth.RequireModulePermission(models.ModuleStaff, models.ActionRead), staffHandler.GetByUserID)
			staff.PUT("/profiles/:user_id", auth.RequireModulePermission(models.ModuleStaff, models.ActionModify), staffHandler.UpdateProfile)
			staff.DELETE("/profiles/:user_id", auth.RequireModulePermission(models.ModuleStaff, models.ActionDelete), staffHandler.DeleteProfile)

			// 分支指派（变更后立即失效对应用户的会话上下文）
			staff.POST("/assignments", auth.RequireModulePermission(models.ModuleStaff, models.ActionWrite), staffHandler.AssignToBranch)
			staff.DELETE("/assignments/:user_id/:branch_id", auth.RequireModulePermission(models.ModuleStaff, models.ActionWrite), staffHandler.RemoveFromBranch)
			staff.GET("/assignments/:user_id", auth.RequireModulePermission(models.ModuleStaff, models.ActionRead), staffHandler.GetUserAssignments)
			staff.GET("/branches/:branch_id/members", auth.RequireModulePermission(models.ModuleStaff, models.ActionRead), staffHandler.GetBranchMembers)
		}

		// 审计日志路由（settings模块）
		auditHandler := handlers.NewAuditHandler(auditService)
		audit := api.Group("/audit-logs", auth.RequireLogin())
		{
			audit.GET("", auth.RequireModulePermission(models.ModuleSettings, models.ActionRead), auditHandler.GetAll)
		}

		// 报表路由（reports模块，导出单独走export动作）
		reportHandler := handlers.NewReportHandler(services.NewReportService(db))
		reports := api.Group("/reports", auth.RequireLogin())
		{
			reports.GET("/attendance", auth.RequireModulePermission(models.ModuleReports, models.ActionRead), reportHandler.AttendanceSummary)
			reports.GET("/finance", auth.RequireModulePermission(models.ModuleReports, models.ActionRead), reportHandler.FinanceSummary)
			reports.GET("/attendance/export", auth.RequireModulePermission(models.ModuleReports, models.ActionExport), reportHandler.ExportAttendance)
			reports.GET("/finance/export", auth.RequireModulePermission(models.ModuleReports, models.ActionExport), reportHandler.ExportFinance)
		}
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "EIMS",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
