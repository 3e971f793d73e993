package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterStudentRoutes 学生档案与监护人
func (rt *Router) RegisterStudentRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Student

	student := rg.Group("/students")
	student.Use(staffAndTeachers())
	{
		student.GET("", h.List)
		student.GET("/:id", h.Get)
		student.POST("", staffOnly(), h.Create)
		student.PUT("/:id", staffOnly(), h.Update)
		student.DELETE("/:id", staffOnly(), h.Delete)
		student.POST("/:id/class", staffOnly(), h.AssignClass)
		student.PATCH("/:id/status", staffOnly(), h.UpdateStatus)
		student.POST("/batch-status", staffOnly(), h.BatchUpdateStatus)
		student.POST("/:id/guardians", staffOnly(), h.AddGuardian)
		student.DELETE("/:id/guardians/:gid", staffOnly(), h.RemoveGuardian)
	}
}

// RegisterEnrollmentRoutes 入园申请
// 家长提交与查看自己的申请，审核仅管理员与园长
func (rt *Router) RegisterEnrollmentRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Enrollment

	enrollment := rg.Group("/enrollments")
	{
		enrollment.POST("", h.Submit)
		enrollment.GET("", h.List)
		enrollment.GET("/:id", h.Get)
		enrollment.POST("/:id/approve", staffOnly(), h.Approve)
		enrollment.POST("/:id/reject", staffOnly(), h.Reject)
	}
}
