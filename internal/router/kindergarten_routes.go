package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterKindergartenRoutes 园所、班级、教师
// 读接口对教职工开放，写接口仅管理员与园长
func (rt *Router) RegisterKindergartenRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Kindergarten

	kg := rg.Group("/kindergartens")
	{
		kg.GET("", h.ListKindergartens)
		kg.GET("/:id", h.GetKindergarten)
		kg.POST("", staffOnly(), h.CreateKindergarten)
		kg.PUT("/:id", staffOnly(), h.UpdateKindergarten)
		kg.DELETE("/:id", staffOnly(), h.DeleteKindergarten)
	}

	class := rg.Group("/classes")
	class.Use(staffAndTeachers())
	{
		class.GET("", h.ListClasses)
		class.GET("/:id", h.GetClass)
		class.GET("/:id/students", h.ListClassStudents)
		class.POST("", staffOnly(), h.CreateClass)
		class.PUT("/:id", staffOnly(), h.UpdateClass)
		class.DELETE("/:id", staffOnly(), h.DeleteClass)
		class.POST("/:id/head-teacher", staffOnly(), h.AssignHeadTeacher)
	}

	teacher := rg.Group("/teachers")
	teacher.Use(staffAndTeachers())
	{
		teacher.GET("", h.ListTeachers)
		teacher.GET("/:id", h.GetTeacher)
		teacher.POST("", staffOnly(), h.CreateTeacher)
		teacher.PUT("/:id", staffOnly(), h.UpdateTeacher)
		teacher.PATCH("/:id/status", staffOnly(), h.UpdateTeacherStatus)
		teacher.DELETE("/:id", staffOnly(), h.DeleteTeacher)
	}
}
