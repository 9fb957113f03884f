package routes

import (
	"todo-api/internal/controller"
	"todo-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Handler   *controller.Handler
	Auth      middleware.Authenticator
	DB        controller.Pinger
	Cache     controller.Pinger
	APIPrefix string
}

func Router(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// Health for load balancers and K8s probes
	router.GET("/health", controller.Health)
	router.GET("/ready", controller.Ready(d.DB, d.Cache))

	h := d.Handler
	api := router.Group(d.APIPrefix)

	// Public: no auth
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/token/refresh", h.RefreshToken)

	// Protected: JWT required
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(d.Auth))
	{
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/auth/profile", h.Profile)
		authed.PUT("/auth/profile", h.UpdateProfile)
		authed.PATCH("/auth/profile", h.UpdateProfile)
		authed.POST("/auth/password", h.ChangePassword)
		authed.POST("/auth/change-password", h.ChangePassword)

		authed.GET("/todos", h.ListTodos)
		authed.POST("/todos", h.CreateTodo)
		authed.GET("/todos/stats", h.GetStats)
		authed.POST("/todos/reorder", h.ReorderTodos)
		authed.POST("/todos/bulk-update", h.BulkUpdateTodos)
		authed.DELETE("/todos/clear-completed", h.ClearCompleted)
		authed.GET("/todos/:id", h.GetTodo)
		authed.PUT("/todos/:id", h.ReplaceTodo)
		authed.PATCH("/todos/:id", h.PatchTodo)
		authed.DELETE("/todos/:id", h.DeleteTodo)
		authed.PATCH("/todos/:id/toggle", h.ToggleTodo)

		authed.GET("/categories", h.ListCategories)
		authed.POST("/categories", h.CreateCategory)
		authed.GET("/categories/:id", h.GetCategory)
		authed.PUT("/categories/:id", h.ReplaceCategory)
		authed.PATCH("/categories/:id", h.PatchCategory)
		authed.DELETE("/categories/:id", h.DeleteCategory)
	}

	return router
}
