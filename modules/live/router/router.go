package router

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/controller"

	"github.com/labstack/echo/v4"
)

type LiveRouter struct {
	controller *controller.LiveController
}

func NewLiveRouter(controller *controller.LiveController) *LiveRouter {
	return &LiveRouter{controller: controller}
}

func (r *LiveRouter) Register(e *echo.Group, mw *middleware.Middleware) {
	group := e.Group("/parties/:id/live", mw.AuthMiddleware())
	group.GET("/stream", r.controller.Stream)
	group.POST("/location", r.controller.PublishLocation)
	group.POST("/chat", r.controller.PublishChat)
	group.POST("/status", r.controller.PublishStatus)
}
