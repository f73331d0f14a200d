package router

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/controller"

	"github.com/labstack/echo/v4"
)

type JoinRequestRouter struct {
	controller *controller.JoinRequestController
}

func NewJoinRequestRouter(controller *controller.JoinRequestController) *JoinRequestRouter {
	return &JoinRequestRouter{controller: controller}
}

func (r *JoinRequestRouter) Register(e *echo.Group, mw *middleware.Middleware) {
	parties := e.Group("/parties", mw.AuthMiddleware())
	parties.POST("/:id/requests", r.controller.CreateRequest)
	parties.GET("/:id/requests", r.controller.ListPending)
	parties.GET("/:id/requests/count", r.controller.PendingCount)

	requests := e.Group("/requests", mw.AuthMiddleware())
	requests.POST("/:id/approve", r.controller.Approve)
	requests.POST("/:id/decline", r.controller.Decline)
}
