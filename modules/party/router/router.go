package router

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/controller"

	"github.com/labstack/echo/v4"
)

type PartyRouter struct {
	controller *controller.PartyController
}

func NewPartyRouter(controller *controller.PartyController) *PartyRouter {
	return &PartyRouter{
		controller: controller,
	}
}

func (r *PartyRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	parties := g.Group("/parties")
	parties.Use(mw.AuthMiddleware())

	parties.POST("", r.controller.CreateParty)
	parties.GET("/expired", r.controller.ListExpiredParties)
	parties.GET("/code/:code", r.controller.GetPartyByShareCode)
	parties.GET("/:id", r.controller.GetParty)
	parties.POST("/:id/cancel", r.controller.CancelParty)
	parties.POST("/:id/restore", r.controller.RestoreParty)
}
