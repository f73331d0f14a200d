package router

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/controller"

	"github.com/labstack/echo/v4"
)

type MembershipRouter struct {
	controller *controller.MembershipController
}

func NewMembershipRouter(controller *controller.MembershipController) *MembershipRouter {
	return &MembershipRouter{
		controller: controller,
	}
}

func (r *MembershipRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	parties := g.Group("/parties")
	parties.Use(mw.AuthMiddleware())

	parties.POST("/:id/join", r.controller.JoinParty)
	parties.POST("/:id/leave", r.controller.LeaveParty)
	parties.POST("/:id/kick", r.controller.KickMember)
	parties.GET("/:id/members", r.controller.GetRoster)
	parties.GET("/:id/members/count", r.controller.CountMembers)
}
