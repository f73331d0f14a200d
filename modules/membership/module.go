package membership

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/cache"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/lock"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/repository"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/router"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/service"
	partyRepo "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/repository"

	"github.com/labstack/echo/v4"
)

// Init wires the membership ledger and returns the service for use by
// the party and join-request modules.
func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, c cache.Cache, locks *lock.KeyMutex, dropper service.SubscriptionDropper) service.MembershipServiceInterface {
	repo := repository.NewMembershipRepository(db)
	parties := partyRepo.NewPartyRepository(db)
	svc := service.NewMembershipService(repo, parties, c, locks, dropper)
	ctrl := controller.NewMembershipController(svc)
	r := router.NewMembershipRouter(ctrl)

	r.Register(g, mw)

	return svc
}
