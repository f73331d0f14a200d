package joinrequest

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/repository"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/router"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/service"
	membershipService "github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/service"
	notifService "github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/service"
	partyRepo "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/repository"

	"github.com/labstack/echo/v4"
)

func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, membership membershipService.MembershipServiceInterface, notifier *notifService.NotificationService) service.JoinRequestServiceInterface {
	repo := repository.NewJoinRequestRepository(db)
	parties := partyRepo.NewPartyRepository(db)
	svc := service.NewJoinRequestService(repo, parties, membership, notifier)
	ctrl := controller.NewJoinRequestController(svc)

	router.NewJoinRequestRouter(ctrl).Register(g, mw)

	return svc
}
