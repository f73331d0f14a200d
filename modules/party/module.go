package party

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/lock"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/queue"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/repository"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/router"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/service"

	"github.com/labstack/echo/v4"
)

// Init wires the party module and returns the service for use by other
// modules and by the queue handlers.
func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, cfg *config.Config, locks *lock.KeyMutex, enqueuer queue.Enqueuer, occupancy service.OccupancyReader) service.PartyServiceInterface {
	repo := repository.NewPartyRepository(db)
	svc := service.NewPartyService(repo, occupancy, enqueuer, locks, cfg)
	ctrl := controller.NewPartyController(svc)
	r := router.NewPartyRouter(ctrl)

	r.Register(g, mw)

	return svc
}
