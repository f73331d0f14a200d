package live

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/cache"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/router"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/service"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/transport"
	partyRepo "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/repository"

	"github.com/labstack/echo/v4"
)

func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, cfg *config.Config, c cache.Cache) *service.LiveService {
	var t transport.Transport
	if cfg.Party.LiveTransport == "redis" {
		t = transport.NewRedisTransport(c.Client(), cfg.Party.LiveBufferSize)
	} else {
		t = transport.NewHub(cfg.Party.LiveBufferSize)
	}

	parties := partyRepo.NewPartyRepository(db)
	svc := service.NewLiveService(t, parties)
	ctrl := controller.NewLiveController(svc)

	router.NewLiveRouter(ctrl).Register(g, mw)

	return svc
}
