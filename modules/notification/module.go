package notification

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/queue"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/repository"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/router"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Group, db database.Database, mw *middleware.Middleware, enqueuer queue.Enqueuer, sink service.Sink) *service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, enqueuer, sink)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Register(e, mw)

	return svc
}
