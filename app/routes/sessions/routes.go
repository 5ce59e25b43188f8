package sessions

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/services"
)

var sessionService *services.SessionService

func SetupSessionRoutes(app *fiber.App, svc *services.SessionService) {
	sessionService = svc

	api := app.Group("/api/sessions")
	api.Post("/", CreateSessionAPI)
	api.Get("/:id", GetSessionAPI)
	api.Post("/:id/complete", CompleteSessionAPI)
	api.Delete("/:id", DeleteSessionAPI)
	api.Get("/class/:classId", GetSessionsByClassAPI)
}
