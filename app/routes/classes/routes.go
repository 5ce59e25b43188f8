package classes

import (
	"github.com/gofiber/fiber/v2"
)

func SetupClassRoutes(app *fiber.App) {
	api := app.Group("/api/classes")
	api.Get("/", GetClassesAPI)
	api.Post("/", CreateClassAPI)
	api.Get("/:id", GetClassAPI)
	api.Delete("/:id", DeactivateClassAPI)
}
