package system

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/config"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/services"
)

var cacheSyncClient *services.CacheSyncClient

func SetupSystemRoutes(app *fiber.App, cacheSync *services.CacheSyncClient) {
	cacheSyncClient = cacheSync

	app.Get("/api/system/health", HealthAPI)
}

// HealthAPI reports database and recognition-service health.
func HealthAPI(c *fiber.Ctx) error {
	dbStatus := "healthy"
	if err := config.GetDB().Ping(); err != nil {
		dbStatus = "unreachable"
	}

	recognitionStatus := "healthy"
	if err := cacheSyncClient.Health(c.Context()); err != nil {
		recognitionStatus = "unreachable"
	}

	healthy := dbStatus == "healthy" && recognitionStatus == "healthy"
	status := 200
	if !healthy {
		status = 503
	}

	return c.Status(status).JSON(fiber.Map{
		"healthy":     healthy,
		"database":    dbStatus,
		"recognition": recognitionStatus,
	})
}
