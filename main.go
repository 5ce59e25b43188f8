package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/config"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/routes/attendance"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/routes/classes"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/routes/sessions"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/routes/students"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/routes/system"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/services"
)

// apiErrorHandler returns errors as JSON for API clients
func apiErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func main() {
	// Initialize configuration and database
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	defer config.GetDB().Close()

	// Run database migrations
	if err := database.RunMigrations(config.GetDB()); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	db := config.GetDB()
	recCfg := config.GetRecognition()

	// One retry policy shared by every external call
	retry := services.NewRetryPolicy(recCfg.MaxRetries, time.Duration(recCfg.RetryDelaySeconds)*time.Second)

	recognitionClient := services.NewRecognitionClient(
		recCfg.BaseURL,
		time.Duration(recCfg.TimeoutSeconds)*time.Second,
		retry,
	)
	cacheSyncClient := services.NewCacheSyncClient(
		recCfg.BaseURL,
		retry,
		time.Duration(recCfg.PreloadTimeoutSecs)*time.Second,
		time.Duration(recCfg.EvictTimeoutSecs)*time.Second,
		time.Duration(recCfg.HealthTimeoutSecs)*time.Second,
	)

	runner := services.NewJobRunner()
	jobScheduler := services.NewSessionJobScheduler(db, runner, cacheSyncClient,
		recCfg.PreloadLeadMinutes, recCfg.CleanupLagMinutes)

	// Re-arm jobs that were pending when the previous process stopped
	if err := jobScheduler.RestorePending(); err != nil {
		log.Printf("Failed to restore pending jobs: %v", err)
	}

	sessionService := services.NewSessionService(db, jobScheduler, cacheSyncClient)
	intakeService := services.NewRecognitionIntakeService(db, recognitionClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: apiErrorHandler,
		BodyLimit:    20 * 1024 * 1024, // captured frames can be large
	})

	app.Use(cors.New())
	app.Use(logger.New())

	classes.SetupClassRoutes(app)
	sessions.SetupSessionRoutes(app, sessionService)
	attendance.SetupAttendanceRoutes(app, intakeService)
	students.SetupStudentRoutes(app, recognitionClient, cacheSyncClient)
	system.SetupSystemRoutes(app, cacheSyncClient)

	log.Println("Starting server on :3000")
	log.Fatal(app.Listen(":3000"))
}
