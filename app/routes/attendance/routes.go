package attendance

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/services"
)

var intakeService *services.RecognitionIntakeService

func SetupAttendanceRoutes(app *fiber.App, intake *services.RecognitionIntakeService) {
	intakeService = intake

	api := app.Group("/api/attendance")
	api.Post("/recognize/:sessionId", RecognizeAttendanceAPI)
	api.Post("/manual", MarkManualAttendanceAPI)
	api.Get("/session/:sessionId", GetAttendanceBySessionAPI)
	api.Get("/session/:sessionId/student/:studentId", GetAttendanceRecordAPI)
}
