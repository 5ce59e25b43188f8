package students

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/services"
)

var (
	recognitionClient *services.RecognitionClient
	cacheSyncClient   *services.CacheSyncClient
)

func SetupStudentRoutes(app *fiber.App, recognition *services.RecognitionClient, cacheSync *services.CacheSyncClient) {
	recognitionClient = recognition
	cacheSyncClient = cacheSync

	api := app.Group("/api/students")
	api.Post("/", CreateStudentAPI)
	api.Post("/enroll", EnrollStudentAPI)
	api.Post("/:id/face", RegisterFaceAPI)
	api.Post("/register-faces", BatchRegisterFacesAPI)
}
