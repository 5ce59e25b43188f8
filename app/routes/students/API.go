package students

import (
	"database/sql"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/config"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

func CreateStudentAPI(c *fiber.Ctx) error {
	type StudentRequest struct {
		StudentCode string `json:"student_code" validate:"required"`
		FirstName   string `json:"first_name" validate:"required"`
		LastName    string `json:"last_name" validate:"required"`
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.StudentCode == "" || req.FirstName == "" || req.LastName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Student code, first name and last name are required"})
	}

	student := &models.Student{
		ID:          uuid.NewString(),
		StudentCode: req.StudentCode,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		IsActive:    true,
	}

	if err := database.CreateStudent(config.GetDB(), student); err != nil {
		if database.IsUniqueViolation(err) {
			return c.Status(409).JSON(fiber.Map{"error": "A student with this code already exists"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create student"})
	}

	return c.Status(201).JSON(fiber.Map{"student": student})
}

// EnrollStudentAPI activates the student's enrollment in a class. The
// external cache is refreshed best-effort so the new face is available for
// the class's next session without waiting for a preload job.
func EnrollStudentAPI(c *fiber.Ctx) error {
	type EnrollRequest struct {
		StudentID string `json:"student_id" validate:"required,uuid"`
		ClassID   string `json:"class_id" validate:"required,uuid"`
	}

	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.StudentID == "" || req.ClassID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Student ID and class ID are required"})
	}

	db := config.GetDB()

	if _, err := database.GetStudentByID(db, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Student not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch student"})
	}
	if _, err := database.GetClassByID(db, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Class not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch class"})
	}

	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Status:    models.EnrollmentActive,
	}

	if err := database.CreateEnrollment(db, enrollment); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create enrollment"})
	}

	if _, err := cacheSyncClient.Preload(c.Context(), req.ClassID); err != nil {
		log.Printf("Best-effort cache preload after enrollment failed for class %s: %v", req.ClassID, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message":    "Student enrolled successfully",
		"enrollment": enrollment,
	})
}

// RegisterFaceAPI uploads one face template for a student.
func RegisterFaceAPI(c *fiber.Ctx) error {
	studentID := c.Params("id")
	if studentID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Student ID is required"})
	}

	student, err := database.GetStudentByID(config.GetDB(), studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Student not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch student"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Image file is required"})
	}
	image, err := readUpload(fileHeader)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to read image file"})
	}

	resp, err := recognitionClient.Register(c.Context(), student.StudentCode, image, fileHeader.Filename)
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": "Face registration failed: " + err.Error()})
	}

	return c.JSON(fiber.Map{
		"message":        "Face registered successfully",
		"student_id":     student.ID,
		"faces_detected": resp.FacesDetected,
	})
}

// BatchRegisterFacesAPI registers face templates for several students in one
// request. Files go under the "images" field, one per student, named
// "<student_code>.<ext>". One student's failure never aborts the rest.
func BatchRegisterFacesAPI(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Multipart form is required"})
	}
	files := form.File["images"]
	if len(files) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "At least one image file is required"})
	}

	type registerResult struct {
		StudentCode string `json:"student_code"`
		Success     bool   `json:"success"`
		Error       string `json:"error,omitempty"`
	}

	db := config.GetDB()
	results := make([]registerResult, 0, len(files))
	succeeded := 0

	for _, fileHeader := range files {
		code := strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
		result := registerResult{StudentCode: code}

		if _, err := database.GetStudentByCode(db, code); err != nil {
			result.Error = "student not found"
			results = append(results, result)
			continue
		}

		image, err := readUpload(fileHeader)
		if err != nil {
			result.Error = "failed to read image file"
			results = append(results, result)
			continue
		}

		if _, err := recognitionClient.Register(c.Context(), code, image, fileHeader.Filename); err != nil {
			log.Printf("Face registration failed for student %s: %v", code, err)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Success = true
		succeeded++
		results = append(results, result)
	}

	return c.JSON(fiber.Map{
		"results":   results,
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
