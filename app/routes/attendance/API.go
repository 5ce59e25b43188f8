package attendance

import (
	"database/sql"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/config"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/services"
)

// RecognizeAttendanceAPI accepts a captured frame (multipart field "image")
// and runs it through the recognition intake for the session. Soft failures
// (no face, no match, save failed) come back as 200 with success=false.
func RecognizeAttendanceAPI(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID is required"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Image file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to read image file"})
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to read image file"})
	}

	outcome, err := intakeService.Process(c.Context(), sessionID, image, fileHeader.Filename)
	if err != nil {
		return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(outcome)
}

// MarkManualAttendanceAPI creates or updates a record by hand. Manual marks
// may always overwrite, including records the recognition path created.
func MarkManualAttendanceAPI(c *fiber.Ctx) error {
	type ManualRequest struct {
		SessionID string  `json:"session_id" validate:"required,uuid"`
		StudentID string  `json:"student_id" validate:"required,uuid"`
		Status    string  `json:"status" validate:"required,oneof=present absent late excused"`
		Notes     *string `json:"notes,omitempty"`
	}

	var req ManualRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.SessionID == "" || req.StudentID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID and student ID are required"})
	}

	var status models.AttendanceStatus
	switch req.Status {
	case "present":
		status = models.Present
	case "absent":
		status = models.Absent
	case "late":
		status = models.Late
	case "excused":
		status = models.Excused
	default:
		return c.Status(400).JSON(fiber.Map{"error": "Invalid status. Must be present, absent, late, or excused"})
	}

	db := config.GetDB()

	session, err := database.GetSessionByID(db, req.SessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Session not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch session"})
	}
	if session.Status != models.SessionInProgress {
		return c.Status(400).JSON(fiber.Map{"error": "Session is not in progress"})
	}

	student, err := database.GetStudentByID(db, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Student not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch student"})
	}

	enrolled, err := database.HasActiveEnrollment(db, student.ID, session.ClassID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to check enrollment"})
	}
	if !enrolled {
		return c.Status(400).JSON(fiber.Map{"error": "Student is not actively enrolled in this class"})
	}

	record := &models.AttendanceRecord{
		ID:               uuid.NewString(),
		SessionID:        req.SessionID,
		StudentID:        req.StudentID,
		Status:           status,
		CheckInTime:      time.Now(),
		IsManualOverride: true,
		Notes:            req.Notes,
	}

	if err := database.UpsertManualAttendance(db, record); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to save attendance record"})
	}

	return c.JSON(fiber.Map{
		"message": "Attendance record saved successfully",
		"record":  record,
	})
}

func GetAttendanceRecordAPI(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	studentID := c.Params("studentId")
	if sessionID == "" || studentID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID and student ID are required"})
	}

	record, err := database.GetRecordBySessionAndStudent(config.GetDB(), sessionID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Attendance record not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance record"})
	}

	return c.JSON(fiber.Map{"record": record})
}

func GetAttendanceBySessionAPI(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID is required"})
	}

	records, err := database.GetRecordsBySession(config.GetDB(), sessionID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance records"})
	}

	return c.JSON(fiber.Map{
		"records": records,
		"count":   len(records),
	})
}
