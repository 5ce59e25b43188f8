package sessions

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/config"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/services"
)

func CreateSessionAPI(c *fiber.Ctx) error {
	type CreateSessionRequest struct {
		ClassID  string  `json:"class_id" validate:"required,uuid"`
		Date     string  `json:"date" validate:"required"`
		Location *string `json:"location,omitempty"`
	}

	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ClassID == "" || req.Date == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Class ID and date are required"})
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	result, err := sessionService.CreateSession(c.Context(), req.ClassID, date, req.Location)
	if err != nil {
		if result != nil {
			// Session was persisted but preload scheduling failed.
			return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{
				"error":   err.Error(),
				"session": result.Session,
			})
		}
		return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{
		"session": result.Session,
		"roster":  result.Roster,
		"count":   len(result.Roster),
	})
}

func GetSessionAPI(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID is required"})
	}

	session, records, err := sessionService.GetSession(c.Context(), sessionID)
	if err != nil {
		return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"session": session,
		"records": records,
		"count":   len(records),
	})
}

func CompleteSessionAPI(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID is required"})
	}

	session, err := sessionService.CompleteSession(c.Context(), sessionID)
	if err != nil {
		if session != nil {
			// Session was completed but cleanup scheduling failed.
			return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{
				"error":   err.Error(),
				"session": session,
			})
		}
		return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": "Session completed successfully",
		"session": session,
	})
}

func DeleteSessionAPI(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID is required"})
	}

	if err := sessionService.DeleteSession(c.Context(), sessionID); err != nil {
		return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Session deleted successfully"})
}

func GetSessionsByClassAPI(c *fiber.Ctx) error {
	classID := c.Params("classId")
	if classID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Class ID is required"})
	}

	sessions, err := database.GetSessionsByClass(config.GetDB(), classID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch sessions"})
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}
