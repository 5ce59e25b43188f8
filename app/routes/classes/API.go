package classes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/config"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

func GetClassesAPI(c *fiber.Ctx) error {
	classes, err := database.GetAllClasses(config.GetDB())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch classes"})
	}

	return c.JSON(fiber.Map{
		"classes": classes,
		"count":   len(classes),
	})
}

func CreateClassAPI(c *fiber.Ctx) error {
	type CreateClassRequest struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}

	var req CreateClassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.Code == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Class name and code are required"})
	}

	class := &models.Class{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Code:     req.Code,
		IsActive: true,
	}

	if err := database.CreateClass(config.GetDB(), class); err != nil {
		if database.IsUniqueViolation(err) {
			return c.Status(409).JSON(fiber.Map{"error": "A class with this code already exists"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create class"})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Class created successfully",
		"class":   class,
	})
}

func GetClassAPI(c *fiber.Ctx) error {
	classID := c.Params("id")
	if classID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Class ID is required"})
	}

	class, err := database.GetClassByID(config.GetDB(), classID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Class not found"})
	}

	return c.JSON(fiber.Map{"class": class})
}

func DeactivateClassAPI(c *fiber.Ctx) error {
	classID := c.Params("id")
	if classID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Class ID is required"})
	}

	updated, err := database.DeactivateClass(config.GetDB(), classID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to deactivate class"})
	}
	if updated == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "Class not found"})
	}

	return c.JSON(fiber.Map{"message": "Class deactivated successfully"})
}
