package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"contest-hub-system/middleware"
	"contest-hub-system/models"
	"contest-hub-system/utils"
)

type ContestService struct {
	DB *gorm.DB
}

func NewContestService(db *gorm.DB) *ContestService {
	return &ContestService{DB: db}
}

// Create inserts a new contest for the calling creator. Status is forced to
// pending no matter what the client sends, and the counter starts at zero.
func (s *ContestService) Create(c *fiber.Ctx) error {
	type Req struct {
		Name         string  `json:"name"`
		Image        string  `json:"image"`
		Description  string  `json:"description"`
		Instructions string  `json:"instructions"`
		Type         string  `json:"type"`
		PrizeMoney   float64 `json:"prize_money"`
		EntryFee     float64 `json:"entry_fee"`
		Deadline     string  `json:"deadline"` // RFC3339
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if strings.TrimSpace(req.Name) == "" || req.Deadline == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name and deadline are required"})
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid deadline (use RFC3339)"})
	}
	if req.PrizeMoney < 0 || req.EntryFee < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "prize_money and entry_fee must be non-negative"})
	}

	contest := models.Contest{
		ID:                uuid.NewString(),
		Slug:              slug.Make(req.Name),
		Name:              strings.TrimSpace(req.Name),
		Image:             req.Image,
		Description:       req.Description,
		Instructions:      req.Instructions,
		Type:              req.Type,
		PrizeMoney:        req.PrizeMoney,
		EntryFee:          req.EntryFee,
		CreatorEmail:      middleware.CallerEmail(c),
		Status:            models.ContestStatusPending,
		Deadline:          deadline,
		ParticipantsCount: 0,
	}
	if err := s.DB.Create(&contest).Error; err != nil {
		log.Printf("ERROR creating contest: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(contest)
}

// Update edits a contest in a single conditional write. The filter carries
// the ownership and pending-status conditions, so an attempt against a
// foreign or already-reviewed contest affects zero rows and leaves the
// document untouched. The 404 deliberately does not distinguish "not yours"
// from "not pending" from "does not exist".
func (s *ContestService) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Name         string  `json:"name"`
		Image        string  `json:"image"`
		Description  string  `json:"description"`
		Instructions string  `json:"instructions"`
		Type         string  `json:"type"`
		PrizeMoney   float64 `json:"prize_money"`
		EntryFee     float64 `json:"entry_fee"`
		Deadline     string  `json:"deadline"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name cannot be empty"})
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid deadline (use RFC3339)"})
	}

	updates := map[string]interface{}{
		"name":         strings.TrimSpace(req.Name),
		"slug":         slug.Make(req.Name),
		"image":        req.Image,
		"description":  req.Description,
		"instructions": req.Instructions,
		"type":         req.Type,
		"prize_money":  req.PrizeMoney,
		"entry_fee":    req.EntryFee,
		"deadline":     deadline,
	}
	result := s.DB.Model(&models.Contest{}).
		Where("id = ? AND creator_email = ? AND status = ?",
			id, middleware.CallerEmail(c), models.ContestStatusPending).
		Updates(updates)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "contest not found or not editable"})
	}

	var contest models.Contest
	s.DB.First(&contest, "id = ?", id)
	return c.JSON(contest)
}

// Delete removes a pending contest owned by the caller. Same conditional
// filter and same ambiguous 404 as Update.
func (s *ContestService) Delete(c *fiber.Ctx) error {
	result := s.DB.Where("id = ? AND creator_email = ? AND status = ?",
		c.Params("id"), middleware.CallerEmail(c), models.ContestStatusPending).
		Delete(&models.Contest{})
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "contest not found or not editable"})
	}
	return c.JSON(fiber.Map{"message": "contest deleted"})
}

// SetStatus confirms or rejects a pending contest. A closed contest is
// terminal and cannot be reset.
func (s *ContestService) SetStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Status string `json:"status"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if !models.ValidReviewStatus(req.Status) {
		return c.Status(400).JSON(fiber.Map{"error": "status must be confirmed or rejected"})
	}

	result := s.DB.Model(&models.Contest{}).
		Where("id = ? AND status <> ?", id, models.ContestStatusClosed).
		Update("status", req.Status)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		var contest models.Contest
		if err := s.DB.First(&contest, "id = ?", id).Error; err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "contest not found"})
		}
		return c.Status(409).JSON(fiber.Map{"error": "contest is closed and cannot be re-reviewed"})
	}

	var contest models.Contest
	s.DB.First(&contest, "id = ?", id)
	return c.JSON(contest)
}

// ListApproved returns confirmed contests, optionally narrowed by category,
// most-entered first.
func (s *ContestService) ListApproved(c *fiber.Ctx) error {
	db := s.DB.Where("status = ?", models.ContestStatusConfirmed)
	if t := c.Query("type"); t != "" {
		db = db.Where("type = ?", t)
	}

	var contests []models.Contest
	if err := db.Order("participants_count DESC").Find(&contests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch contests"})
	}
	return c.JSON(contests)
}

// ListPopular returns the six most-entered confirmed contests.
func (s *ContestService) ListPopular(c *fiber.Ctx) error {
	var contests []models.Contest
	if err := s.DB.Where("status = ?", models.ContestStatusConfirmed).
		Order("participants_count DESC").
		Limit(6).
		Find(&contests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch contests"})
	}
	return c.JSON(contests)
}

// ListAll is the admin management view: one page of every contest regardless
// of status, plus the total for the pagination UI.
func (s *ContestService) ListAll(c *fiber.Ctx) error {
	page, limit := utils.PageLimit(c.Query("page"), c.Query("limit"))

	var total int64
	if err := s.DB.Model(&models.Contest{}).Count(&total).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var contests []models.Contest
	if err := s.DB.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&contests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(fiber.Map{"contests": contests, "total": total, "page": page, "limit": limit})
}

// ListByCreator is the creator dashboard: everything they own, newest first.
func (s *ContestService) ListByCreator(c *fiber.Ctx) error {
	var contests []models.Contest
	if err := s.DB.Where("creator_email = ?", middleware.CallerEmail(c)).
		Order("created_at DESC").
		Find(&contests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch contests"})
	}
	return c.JSON(contests)
}

// GetBySlug resolves the public detail URL. Slugs are derived from the name
// and are not guaranteed unique, so the newest match wins.
func (s *ContestService) GetBySlug(c *fiber.Ctx) error {
	var contest models.Contest
	err := s.DB.Where("slug = ?", c.Params("slug")).
		Order("created_at DESC").
		First(&contest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "contest not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(contest)
}

func (s *ContestService) GetByID(c *fiber.Ctx) error {
	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "contest not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(contest)
}

// UploadImage replaces a pending contest's banner. Ownership and status are
// enforced by the same conditional filter the edit path uses.
func (s *ContestService) UploadImage(c *fiber.Ctx) error {
	id := c.Params("id")
	file, err := c.FormFile("image")
	if err != nil || file.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "image file required"})
	}

	url, err := utils.UploadImage(file, "contests")
	if err != nil {
		log.Printf("ERROR uploading image for contest %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload image"})
	}

	result := s.DB.Model(&models.Contest{}).
		Where("id = ? AND creator_email = ? AND status = ?",
			id, middleware.CallerEmail(c), models.ContestStatusPending).
		Update("image", url)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "contest not found or not editable"})
	}
	return c.JSON(fiber.Map{"image": url})
}
