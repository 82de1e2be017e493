package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"contest-hub-system/middleware"
	"contest-hub-system/models"
)

type ParticipationService struct {
	DB *gorm.DB
}

func NewParticipationService(db *gorm.DB) *ParticipationService {
	return &ParticipationService{DB: db}
}

// ParticipationInfo is the payload the payment-confirmation caller supplies.
type ParticipationInfo struct {
	ContestID        string
	ParticipantEmail string
	PaidAmount       float64
	TransactionID    string
}

// RecordParticipation inserts the participation row and bumps both
// denormalized counters in one transaction, so a crash can never leave a
// counter out of step with the rows it summarizes.
func (s *ParticipationService) RecordParticipation(info ParticipationInfo) (*models.Participation, error) {
	p := &models.Participation{
		ID:               uuid.NewString(),
		ContestID:        info.ContestID,
		ParticipantEmail: info.ParticipantEmail,
		PaidAmount:       info.PaidAmount,
		TransactionID:    info.TransactionID,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var contest models.Contest
		if err := tx.First(&contest, "id = ?", info.ContestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContestNotFound
			}
			return fmt.Errorf("fetching contest: %w", err)
		}
		if contest.Status != models.ContestStatusConfirmed {
			return ErrContestNotOpen
		}
		if time.Now().After(contest.Deadline) {
			return ErrContestNotOpen
		}

		var user models.User
		if err := tx.First(&user, "email = ?", info.ParticipantEmail).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("fetching user: %w", err)
		}

		var count int64
		if err := tx.Model(&models.Participation{}).
			Where("contest_id = ? AND participant_email = ?", info.ContestID, info.ParticipantEmail).
			Count(&count).Error; err != nil {
			return fmt.Errorf("checking existing participation: %w", err)
		}
		if count > 0 {
			return ErrAlreadyParticipant
		}

		// The unique index on (contest_id, participant_email) backs up the
		// check above when two confirmations race. Only a duplicate-key
		// violation means "already entered"; anything else is a store failure.
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyParticipant
			}
			return fmt.Errorf("inserting participation: %w", err)
		}
		if err := tx.Model(&models.Contest{}).Where("id = ?", info.ContestID).
			Update("participants_count", gorm.Expr("participants_count + 1")).Error; err != nil {
			return fmt.Errorf("incrementing contest counter: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("email = ?", info.ParticipantEmail).
			Update("participated_count", gorm.Expr("participated_count + 1")).Error; err != nil {
			return fmt.Errorf("incrementing user counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Participate is the HTTP entry point for a confirmed payment.
func (s *ParticipationService) Participate(c *fiber.Ctx) error {
	type Req struct {
		PaidAmount    float64 `json:"paid_amount"`
		TransactionID string  `json:"transaction_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.TransactionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "transaction_id is required"})
	}

	p, err := s.RecordParticipation(ParticipationInfo{
		ContestID:        c.Params("id"),
		ParticipantEmail: middleware.CallerEmail(c),
		PaidAmount:       req.PaidAmount,
		TransactionID:    req.TransactionID,
	})
	switch {
	case err == nil:
		return c.Status(201).JSON(p)
	case errors.Is(err, ErrContestNotFound), errors.Is(err, ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrContestNotOpen):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrAlreadyParticipant):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("ERROR recording participation: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record participation"})
	}
}

// CheckRegistered reports whether the caller already entered the contest.
func (s *ParticipationService) CheckRegistered(c *fiber.Ctx) error {
	var count int64
	err := s.DB.Model(&models.Participation{}).
		Where("contest_id = ? AND participant_email = ?", c.Params("id"), middleware.CallerEmail(c)).
		Count(&count).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(fiber.Map{"registered": count > 0})
}

// ListParticipatedByUser returns the caller's participations, each enriched
// with the referenced contest. The contests come back in one batched query
// and are matched in memory by string id.
func (s *ParticipationService) ListParticipatedByUser(c *fiber.Ctx) error {
	email := middleware.CallerEmail(c)

	var participations []models.Participation
	if err := s.DB.Where("participant_email = ?", email).
		Order("created_at DESC").
		Find(&participations).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	ids := make([]string, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.ContestID)
	}

	contestsByID := map[string]models.Contest{}
	if len(ids) > 0 {
		var contests []models.Contest
		if err := s.DB.Where("id IN ?", ids).Find(&contests).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "DB error"})
		}
		for _, ct := range contests {
			contestsByID[ct.ID] = ct
		}
	}

	type Entry struct {
		models.Participation
		ContestName     string    `json:"contest_name"`
		ContestImage    string    `json:"contest_image"`
		ContestDeadline time.Time `json:"contest_deadline"`
		ContestStatus   string    `json:"contest_status"`
	}
	entries := make([]Entry, 0, len(participations))
	for _, p := range participations {
		e := Entry{Participation: p}
		if ct, ok := contestsByID[p.ContestID]; ok {
			e.ContestName = ct.Name
			e.ContestImage = ct.Image
			e.ContestDeadline = ct.Deadline
			e.ContestStatus = ct.Status
		}
		entries = append(entries, e)
	}
	return c.JSON(entries)
}

// SubmissionInfo is what a participant delivers for a contest they entered.
type SubmissionInfo struct {
	ContestID        string
	ParticipantEmail string
	TaskLink         string
	Notes            string
}

// RecordSubmission inserts a submission, but only when a matching
// participation exists. The participant's display name is snapshotted from
// the user record at submission time.
func (s *ParticipationService) RecordSubmission(info SubmissionInfo) (*models.Submission, error) {
	var count int64
	if err := s.DB.Model(&models.Participation{}).
		Where("contest_id = ? AND participant_email = ?", info.ContestID, info.ParticipantEmail).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking participation: %w", err)
	}
	if count == 0 {
		return nil, ErrNotRegistered
	}

	name := "Unknown User"
	var user models.User
	if err := s.DB.First(&user, "email = ?", info.ParticipantEmail).Error; err == nil && user.Name != "" {
		name = user.Name
	}

	sub := &models.Submission{
		ID:               uuid.NewString(),
		ContestID:        info.ContestID,
		ParticipantEmail: info.ParticipantEmail,
		ParticipantName:  name,
		TaskLink:         info.TaskLink,
		Notes:            info.Notes,
	}
	if err := s.DB.Create(sub).Error; err != nil {
		return nil, fmt.Errorf("inserting submission: %w", err)
	}
	return sub, nil
}

// Submit is the HTTP entry point for delivering work.
func (s *ParticipationService) Submit(c *fiber.Ctx) error {
	type Req struct {
		TaskLink string `json:"task_link"`
		Notes    string `json:"notes"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.TaskLink == "" {
		return c.Status(400).JSON(fiber.Map{"error": "task_link is required"})
	}

	sub, err := s.RecordSubmission(SubmissionInfo{
		ContestID:        c.Params("id"),
		ParticipantEmail: middleware.CallerEmail(c),
		TaskLink:         req.TaskLink,
		Notes:            req.Notes,
	})
	switch {
	case err == nil:
		return c.Status(201).JSON(sub)
	case errors.Is(err, ErrNotRegistered):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("ERROR recording submission: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record submission"})
	}
}

// ListSubmissionsForCreator shows a creator the submissions to their own
// contests, optionally narrowed to one contest. Two queries, merged in
// memory: contests first, then submissions whose contest_id is among them.
func (s *ParticipationService) ListSubmissionsForCreator(c *fiber.Ctx) error {
	email := middleware.CallerEmail(c)

	db := s.DB.Where("creator_email = ?", email)
	if id := c.Query("contest_id"); id != "" {
		db = db.Where("id = ?", id)
	}
	var contests []models.Contest
	if err := db.Find(&contests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	nameByID := make(map[string]string, len(contests))
	ids := make([]string, 0, len(contests))
	for _, ct := range contests {
		nameByID[ct.ID] = ct.Name
		ids = append(ids, ct.ID)
	}
	if len(ids) == 0 {
		return c.JSON([]fiber.Map{})
	}

	var subs []models.Submission
	if err := s.DB.Where("contest_id IN ?", ids).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	type Entry struct {
		models.Submission
		ContestName string `json:"contest_name"`
	}
	entries := make([]Entry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, Entry{Submission: sub, ContestName: nameByID[sub.ContestID]})
	}
	return c.JSON(entries)
}
