package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"contest-hub-system/middleware"
	"contest-hub-system/models"
)

// WinnerService owns the terminal contest workflow: close the contest, stamp
// the winner snapshot, and update the winner's aggregate statistics, as one
// unit.
type WinnerService struct {
	DB *gorm.DB
}

func NewWinnerService(db *gorm.DB) *WinnerService {
	return &WinnerService{DB: db}
}

// DeclareWinner runs the end-of-contest sequence.
//
// Eligibility is checked up front, but the write that actually assigns the
// winner is conditional on winner_email still being NULL, so two concurrent
// declarations cannot both succeed: the loser's update matches zero rows and
// the whole transaction rolls back with ErrAlreadyDeclared. The statistics
// update commits in the same transaction as the contest write, so the contest
// can never show closed while the winner's wins were not counted.
func (s *WinnerService) DeclareWinner(contestID, callerEmail, winnerEmail string) (*models.Contest, error) {
	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("fetching contest: %w", err)
	}
	if contest.CreatorEmail != callerEmail {
		return nil, ErrNotOwner
	}
	if time.Now().Before(contest.Deadline) {
		return nil, ErrDeadlineNotPassed
	}
	if contest.Declared() {
		return nil, ErrAlreadyDeclared
	}
	// Only a confirmed contest can close. A pending or rejected one never
	// opened for entries, so it has no winner to declare.
	if contest.Status != models.ContestStatusConfirmed {
		return nil, ErrContestNotOpen
	}

	var winner models.User
	if err := s.DB.First(&winner, "email = ?", winnerEmail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWinnerNotFound
		}
		return nil, fmt.Errorf("fetching winner: %w", err)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Prize money is snapshotted from the contest at declaration time.
		result := tx.Model(&models.Contest{}).
			Where("id = ? AND status = ? AND winner_email IS NULL",
				contestID, models.ContestStatusConfirmed).
			Updates(map[string]interface{}{
				"status":             models.ContestStatusClosed,
				"winner_email":       winner.Email,
				"winner_name":        winner.Name,
				"winner_photo":       winner.Photo,
				"winner_prize_money": contest.PrizeMoney,
			})
		if result.Error != nil {
			return fmt.Errorf("closing contest: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyDeclared
		}

		// Single statement, so wins and win_percentage move together and the
		// percentage uses the post-increment wins. A participated_count of
		// zero yields 0, never a division fault.
		statsResult := tx.Model(&models.User{}).
			Where("email = ?", winner.Email).
			Updates(map[string]interface{}{
				"wins": gorm.Expr("wins + 1"),
				"win_percentage": gorm.Expr(
					"CASE WHEN participated_count > 0 THEN 100.0 * (wins + 1) / participated_count ELSE 0 END"),
			})
		if statsResult.Error != nil {
			return fmt.Errorf("updating winner statistics: %w", statsResult.Error)
		}
		if statsResult.RowsAffected == 0 {
			return ErrWinnerNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var closed models.Contest
	if err := s.DB.First(&closed, "id = ?", contestID).Error; err != nil {
		return nil, fmt.Errorf("refetching contest: %w", err)
	}
	return &closed, nil
}

// Declare is the HTTP entry point. The route already requires the creator
// role; ownership of this particular contest is checked by the workflow.
func (s *WinnerService) Declare(c *fiber.Ctx) error {
	type Req struct {
		WinnerEmail  string `json:"winner_email"`
		SubmissionID string `json:"submission_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.WinnerEmail == "" {
		return c.Status(400).JSON(fiber.Map{"error": "winner_email is required"})
	}

	contest, err := s.DeclareWinner(c.Params("id"), middleware.CallerEmail(c), req.WinnerEmail)
	switch {
	case err == nil:
		log.Printf("[WINNER] contest %s closed, winner %s", contest.ID, req.WinnerEmail)
		return c.JSON(contest)
	case errors.Is(err, ErrContestNotFound), errors.Is(err, ErrWinnerNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrNotOwner):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrAlreadyDeclared):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrDeadlineNotPassed), errors.Is(err, ErrContestNotOpen):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("ERROR declaring winner for contest %s: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to declare winner"})
	}
}
