package services

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"contest-hub-system/middleware"
	"contest-hub-system/models"
	"contest-hub-system/utils"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// IssueToken exchanges a verified login identity for an API access token.
// Token issuance itself is open: the token only ever asserts the email it was
// asked for, and every privileged route re-checks the stored role.
func (s *UserService) IssueToken(c *fiber.Ctx) error {
	type Req struct {
		Email string `json:"email"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email is required"})
	}

	token, err := middleware.IssueToken(email)
	if err != nil {
		log.Printf("ERROR signing token for %s: %v", email, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}
	return c.JSON(fiber.Map{"token": token})
}

// Register creates a user on first sight of an email. Re-registering an
// existing email is a no-op that reports the stored record, never an error.
func (s *UserService) Register(c *fiber.Ctx) error {
	type Req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Photo string `json:"photo"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email and name are required"})
	}

	var existing models.User
	err := s.DB.First(&existing, "email = ?", email).Error
	if err == nil {
		return c.JSON(fiber.Map{"message": "already registered", "user": existing})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	user := models.User{
		Email: email,
		Name:  req.Name,
		Photo: req.Photo,
		Role:  models.RoleUser,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		// Lost a race with a concurrent registration of the same email:
		// report the row that won, keeping the idempotent contract.
		if fetchErr := s.DB.First(&existing, "email = ?", email).Error; fetchErr == nil {
			return c.JSON(fiber.Map{"message": "already registered", "user": existing})
		}
		log.Printf("ERROR creating user %s: %v", email, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to register"})
	}
	return c.Status(201).JSON(fiber.Map{"message": "registered", "user": user})
}

// GetByEmail reads one user record. The route guards it with RequireSelf, so
// the email can only ever be the caller's own.
func (s *UserService) GetByEmail(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "email = ?", c.Params("email")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(user)
}

func (s *UserService) GetMe(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "email = ?", middleware.CallerEmail(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(user)
}

// UpdateProfile edits the caller's own record. Only the profile fields are
// bindable; role and the statistics columns cannot be reached from here.
func (s *UserService) UpdateProfile(c *fiber.Ctx) error {
	type Req struct {
		Name    string `json:"name"`
		Photo   string `json:"photo"`
		Bio     string `json:"bio"`
		Address string `json:"address"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name cannot be empty"})
	}

	email := middleware.CallerEmail(c)
	updates := map[string]interface{}{
		"name":    strings.TrimSpace(req.Name),
		"photo":   req.Photo,
		"bio":     req.Bio,
		"address": req.Address,
	}
	result := s.DB.Model(&models.User{}).Where("email = ?", email).Updates(updates)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	var user models.User
	s.DB.First(&user, "email = ?", email)
	return c.JSON(user)
}

// UploadPhoto stores a new profile photo in object storage and points the
// caller's record at it.
func (s *UserService) UploadPhoto(c *fiber.Ctx) error {
	file, err := c.FormFile("photo")
	if err != nil || file.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "photo file required"})
	}

	email := middleware.CallerEmail(c)
	url, err := utils.UploadImage(file, "users")
	if err != nil {
		log.Printf("ERROR uploading photo for %s: %v", email, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload photo"})
	}

	result := s.DB.Model(&models.User{}).Where("email = ?", email).Update("photo", url)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(fiber.Map{"photo": url})
}

// AdminListUsers returns one management page of users plus the total count.
func (s *UserService) AdminListUsers(c *fiber.Ctx) error {
	page, limit := utils.PageLimit(c.Query("page"), c.Query("limit"))

	var total int64
	if err := s.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var users []models.User
	if err := s.DB.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(fiber.Map{"users": users, "total": total, "page": page, "limit": limit})
}

// AdminUpdateRole changes a user's role. Roles are never self-service.
func (s *UserService) AdminUpdateRole(c *fiber.Ctx) error {
	email := c.Params("email")
	type Req struct {
		Role string `json:"role"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if !models.ValidRole(req.Role) {
		return c.Status(400).JSON(fiber.Map{"error": "role must be one of user, creator, admin"})
	}

	result := s.DB.Model(&models.User{}).Where("email = ?", email).Update("role", req.Role)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	log.Printf("[ADMIN] role of %s set to %s", email, req.Role)
	return c.JSON(fiber.Map{"message": "role updated"})
}

// Leaderboard lists the top winners: wins descending, and on equal wins the
// user who needed fewer entries ranks higher.
func (s *UserService) Leaderboard(c *fiber.Ctx) error {
	var rows []models.LeaderboardRow
	query := `
        SELECT name, email, photo, wins, participated_count
        FROM users
        WHERE wins > 0
        ORDER BY wins DESC, participated_count ASC
        LIMIT 10
    `
	if err := s.DB.Raw(query).Scan(&rows).Error; err != nil {
		log.Printf("ERROR fetching leaderboard: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}
	return c.JSON(rows)
}
