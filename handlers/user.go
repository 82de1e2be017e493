package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"contest-hub-system/middleware"
	"contest-hub-system/models"
	"contest-hub-system/services"
)

func SetupUserRoutes(app *fiber.App, db *gorm.DB, userService *services.UserService) {
	// Public: token exchange, registration, leaderboard
	app.Post("/jwt", userService.IssueToken)
	app.Post("/users", userService.Register)
	app.Get("/leaderboard", userService.Leaderboard)

	secured := app.Group("/", middleware.Protected())
	secured.Get("/users/me", userService.GetMe)
	secured.Get("/users/:email", middleware.RequireSelf("email"), userService.GetByEmail)
	secured.Patch("/users/me", userService.UpdateProfile)
	secured.Post("/users/me/photo", userService.UploadPhoto)

	admin := secured.Group("/admin", middleware.RequireRole(db, models.RoleAdmin))
	admin.Get("/users", userService.AdminListUsers)
	admin.Patch("/users/:email/role", userService.AdminUpdateRole)
}
