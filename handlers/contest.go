package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"contest-hub-system/middleware"
	"contest-hub-system/models"
	"contest-hub-system/services"
)

func SetupContestRoutes(app *fiber.App, db *gorm.DB, contestService *services.ContestService, winnerService *services.WinnerService) {
	// Public browsing: only confirmed contests are discoverable here
	app.Get("/contests", contestService.ListApproved)
	app.Get("/contests/popular", contestService.ListPopular)
	app.Get("/contests/slug/:slug", contestService.GetBySlug)
	app.Get("/contests/:id", contestService.GetByID)

	secured := app.Group("/", middleware.Protected())

	creator := middleware.RequireRole(db, models.RoleCreator)
	secured.Post("/contests", creator, contestService.Create)
	secured.Patch("/contests/:id", creator, contestService.Update)
	secured.Delete("/contests/:id", creator, contestService.Delete)
	secured.Post("/contests/:id/image", creator, contestService.UploadImage)
	secured.Get("/creator/contests", creator, contestService.ListByCreator)

	// Terminal workflow: close the contest and credit the winner
	secured.Post("/contests/:id/winner", creator, winnerService.Declare)

	admin := secured.Group("/admin", middleware.RequireRole(db, models.RoleAdmin))
	admin.Get("/contests", contestService.ListAll)
	admin.Patch("/contests/:id/status", contestService.SetStatus)
}
