package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"contest-hub-system/middleware"
	"contest-hub-system/models"
	"contest-hub-system/services"
)

func SetupParticipationRoutes(app *fiber.App, db *gorm.DB, participationService *services.ParticipationService) {
	secured := app.Group("/", middleware.Protected())

	// Participant side. Participate is called once the upstream payment
	// confirmation is in hand.
	secured.Get("/contests/:id/registered", participationService.CheckRegistered)
	secured.Post("/contests/:id/participations", participationService.Participate)
	secured.Post("/contests/:id/submissions", participationService.Submit)
	secured.Get("/users/me/participations", participationService.ListParticipatedByUser)

	// Creator side: review what was delivered to their contests
	secured.Get("/creator/submissions",
		middleware.RequireRole(db, models.RoleCreator),
		participationService.ListSubmissionsForCreator)
}
