package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/soukly/soukly/app/controllers"
	"github.com/soukly/soukly/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Soukly API",
		})
	})

	v1 := api.Group("/v1")

	// Public routes
	v1.Get("/health", controllers.HandleHealth)
	v1.Get("/stats", controllers.HandlePublicStats)
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Get("/listings", controllers.HandleBrowseListings)
	v1.Get("/listings/featured", controllers.HandleFeaturedListings)
	v1.Get("/listings/:id", controllers.HandleGetListing)

	// API-key protected routes
	secured := v1.Group("", middleware.APIKeyAuthMiddleware())

	secured.Get("/account", controllers.HandleGetAccount)
	secured.Put("/account/tier", controllers.HandleChangeTier)
	secured.Post("/account/api-key", controllers.HandleRotateAPIKey)
	secured.Delete("/account/api-key", controllers.HandleRevokeAPIKey)
	secured.Post("/account/team", controllers.HandleAddTeamMember)
	secured.Delete("/account/team/:id", controllers.HandleRemoveTeamMember)

	secured.Get("/notifications", controllers.HandleGetNotifications)
	secured.Post("/notifications/:id/read", controllers.HandleMarkNotificationRead)

	secured.Get("/my/listings", controllers.HandleMyListings)
	secured.Post("/listings", controllers.HandleCreateListing)
	secured.Put("/listings/:id", controllers.HandleUpdateListing)
	secured.Delete("/listings/:id", controllers.HandleArchiveListing)
	secured.Post("/listings/:id/images", controllers.HandleAddListingImage)
	secured.Post("/listings/:id/feature", controllers.HandleFeatureListing)
	secured.Post("/listings/:id/boost", controllers.HandleBoostListing)
	secured.Get("/listings/:id/conversation/:user_id", controllers.HandleGetConversation)

	secured.Post("/reservations", controllers.HandleCreateReservation)
	secured.Get("/reservations", controllers.HandleListReservations)
	secured.Get("/reservations/:id", controllers.HandleGetReservation)
	secured.Post("/reservations/:id/accept", controllers.HandleAcceptReservation)
	secured.Post("/reservations/:id/reject", controllers.HandleRejectReservation)
	secured.Post("/reservations/:id/cancel", controllers.HandleCancelReservation)
	secured.Post("/reservations/:id/deliver", controllers.HandleMarkDelivered)
	secured.Post("/reservations/:id/confirm-delivery", controllers.HandleConfirmDelivery)
	secured.Post("/reservations/:id/pay", controllers.HandlePayReservation)
	secured.Post("/reservations/:id/complete", controllers.HandleCompleteReservation)

	secured.Get("/wallet", controllers.HandleGetWallet)
	secured.Post("/wallet/deposit", controllers.HandleDeposit)
	secured.Post("/wallet/withdraw", controllers.HandleWithdraw)
	secured.Get("/wallet/transactions", controllers.HandleWalletHistory)

	secured.Post("/messages", controllers.HandleSendMessage)
	secured.Get("/messages/inbox", controllers.HandleGetInbox)

	// Admin routes
	admin := secured.Group("/admin", middleware.RequireAdmin)
	admin.Put("/users/:id/tier", controllers.HandleAdminSetUserTier)
	admin.Get("/queue/stats", controllers.HandleAdminQueueStats)
}
