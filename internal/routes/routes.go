package routes

import (
	"github.com/Darshan-chovatiya/nexus-backend/internal/config"
	"github.com/Darshan-chovatiya/nexus-backend/internal/handlers"
	"github.com/Darshan-chovatiya/nexus-backend/internal/middleware"
	"github.com/Darshan-chovatiya/nexus-backend/internal/repository"
	"github.com/Darshan-chovatiya/nexus-backend/internal/services"
	eventws "github.com/Darshan-chovatiya/nexus-backend/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, cache *redis.Client) {
	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	scanRepo := repository.NewScanRepository(db)

	hub := eventws.NewHub()
	go hub.Run()

	var directory services.DirectoryService
	if cfg.DirectoryURL != "" {
		directory = services.NewHTTPDirectoryService(cfg.DirectoryURL, cfg.DirectoryAPIKey)
		if cache != nil {
			directory = services.NewCachedDirectoryService(directory, cache, cfg.DirectoryTTL)
		}
	}

	slotService := services.NewSlotService(db, slotRepo)
	bookingService := services.NewBookingService(db, bookingRepo, slotRepo, hub)
	scanService := services.NewScanService(scanRepo, hub)
	viewService := services.NewViewService(bookingService, scanService, slotRepo, directory)

	slotHandler := handlers.NewSlotHandler(slotService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	scanHandler := handlers.NewScanHandler(scanService)
	viewHandler := handlers.NewViewHandler(viewService)
	accountHandler := handlers.NewAccountHandler(directory)
	feedHandler := handlers.NewFeedHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	v1 := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	slots := v1.Group("/slots")
	slots.Post("/generate", slotHandler.GenerateSlots)
	slots.Get("", slotHandler.ListSlots)
	slots.Get("/available", slotHandler.ListAvailableSlots)

	bookings := v1.Group("/bookings")
	bookings.Post("", bookingHandler.RequestBooking)
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Put("/:id/status", bookingHandler.UpdateStatus)

	scans := v1.Group("/scans")
	scans.Post("", scanHandler.RecordScan)
	scans.Get("/received", scanHandler.ListReceived)
	scans.Get("/sent", scanHandler.ListSent)

	views := v1.Group("/views")
	views.Get("/bookings", viewHandler.BookingViews)
	views.Get("/scans", viewHandler.ScanViews)

	v1.Get("/accounts", accountHandler.ListAccounts)

	api.Use("/ws", feedHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(feedHandler.HandleWebSocket))
}
