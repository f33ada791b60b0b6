package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/dentamart/internal/config"
	"github.com/example/dentamart/internal/handlers"
	"github.com/example/dentamart/internal/middleware"
	"github.com/example/dentamart/internal/orders"
	"github.com/example/dentamart/internal/services"
	"github.com/example/dentamart/internal/storage"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) error {
	mailer := services.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	fileStorage, err := services.NewFileStorage(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	store := storage.NewStore(db)
	orderService := orders.NewService(store, cfg.CourierFee, cfg.Currency)

	authHandler := handlers.NewAuthHandler(db, cfg, mailer)
	resetHandler := handlers.NewPasswordResetHandler(db, mailer)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	orderHandler := handlers.NewOrderHandler(orderService, store, mailer)
	adminHandler := handlers.NewAdminHandler(db, orderService, store)
	profileHandler := handlers.NewProfileHandler(db)
	uploadHandler := handlers.NewUploadHandler(fileStorage)

	app.Static("/uploads", fileStorage.Dir())

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify", authHandler.Verify)
	auth.Post("/resend-code", authHandler.ResendCode)
	auth.Post("/forgot-password", resetHandler.ForgotPassword)
	auth.Post("/verify-reset-code", resetHandler.VerifyResetCode)
	auth.Post("/reset-password", resetHandler.ResetPassword)

	authRequired := middleware.AuthMiddleware(cfg)
	adminOnly := middleware.AdminRequired()

	// Catalog: public reads, admin writes
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", authRequired, adminOnly, catalogHandler.CreateCategory)
	categories.Put("/:id", authRequired, adminOnly, catalogHandler.UpdateCategory)
	categories.Delete("/:id", authRequired, adminOnly, catalogHandler.DeleteCategory)

	pickup := api.Group("/pickup-branches")
	pickup.Get("/", catalogHandler.ListPickupBranches)
	pickup.Post("/", authRequired, adminOnly, catalogHandler.CreatePickupBranch)
	pickup.Put("/:id", authRequired, adminOnly, catalogHandler.UpdatePickupBranch)
	pickup.Delete("/:id", authRequired, adminOnly, catalogHandler.DeletePickupBranch)

	// Products
	products := api.Group("/products")
	adminProducts := api.Group("/admin/products", authRequired, adminOnly)
	productHandler.RegisterProductRoutes(products, adminProducts)

	// Customer routes
	protected := api.Group("", authRequired)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders/:id/cancel", orderHandler.CancelOrder)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/addresses", profileHandler.ListAddresses)
	protected.Post("/profile/addresses", profileHandler.CreateAddress)
	protected.Put("/profile/addresses/:id", profileHandler.UpdateAddress)
	protected.Delete("/profile/addresses/:id", profileHandler.DeleteAddress)

	protected.Post("/uploads", uploadHandler.UploadImage)

	// Admin back office
	admin := api.Group("/admin", authRequired, adminOnly)
	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Get("/orders/recent", adminHandler.RecentOrders)
	admin.Get("/orders/export", adminHandler.ExportOrders)
	admin.Patch("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.Patch("/orders/:id/payment", adminHandler.UpdateOrderPayment)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Patch("/users/:id", adminHandler.UpdateUser)

	return nil
}
