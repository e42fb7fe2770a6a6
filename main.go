package main

import (
	"fmt"
	"log"
	"os"

	"luxurystay-server/routes"
	"luxurystay-server/storage"
	"luxurystay-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	// Initialize services
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	// JWT Verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	// Routes
	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
	}

	rooms := app.Party("/api/rooms")
	{
		rooms.Get("/", routes.GetRooms)
		rooms.Get("/{id:uint}", routes.GetRoom)
		rooms.Post("/", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.CreateRoom)
		rooms.Put("/{id:uint}", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.UpdateRoom)
	}

	reservations := app.Party("/api/reservations")
	{
		reservations.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateReservation)
		reservations.Get("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetReservations)
		reservations.Get("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetReservation)
		reservations.Put("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateReservation)
		reservations.Put("/{id:uint}/confirm", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.ConfirmReservation)
		reservations.Put("/{id:uint}/checkin", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.CheckInReservation)
		reservations.Put("/{id:uint}/checkout", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.CheckOutReservation)
		reservations.Post("/expire-pending", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.ExpirePendingReservations)
	}

	billing := app.Party("/api/billing")
	{
		billing.Post("/", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.CreateBill)
		billing.Get("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetBills)
		billing.Get("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetBill)
		billing.Put("/{id:uint}/payment", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.UpdatePayment)
		billing.Get("/{id:uint}/pdf", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DownloadInvoicePDF)
	}

	notifications := app.Party("/api/notifications")
	{
		notifications.Get("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetNotifications)
		notifications.Put("/{id:uint}/read", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.MarkNotificationRead)
		notifications.Put("/read-all", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.MarkAllNotificationsRead)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware)
	{
		admin.Get("/reservations", routes.AdminListReservations)
		admin.Post("/reservations/{id:uint}/cancel", routes.AdminCancelReservation)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
