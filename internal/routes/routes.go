package routes

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	pa "primeur_back_end/internal/handlers/payement"
	"primeur_back_end/internal/handlers/product"
	"primeur_back_end/internal/handlers/user"
	"primeur_back_end/internal/middleware"
	"primeur_back_end/internal/store"
)

func RegisterRoutes(r *gin.Engine, s *store.Store) {
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		allowedOrigins = append(allowedOrigins, strings.Split(extra, ",")...)
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	cartHandler := user.NewCartHandler(s)
	orderHandler := user.NewOrderHandler(s)
	reviewHandler := product.NewReviewHandler(s)
	checkoutHandler := pa.NewCheckoutHandler(s)

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// --- Auth ---
	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.LoginRateLimit(), user.CreateUser)
		auth.POST("/login", middleware.LoginRateLimit(), user.Login)
		auth.GET("/:provider", user.BeginAuth)
		auth.GET("/:provider/callback", user.CallbackAuth)
		auth.POST("/google/mobile", user.GoogleMobileLogin)
		auth.POST("/facebook/mobile", user.FacebookMobileLogin)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthRequired())
	{
		authed.GET("/me", user.Me)
		authed.POST("/auth/logout", user.Logout)
		authed.POST("/auth/refresh", user.RefreshToken)
	}

	// --- Catalogue ---
	products := api.Group("/products")
	{
		products.GET("", product.GetAllProducts)
		products.GET("/search", product.SearchProducts)
		products.GET("/category/:category", product.GetProductsByCategory)
		products.GET("/:id", product.GetProductByID)
		products.GET("/:id/reviews", reviewHandler.GetProductReviews)
		products.GET("/image-url", product.GetProductImageURL)
	}

	productsAdmin := api.Group("/products")
	productsAdmin.Use(middleware.AuthRequired(), middleware.RequireAdmin())
	{
		productsAdmin.POST("", product.CreateProduct)
		productsAdmin.POST("/images", product.UploadProductImage)
	}

	productsAuthed := api.Group("/products")
	productsAuthed.Use(middleware.AuthRequired())
	{
		productsAuthed.POST("/:id/reviews", reviewHandler.CreateReview)
	}

	// --- Panier ---
	cart := api.Group("/cart")
	cart.Use(middleware.AuthRequired())
	{
		cart.GET("", cartHandler.GetCart)
		cart.GET("/ws", cartHandler.CartWebSocket)
		cart.POST("/add", middleware.CartRateLimit(), cartHandler.AddToCart)
		cart.PUT("/:productId", cartHandler.UpdateCartQuantity)
		cart.DELETE("/:productId", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)
	}

	// --- Commandes ---
	orders := api.Group("/orders")
	orders.Use(middleware.AuthRequired())
	{
		orders.GET("", orderHandler.GetOrders)
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.DELETE("/:id", orderHandler.DeleteOrder)
		orders.POST("/:id/reorder", orderHandler.Reorder)
		orders.PUT("/:id/note", orderHandler.AddNote)
		orders.PUT("/:id/instructions", orderHandler.AddDeliveryInstructions)
		orders.POST("/:id/rating", orderHandler.SubmitRating)
		orders.GET("/:id/qrcode", orderHandler.OrderQRCode)
		orders.GET("/:id/receipt", orderHandler.OrderReceipt)
		orders.PUT("/:id/status", middleware.RequireAdmin(), orderHandler.UpdateStatus)
	}

	// --- Favoris ---
	favorites := api.Group("/favorites")
	favorites.Use(middleware.AuthRequired())
	{
		favorites.GET("", user.GetFavorites)
		favorites.POST("", user.AddToFavorites)
		favorites.DELETE("/:productId", user.RemoveFromFavorites)
	}

	// --- Paiement ---
	payment := api.Group("/payment")
	payment.Use(middleware.AuthRequired())
	{
		payment.POST("/checkout", checkoutHandler.Checkout)
		payment.POST("/confirm", checkoutHandler.ConfirmPayment)
	}
}
