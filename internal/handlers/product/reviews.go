package product

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"primeur_back_end/internal/cache"
	"primeur_back_end/internal/database"
	"primeur_back_end/internal/models"
	"primeur_back_end/internal/store"
)

// ReviewHandler vérifie les achats via le Store avant d'accepter un avis
type ReviewHandler struct {
	Store *store.Store
}

func NewReviewHandler(s *store.Store) *ReviewHandler {
	return &ReviewHandler{Store: s}
}

// CreateReview crée un avis sur un produit (achat requis)
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID := c.GetString("user_id")
	productID := c.Param("id")

	var req struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"required,min=10,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	productUUID, err := uuid.Parse(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	if _, err := cache.GetProductFromCache(productID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	// Vérifier que l'utilisateur a acheté ce produit
	hasPurchased := false
	for _, order := range h.Store.Orders(userID) {
		for _, item := range order.Items {
			if item.ProductID == productID {
				hasPurchased = true
				break
			}
		}
		if hasPurchased {
			break
		}
	}

	if !hasPurchased {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous devez avoir acheté ce produit pour laisser un avis"})
		return
	}

	userName := ""
	if user, err := cache.GetUserFromCache(userID); err == nil {
		userName = user.Name
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	review := models.Review{
		ID:        gocql.TimeUUID(),
		ProductID: gocql.UUID(productUUID),
		UserID:    userID,
		UserName:  userName,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}

	err = session.Query(`
		INSERT INTO reviews (review_id, product_id, user_id, user_name, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, review.ID, review.ProductID, review.UserID, review.UserName, review.Rating, review.Comment, review.CreatedAt).Exec()

	if err != nil {
		log.Printf("❌ Erreur création avis: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création avis"})
		return
	}

	log.Printf("⭐ Avis %d/5 créé pour le produit %s par %s", req.Rating, productID, userID)

	c.JSON(http.StatusCreated, review)
}

// GetProductReviews liste les avis d'un produit
func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	productID := c.Param("id")

	productUUID, err := uuid.Parse(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT review_id, user_id, user_name, rating, comment, created_at
		FROM reviews WHERE product_id = ?
	`, gocql.UUID(productUUID)).Iter()

	var reviews []models.Review
	var r models.Review
	r.ProductID = gocql.UUID(productUUID)

	for iter.Scan(&r.ID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt) {
		reviews = append(reviews, r)
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture avis"})
		return
	}

	avg := 0.0
	for _, rv := range reviews {
		avg += float64(rv.Rating)
	}
	if len(reviews) > 0 {
		avg /= float64(len(reviews))
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
		"average": avg,
	})
}
