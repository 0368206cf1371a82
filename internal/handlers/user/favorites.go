package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"primeur_back_end/internal/cache"
	"primeur_back_end/internal/database"
	"primeur_back_end/internal/models"
)

// GetFavorites récupère les produits favoris de l'utilisateur
func GetFavorites(c *gin.Context) {
	userID := c.GetString("user_id")

	// Récupérer depuis Redis d'abord
	ctx := context.Background()
	cacheKey := "favorites:" + userID

	cached, err := database.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var favorites models.Favorites
		if json.Unmarshal([]byte(cached), &favorites) == nil {
			c.JSON(http.StatusOK, favorites)
			return
		}
	}

	// Sinon depuis ScyllaDB
	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query("SELECT product_id FROM favorites WHERE user_id = ?", userID).Iter()

	var productIDs []gocql.UUID
	var productID gocql.UUID

	for iter.Scan(&productID) {
		productIDs = append(productIDs, productID)
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture favoris"})
		return
	}

	var products []models.Product
	for _, pid := range productIDs {
		if product, err := cache.GetProductFromCache(pid.String()); err == nil {
			products = append(products, *product)
		}
	}

	favorites := models.Favorites{
		UserID: userID,
		Items:  products,
	}

	// Mettre en cache
	if data, err := json.Marshal(favorites); err == nil {
		database.Redis.Set(ctx, cacheKey, data, 10*time.Minute)
	}

	c.JSON(http.StatusOK, favorites)
}

// AddToFavorites ajoute un produit aux favoris
func AddToFavorites(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	productUUID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	// Vérifier que le produit existe
	if _, err := cache.GetProductFromCache(req.ProductID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	err = session.Query(`
		INSERT INTO favorites (user_id, product_id, added_at)
		VALUES (?, ?, ?)
	`, userID, gocql.UUID(productUUID), time.Now()).Exec()

	if err != nil {
		log.Printf("❌ Erreur ajout favoris: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ajout aux favoris"})
		return
	}

	// Invalider le cache
	database.Redis.Del(context.Background(), "favorites:"+userID)

	log.Printf("⭐ Produit %s ajouté aux favoris de %s", req.ProductID, userID)

	c.JSON(http.StatusOK, gin.H{
		"message":    "Produit ajouté aux favoris",
		"product_id": req.ProductID,
	})
}

// RemoveFromFavorites retire un produit des favoris
func RemoveFromFavorites(c *gin.Context) {
	userID := c.GetString("user_id")
	productID := c.Param("productId")

	productUUID, err := uuid.Parse(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	err = session.Query("DELETE FROM favorites WHERE user_id = ? AND product_id = ?",
		userID, gocql.UUID(productUUID)).Exec()

	if err != nil {
		log.Printf("❌ Erreur suppression favoris: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression des favoris"})
		return
	}

	database.Redis.Del(context.Background(), "favorites:"+userID)

	log.Printf("🗑️ Produit %s retiré des favoris de %s", productID, userID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit retiré des favoris",
	})
}
