package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"primeur_back_end/internal/cache"
	"primeur_back_end/internal/database"
	"primeur_back_end/internal/store"
)

// CartHandler expose les routes panier au-dessus du Store injecté
type CartHandler struct {
	Store *store.Store
}

func NewCartHandler(s *store.Store) *CartHandler {
	return &CartHandler{Store: s}
}

// notifyCartChange publie l'événement pour la synchro WebSocket
func notifyCartChange(userID, event string) {
	database.Redis.Publish(context.Background(), "cart:"+userID, event)
}

// GetCart renvoie le panier courant avec total et nombre de lignes
func (h *CartHandler) GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	items := h.Store.CartItems(userID)
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": h.Store.CartTotal(userID),
		"count": len(items),
	})
}

// AddToCart ajoute une unité du produit au panier (ligne existante → +1)
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if _, err := uuid.Parse(input.ProductID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	product, err := cache.GetProductFromCache(input.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	if product.Stock < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock insuffisant"})
		return
	}

	h.Store.AddToCart(userID, *product)
	notifyCartChange(userID, "updated")

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit ajouté au panier 🛒",
		"items":   h.Store.CartItems(userID),
		"total":   h.Store.CartTotal(userID),
	})
}

// UpdateCartQuantity fixe la quantité d'une ligne (< 1 → suppression)
func (h *CartHandler) UpdateCartQuantity(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	h.Store.UpdateCartItemQuantity(userID, c.Param("productId"), input.Quantity)
	notifyCartChange(userID, "updated")

	c.JSON(http.StatusOK, gin.H{
		"items": h.Store.CartItems(userID),
		"total": h.Store.CartTotal(userID),
	})
}

// RemoveFromCart retire la ligne du produit ; silencieux si absente
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	productID := c.Param("productId")
	h.Store.RemoveFromCart(userID, productID)
	notifyCartChange(userID, "updated")

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit retiré du panier",
		"items":   h.Store.CartItems(userID),
		"total":   h.Store.CartTotal(userID),
	})
}

// ClearCart vide le panier
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	h.Store.ClearCart(userID)
	notifyCartChange(userID, "cleared")

	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}
