package user

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"primeur_back_end/internal/cache"
	"primeur_back_end/internal/store"
	"primeur_back_end/internal/utils"
)

// OrderHandler expose les routes commandes au-dessus du Store injecté
type OrderHandler struct {
	Store *store.Store
}

func NewOrderHandler(s *store.Store) *OrderHandler {
	return &OrderHandler{Store: s}
}

// GetOrders renvoie l'historique, commande la plus récente en tête
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": h.Store.Orders(userID)})
}

// GetOrder renvoie une commande précise
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	order, ok := h.Store.Order(userID, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// PlaceOrder transforme le panier en commande puis envoie la confirmation
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	order, ok := h.Store.PlaceOrder(userID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}

	notifyCartChange(userID, "cleared")
	log.Printf("🛒 Commande %s créée pour %s (%.2f€)", order.ID, userID, order.Total)

	// Confirmation email en tâche de fond, l'échec n'annule pas la commande
	go func() {
		user, err := cache.GetUserFromCache(userID)
		if err != nil || user.Email == "" {
			return
		}
		html := utils.GenerateOrderConfirmationHTML(order)
		if err := utils.SendConfirmationEmail(user.Email, "Confirmation de votre commande Primeur", html, nil); err != nil {
			log.Printf("⚠️ Envoi confirmation commande %s échoué: %v", order.ID, err)
		}
	}()

	c.JSON(http.StatusCreated, order)
}

// DeleteOrder retire une commande de l'historique
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	h.Store.DeleteOrder(userID, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "Commande supprimée"})
}

// Reorder remet les lignes d'une ancienne commande dans le panier
func (h *OrderHandler) Reorder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	if !h.Store.ReorderItems(userID, c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	notifyCartChange(userID, "updated")
	c.JSON(http.StatusOK, gin.H{
		"message": "Articles rajoutés au panier 🛒",
		"items":   h.Store.CartItems(userID),
		"total":   h.Store.CartTotal(userID),
	})
}

// AddNote attache une note libre à la commande
func (h *OrderHandler) AddNote(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		Note string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	h.Store.AddOrderNote(userID, c.Param("id"), input.Note)
	c.JSON(http.StatusOK, gin.H{"message": "Note enregistrée"})
}

// AddDeliveryInstructions attache des instructions de livraison
func (h *OrderHandler) AddDeliveryInstructions(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		Instructions string `json:"instructions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	h.Store.AddDeliveryInstructions(userID, c.Param("id"), input.Instructions)
	c.JSON(http.StatusOK, gin.H{"message": "Instructions enregistrées"})
}

// SubmitRating enregistre l'évaluation (1-5) de la commande
func (h *OrderHandler) SubmitRating(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		Rating int `json:"rating" binding:"required,min=1,max=5"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	h.Store.SubmitOrderRating(userID, c.Param("id"), input.Rating)
	c.JSON(http.StatusOK, gin.H{"message": "Merci pour votre évaluation ⭐"})
}

// UpdateStatus met à jour le statut d'une commande (réservé admin).
// Le userID ciblé vient du corps de la requête, pas du token.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var input struct {
		UserID string `json:"userId" binding:"required"`
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	orderID := c.Param("id")
	if _, ok := h.Store.Order(input.UserID, orderID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	h.Store.UpdateOrderStatus(input.UserID, orderID, input.Status)
	log.Printf("📦 Commande %s → statut %s", orderID, input.Status)

	order, _ := h.Store.Order(input.UserID, orderID)

	// Notification email en tâche de fond
	go func() {
		user, err := cache.GetUserFromCache(input.UserID)
		if err != nil || user.Email == "" {
			return
		}
		html := utils.GenerateStatusUpdateHTML(order, input.Status)
		if err := utils.SendConfirmationEmail(user.Email, "Suivi de votre commande Primeur", html, nil); err != nil {
			log.Printf("⚠️ Envoi notification statut %s échoué: %v", orderID, err)
		}
	}()

	c.JSON(http.StatusOK, order)
}

// OrderQRCode renvoie le QR de retrait de la commande (PNG)
func (h *OrderHandler) OrderQRCode(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	orderID := c.Param("id")
	if _, ok := h.Store.Order(userID, orderID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	png, err := utils.GenerateOrderQR(orderID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// OrderReceipt génère le reçu PDF de la commande
func (h *OrderHandler) OrderReceipt(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	orderID := c.Param("id")
	order, ok := h.Store.Order(userID, orderID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	qrBase64, err := utils.GenerateOrderQRBase64(orderID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR"})
		return
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	pdf, err := utils.RenderReceiptPDF(frontendURL+"/receipt", order.ID, qrBase64)
	if err != nil {
		log.Printf("❌ Erreur génération reçu %s: %v", order.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération reçu"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=recu_primeur.pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}
