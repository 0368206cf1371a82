package pa

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"primeur_back_end/internal/database"
	"primeur_back_end/internal/store"
)

// CheckoutHandler crée les PaymentIntent Stripe sur le panier du Store
type CheckoutHandler struct {
	Store *store.Store
}

func NewCheckoutHandler(s *store.Store) *CheckoutHandler {
	return &CheckoutHandler{Store: s}
}

// Checkout vérifie le stock puis crée un PaymentIntent sur le total du panier
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	cartItems := h.Store.CartItems(userID)
	if len(cartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}

	// Vérifier le stock pour chaque produit
	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	for _, item := range cartItems {
		productUUID, err := uuid.Parse(item.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide: " + item.ProductID})
			return
		}

		var stock int
		var name string
		err = productsSession.Query("SELECT stock, name FROM products WHERE product_id = ?", gocql.UUID(productUUID)).
			Scan(&stock, &name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable: " + item.ProductID})
			return
		}

		if stock < item.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Stock insuffisant",
				"product":   name,
				"available": stock,
				"requested": item.Quantity,
			})
			return
		}
	}

	total := h.Store.CartTotal(userID)
	amountCents := int64(total*100 + 0.5)

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(amountCents),
		Currency:     stripe.String(string(stripe.CurrencyEUR)),
		ReceiptEmail: stripe.String(email),
	}
	params.AddMetadata("user_id", userID)

	pi, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Erreur création PaymentIntent: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement"})
		return
	}

	log.Printf("💳 PaymentIntent %s créé pour %s (%.2f€)", pi.ID, userID, total)

	c.JSON(http.StatusOK, gin.H{
		"client_secret":     pi.ClientSecret,
		"payment_intent_id": pi.ID,
		"amount":            amountCents,
		"currency":          "eur",
	})
}

// ConfirmPayment vérifie le PaymentIntent puis transforme le panier en commande
func (h *CheckoutHandler) ConfirmPayment(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	var req struct {
		PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Paiement introuvable"})
		return
	}

	if pi.Metadata["user_id"] != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Paiement non autorisé"})
		return
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paiement non confirmé", "status": string(pi.Status)})
		return
	}

	// Décrémenter le stock avant de vider le panier
	items := h.Store.CartItems(userID)
	productsSession, err := database.GetProductsSession()
	if err == nil {
		for _, item := range items {
			if productUUID, perr := uuid.Parse(item.ProductID); perr == nil {
				var stock int
				if productsSession.Query("SELECT stock FROM products WHERE product_id = ?", gocql.UUID(productUUID)).Scan(&stock) == nil {
					productsSession.Query("UPDATE products SET stock = ? WHERE product_id = ?",
						stock-item.Quantity, gocql.UUID(productUUID)).Exec()
				}
			}
		}
	}

	order, ok := h.Store.PlaceOrder(userID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}

	log.Printf("✅ Paiement %s confirmé, commande %s créée", pi.ID, order.ID)

	c.JSON(http.StatusCreated, order)
}
