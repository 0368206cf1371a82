package product

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"primeur_back_end/internal/services"
)

// UploadProductImage envoie une image produit vers MinIO
func UploadProductImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier manquant"})
		return
	}

	imageURL, err := services.UploadProductImage(header)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload MinIO: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "✅ Image uploadée avec succès",
		"image_url": imageURL,
	})
}

// GetProductImageURL renvoie une URL signée temporaire pour une image
func GetProductImageURL(c *gin.Context) {
	objectPath := c.Query("path")
	if objectPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre 'path' manquant"})
		return
	}

	signedURL, err := services.GenerateSignedURL(context.Background(), objectPath, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération URL signée"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}
