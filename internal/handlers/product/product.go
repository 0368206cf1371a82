package product

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"primeur_back_end/internal/cache"
	"primeur_back_end/internal/database"
	"primeur_back_end/internal/models"
	"primeur_back_end/internal/services"
)

const productColumns = `product_id, name, description, price, unit, category, subcategory, stock, image_url, organic, local, seasonal, origin, calories, protein, carbs, fat, fiber, tags, created_at, updated_at`

func scanProduct(scan func(...interface{}) bool, p *models.Product) bool {
	return scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Unit, &p.Category, &p.Subcategory,
		&p.Stock, &p.ImageURL, &p.Organic, &p.Local, &p.Seasonal, &p.Origin,
		&p.Nutrition.Calories, &p.Nutrition.Protein, &p.Nutrition.Carbs, &p.Nutrition.Fat, &p.Nutrition.Fiber,
		&p.Tags, &p.CreatedAt, &p.UpdatedAt)
}

// CreateProduct ajoute un produit au catalogue (réservé admin)
func CreateProduct(c *gin.Context) {
	var p models.Product

	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if p.Name == "" || p.Category == "" || p.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Les champs 'name', 'category' et 'price' sont obligatoires"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	p.ID = gocql.TimeUUID()
	now := time.Now()
	p.CreatedAt = &now
	p.UpdatedAt = &now

	query := `INSERT INTO products (` + productColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if err := session.Query(query,
		p.ID, p.Name, p.Description, p.Price, p.Unit, p.Category, p.Subcategory,
		p.Stock, p.ImageURL, p.Organic, p.Local, p.Seasonal, p.Origin,
		p.Nutrition.Calories, p.Nutrition.Protein, p.Nutrition.Carbs, p.Nutrition.Fat, p.Nutrition.Fiber,
		p.Tags, p.CreatedAt, p.UpdatedAt).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit: " + err.Error()})
		return
	}

	// Table dénormalisée pour les requêtes par rayon
	if err := session.Query(`INSERT INTO products_by_category (category, product_id, name, price, unit, stock, organic) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Category, p.ID, p.Name, p.Price, p.Unit, p.Stock, p.Organic).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur indexation catégorie: " + err.Error()})
		return
	}

	cache.InvalidateProductCache(p.ID.String())

	// 🔄 Indexation Elasticsearch
	go services.IndexProduct(p)

	c.JSON(http.StatusOK, p)
}

// GetAllProducts renvoie tout le catalogue (cache Redis 10 min)
func GetAllProducts(c *gin.Context) {
	ctx := context.Background()
	cacheKey := "products:all"

	if val, err := database.Redis.Get(ctx, cacheKey).Result(); err == nil && val != "" {
		var cached []models.Product
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT ` + productColumns + ` FROM products`).Iter()

	var products []models.Product
	var p models.Product

	for scanProduct(iter.Scan, &p) {
		products = append(products, p)
		p = models.Product{} // Reset pour la prochaine itération
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits: " + err.Error()})
		return
	}

	if data, err := json.Marshal(products); err == nil {
		database.Redis.Set(ctx, cacheKey, data, cache.ProductCacheTTL)
	}

	c.JSON(http.StatusOK, products)
}

// GetProductsByCategory renvoie les produits d'un rayon
func GetProductsByCategory(c *gin.Context) {
	category := c.Param("category")

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT product_id, name, price, unit, stock, organic FROM products_by_category WHERE category = ?`, category).Iter()

	var products []gin.H
	var (
		productID gocql.UUID
		name      string
		price     float64
		unit      string
		stock     int
		organic   bool
	)

	for iter.Scan(&productID, &name, &price, &unit, &stock, &organic) {
		products = append(products, gin.H{
			"id":      productID,
			"name":    name,
			"price":   price,
			"unit":    unit,
			"stock":   stock,
			"organic": organic,
		})
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catégorie: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category, "products": products})
}

// GetProductByID renvoie un produit (cache Redis puis ScyllaDB)
func GetProductByID(c *gin.Context) {
	product, err := cache.GetProductFromCache(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// SearchProducts recherche plein texte via Elasticsearch
func SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre 'q' manquant"})
		return
	}

	results, err := services.SearchProducts(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "results": results, "count": len(results)})
}
