package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"primeur_back_end/internal/database"
	"primeur_back_end/internal/models"
)

const (
	UserCacheTTL    = 5 * time.Minute
	ProductCacheTTL = 10 * time.Minute
)

// GetProductFromCache récupère un produit depuis Redis ou ScyllaDB
func GetProductFromCache(productID string) (*models.Product, error) {
	ctx := context.Background()
	key := "product:" + productID

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var product models.Product
		if json.Unmarshal([]byte(data), &product) == nil {
			return &product, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, err
	}

	var p models.Product
	err = session.Query(`SELECT product_id, name, description, price, unit, category, subcategory, stock, image_url, organic, local, seasonal, origin, calories, protein, carbs, fat, fiber, tags, created_at, updated_at
		FROM products WHERE product_id = ?`, gocql.UUID(pid)).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Unit, &p.Category, &p.Subcategory,
		&p.Stock, &p.ImageURL, &p.Organic, &p.Local, &p.Seasonal, &p.Origin,
		&p.Nutrition.Calories, &p.Nutrition.Protein, &p.Nutrition.Carbs, &p.Nutrition.Fat, &p.Nutrition.Fiber,
		&p.Tags, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	jsonData, _ := json.Marshal(p)
	database.Redis.Set(ctx, key, jsonData, ProductCacheTTL)

	return &p, nil
}

// InvalidateProductCache invalide le cache d'un produit
func InvalidateProductCache(productID string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "product:"+productID, "products:all")
}

// GetUserFromCache récupère un utilisateur depuis Redis ou ScyllaDB
func GetUserFromCache(userID string) (*models.User, error) {
	ctx := context.Background()
	key := "user:" + userID

	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if json.Unmarshal([]byte(data), &user) == nil {
			return &user, nil
		}
	}

	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	var (
		email, name, role, provider string
	)
	err = session.Query(`SELECT email, name, role, provider FROM users WHERE user_id = ?`, userID).
		Scan(&email, &name, &role, &provider)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       userID,
		Email:    email,
		Name:     name,
		Role:     role,
		Provider: provider,
	}

	jsonData, _ := json.Marshal(user)
	database.Redis.Set(ctx, key, jsonData, UserCacheTTL)

	return user, nil
}

// InvalidateUserCache invalide le cache d'un utilisateur
func InvalidateUserCache(userID string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "user:"+userID)
}

// --- Refresh Tokens ---

// StoreRefreshToken stocke un refresh token pour un utilisateur
func StoreRefreshToken(userID, refreshToken string, duration time.Duration) error {
	key := fmt.Sprintf("refresh:%s", userID)
	return database.Redis.Set(context.Background(), key, refreshToken, duration).Err()
}

// GetRefreshToken récupère le refresh token d'un utilisateur
func GetRefreshToken(userID string) (string, error) {
	key := fmt.Sprintf("refresh:%s", userID)
	return database.Redis.Get(context.Background(), key).Result()
}

// DeleteRefreshToken supprime le refresh token (logout)
func DeleteRefreshToken(userID string) error {
	key := fmt.Sprintf("refresh:%s", userID)
	return database.Redis.Del(context.Background(), key).Err()
}
