package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"

	"primeur_back_end/internal/auth"
	"primeur_back_end/internal/cache"
	"primeur_back_end/internal/database"
	"primeur_back_end/internal/models"
	"primeur_back_end/internal/utils"
)

// ================== AUTH LOCALE ==================

func CreateUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	// email déjà pris ?
	var existingID string
	err := database.GetPreparedGetUserByEmail().Bind(input.Email).Scan(&existingID)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}
	if err != gocql.ErrNotFound {
		log.Printf("❌ Erreur lecture users_by_email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	user := models.User{
		ID:       uuid.NewString(),
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
		Role:     "customer",
		Provider: "local",
	}

	now := time.Now()
	if err := database.GetPreparedInsertUser().
		Bind(user.ID, user.Email, user.Password, user.Name, user.Role, user.Provider, "", now, now).
		Exec(); err != nil {
		log.Printf("❌ Erreur insertion utilisateur: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}
	if err := database.GetPreparedInsertUserByEmail().Bind(user.Email, user.ID).Exec(); err != nil {
		log.Printf("⚠️ Erreur insertion users_by_email pour %s: %v", user.Email, err)
	}

	log.Printf("🆕 Compte créé : %s", user.Email)

	token, _ := utils.GenerateJWT(user)
	refresh, _ := utils.GenerateRefreshToken(user)
	cache.StoreRefreshToken(user.ID, refresh, 7*24*time.Hour)

	c.JSON(http.StatusCreated, gin.H{
		"token":         token,
		"refresh_token": refresh,
		"userId":        user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
	})
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	var userID string
	if err := database.GetPreparedGetUserByEmail().Bind(input.Email).Scan(&userID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	var user models.User
	user.ID = userID
	err := database.GetPreparedGetUserByID().Bind(userID).
		Scan(&user.Email, &user.Password, &user.Name, &user.Role, &user.Provider, &user.ProviderID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	token, _ := utils.GenerateJWT(user)
	refresh, _ := utils.GenerateRefreshToken(user)
	cache.StoreRefreshToken(user.ID, refresh, 7*24*time.Hour)

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refresh,
		"userId":        user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
	})
}

func Logout(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	cache.DeleteRefreshToken(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

// ================== AUTH SOCIALE (WEB) ==================

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	redirectURL := c.Query("redirect_url")
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	callbackURL := baseURL + "/api/auth/" + provider + "/callback"

	switch provider {
	case "google":
		goth.UseProviders(google.New(
			os.Getenv("GOOGLE_CLIENT_ID"),
			os.Getenv("GOOGLE_CLIENT_SECRET"),
			callbackURL,
		))
	case "facebook":
		goth.UseProviders(facebook.New(
			os.Getenv("FACEBOOK_CLIENT_ID"),
			os.Getenv("FACEBOOK_CLIENT_SECRET"),
			callbackURL,
		))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider non supporté"})
		return
	}

	ctx := context.Background()
	state := generateRandomState()
	if redirectURL != "" {
		_ = database.Redis.Set(ctx, "oauth_redirect:"+state, redirectURL, 10*time.Minute).Err()
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	q.Set("state", state)
	c.Request.URL.RawQuery = q.Encode()
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func generateRandomState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	state := c.Query("state")
	code := c.Query("code")
	if provider == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètres OAuth invalides"})
		return
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	var userEmail, userName, userID string

	switch provider {
	case "google":
		provider := &auth.OAuthProvider{
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
				ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
				RedirectURL:  baseURL + "/api/auth/google/callback",
				Endpoint:     oauthgoogle.Endpoint,
				Scopes:       []string{"email", "profile"},
			},
		}

		token, err := provider.Exchange(code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur échange token Google"})
			return
		}

		client := provider.Config.Client(context.Background(), token)
		userResp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur userinfo Google"})
			return
		}
		defer userResp.Body.Close()
		var gu struct{ ID, Email, Name string }
		json.NewDecoder(userResp.Body).Decode(&gu)
		userID, userEmail, userName = gu.ID, gu.Email, gu.Name

	case "facebook":
		clientID := os.Getenv("FACEBOOK_CLIENT_ID")
		clientSecret := os.Getenv("FACEBOOK_CLIENT_SECRET")
		redirect := baseURL + "/api/auth/facebook/callback"

		tokenURL := fmt.Sprintf("https://graph.facebook.com/v12.0/oauth/access_token?client_id=%s&redirect_uri=%s&client_secret=%s&code=%s",
			clientID, url.QueryEscape(redirect), clientSecret, code)
		resp, err := http.Get(tokenURL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur échange token Facebook"})
			return
		}
		defer resp.Body.Close()
		var tokenResp struct{ AccessToken string }
		json.NewDecoder(resp.Body).Decode(&tokenResp)

		userResp, err := http.Get("https://graph.facebook.com/me?fields=id,name,email&access_token=" + tokenResp.AccessToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur API Facebook"})
			return
		}
		defer userResp.Body.Close()
		var fb struct{ ID, Email, Name string }
		json.NewDecoder(userResp.Body).Decode(&fb)
		userID, userEmail, userName = fb.ID, fb.Email, fb.Name
	}

	handleOAuthUser(c, provider, userID, userEmail, userName, state)
}

// ================== AUTH SOCIALE (MOBILE) ==================

func GoogleMobileLogin(c *gin.Context) {
	var body struct {
		IDToken string `json:"id_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.IDToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id_token manquant"})
		return
	}

	clientIDs := []string{
		os.Getenv("GOOGLE_WEB_CLIENT_ID"),
		os.Getenv("GOOGLE_IOS_CLIENT_ID"),
		os.Getenv("GOOGLE_ANDROID_CLIENT_ID"),
	}

	resp, err := http.Get("https://oauth2.googleapis.com/tokeninfo?id_token=" + url.QueryEscape(body.IDToken))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vérification Google"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token Google invalide"})
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Audience string `json:"aud"`
		Subject  string `json:"sub"`
	}
	json.NewDecoder(resp.Body).Decode(&payload)

	valid := false
	for _, id := range clientIDs {
		if payload.Audience == id && id != "" {
			valid = true
			break
		}
	}
	if !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Client ID non autorisé"})
		return
	}

	user := findOrCreateOAuthUser("google", payload.Subject, payload.Email, payload.Name)
	token, _ := utils.GenerateJWT(user)
	c.JSON(http.StatusOK, gin.H{"token": token, "email": user.Email, "name": user.Name})
}

func FacebookMobileLogin(c *gin.Context) {
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.AccessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access_token manquant"})
		return
	}

	resp, err := http.Get("https://graph.facebook.com/me?fields=id,name,email&access_token=" + body.AccessToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur API Facebook"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token Facebook invalide"})
		return
	}

	var fb struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	json.NewDecoder(resp.Body).Decode(&fb)

	user := findOrCreateOAuthUser("facebook", fb.ID, fb.Email, fb.Name)
	token, _ := utils.GenerateJWT(user)
	c.JSON(http.StatusOK, gin.H{"token": token, "email": user.Email, "name": user.Name})
}

// ================== UTILITAIRES ==================

func findOrCreateOAuthUser(provider, providerID, email, name string) models.User {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User

	// 1. Recherche par email
	var userID string
	err := database.GetPreparedGetUserByEmail().Bind(email).Scan(&userID)
	if err == nil {
		user.ID = userID
		if err := database.GetPreparedGetUserByID().Bind(userID).
			Scan(&user.Email, &user.Password, &user.Name, &user.Role, &user.Provider, &user.ProviderID); err == nil {
			if user.Provider != provider {
				// Compte existant, on rattache le provider
				session, serr := database.GetUsersSession()
				if serr == nil {
					session.Query(`UPDATE users SET provider = ?, provider_id = ?, name = ? WHERE user_id = ?`,
						provider, providerID, name, userID).Exec()
					cache.InvalidateUserCache(userID)
				}
				log.Printf("🔄 Compte existant fusionné avec provider %s : %s", provider, email)
			} else {
				log.Printf("✅ Utilisateur OAuth existant trouvé : %s", email)
			}
			return user
		}
	}

	// 2. Création d'un nouvel utilisateur OAuth
	user = models.User{
		ID:         uuid.NewString(),
		Email:      email,
		Name:       name,
		Role:       "customer",
		Provider:   provider,
		ProviderID: providerID,
	}

	now := time.Now()
	if err := database.GetPreparedInsertUser().
		Bind(user.ID, user.Email, "", user.Name, user.Role, user.Provider, user.ProviderID, now, now).
		Exec(); err != nil {
		log.Printf("❌ Erreur création utilisateur OAuth: %v", err)
		return user
	}
	database.GetPreparedInsertUserByEmail().Bind(user.Email, user.ID).Exec()
	log.Printf("🆕 Utilisateur OAuth créé (%s) : %s", provider, email)

	return user
}

func handleOAuthUser(c *gin.Context, provider, providerID, email, name, state string) {
	ctx := context.Background()
	user := findOrCreateOAuthUser(provider, providerID, email, name)
	token, _ := utils.GenerateJWT(user)

	redirectURI, _ := database.Redis.Get(ctx, "oauth_redirect:"+state).Result()
	_, _ = database.Redis.Del(ctx, "oauth_redirect:"+state).Result()

	if redirectURI == "" {
		redirectURI = os.Getenv("FRONTEND_URL")
		if redirectURI == "" {
			redirectURI = "http://localhost:5173"
		}
	}

	// Deep link mobile auto si user-agent mobile
	if !strings.HasPrefix(redirectURI, "primeur://") {
		ua := strings.ToLower(c.Request.UserAgent())
		if strings.Contains(ua, "iphone") || strings.Contains(ua, "ios") || strings.Contains(ua, "mobile") {
			if v := os.Getenv("MOBILE_REDIRECT_URL"); v != "" {
				redirectURI = v
			} else {
				redirectURI = "primeur://auth/callback"
			}
		}
	}

	allowed := strings.Split(os.Getenv("ALLOWED_REDIRECT_ORIGINS"), ",")
	allowed = append(allowed,
		"http://localhost:5173",
		"http://localhost:3000",
		"primeur://auth/callback",
	)
	valid := false
	for _, o := range allowed {
		if o != "" && strings.HasPrefix(redirectURI, o) {
			valid = true
			break
		}
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Redirect url non autorisé"})
		return
	}

	sep := "?"
	if strings.Contains(redirectURI, "?") {
		sep = "&"
	}
	final := redirectURI + sep + "token=" + url.QueryEscape(token)
	log.Printf("✅ Redirection finale: %s", final)
	c.Redirect(http.StatusTemporaryRedirect, final)
}

func Me(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	user, err := cache.GetUserFromCache(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":   user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"role":     user.Role,
		"provider": user.Provider,
	})
}

func RefreshToken(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token manquant"})
		return
	}

	userID := c.GetString("user_id")
	stored, err := cache.GetRefreshToken(userID)
	if err != nil || stored != body.RefreshToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token invalide"})
		return
	}

	user, err := cache.GetUserFromCache(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	token, _ := utils.GenerateJWT(*user)
	c.JSON(http.StatusOK, gin.H{"token": token})
}
