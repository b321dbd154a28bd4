package controllers

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"readmission-service/config"
	"readmission-service/models"
	"readmission-service/security"
)

type RegisterInput struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=50"`
	LastName  string `json:"last_name" binding:"required,min=2,max=50"`
	Email     string `json:"email" binding:"omitempty,email"`
	Username  string `json:"username" binding:"required,min=3,max=30"`
	Password  string `json:"password" binding:"required,min=8"`
}

func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		security.SendValidationError(c, "Invalid input data", err.Error())
		return
	}

	// Validate email format if provided
	if input.Email != "" {
		emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
		if !emailRegex.MatchString(input.Email) {
			security.SendValidationError(c, "Invalid email format", "Please provide a valid email address")
			return
		}
	}

	// Omitted email must reach the database as NULL, not '': the column is
	// UNIQUE, and two empty strings would collide.
	var email *string
	if input.Email != "" {
		email = &input.Email
	}

	// Check if username already exists
	var existing string
	err := config.DB.QueryRow(`SELECT username FROM users WHERE username = $1`, input.Username).Scan(&existing)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
		return
	}

	if email != nil {
		err = config.DB.QueryRow(`SELECT email FROM users WHERE email = $1`, *email).Scan(&existing)
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// New accounts are clinicians; admins are promoted out of band.
	var userID string
	err = config.DB.QueryRow(`
		INSERT INTO users (first_name, last_name, email, username, password_hash, role)
		VALUES ($1,$2,$3,$4,$5,'clinician') RETURNING id
	`, input.FirstName, input.LastName, email, input.Username, string(passHash)).Scan(&userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	accessToken, err := security.SignAccessToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	refreshToken, err := security.SignRefreshToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	expiresAt := time.Now().Add(7 * 24 * time.Hour)
	_, err = config.DB.Exec(`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1,$2,$3)`, userID, refreshToken, expiresAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
		return
	}

	user := models.User{
		ID:        userID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     email,
		Username:  input.Username,
		Role:      "clinician",
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

type LoginInput struct {
	Login    string `json:"login" binding:"required"` // email or username
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		security.SendValidationError(c, "Invalid input data", err.Error())
		return
	}

	var user models.User
	err := config.DB.QueryRow(`
		SELECT id, password_hash, first_name, last_name, email, username, role
		FROM users
		WHERE (email = $1 OR username = $1) AND is_active = true
	`, input.Login).Scan(&user.ID, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Email, &user.Username, &user.Role)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	_, err = config.DB.Exec(`UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1`, user.ID)
	if err != nil {
		// Log error but don't fail login
		c.Header("X-Warning", "Failed to update last login timestamp")
	}

	accessToken, err := security.SignAccessToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	refreshToken, err := security.SignRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	expiresAt := time.Now().Add(7 * 24 * time.Hour)
	_, err = config.DB.Exec(`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1,$2,$3)`, user.ID, refreshToken, expiresAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
		return
	}

	user.IsActive = true
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func Refresh(c *gin.Context) {
	var input RefreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		security.SendValidationError(c, "Invalid input data", err.Error())
		return
	}

	token, err := security.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	userID, ok := claims["sub"].(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	// Reject tokens that were revoked or never issued
	var revoked bool
	err = config.DB.QueryRow(`
		SELECT revoked_at IS NOT NULL FROM refresh_tokens
		WHERE user_id = $1 AND token = $2 AND expires_at > CURRENT_TIMESTAMP
	`, userID, input.RefreshToken).Scan(&revoked)
	if err != nil || revoked {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired or revoked"})
		return
	}

	accessToken, err := security.SignAccessToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

func Me(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.User
	err := config.DB.QueryRow(`
		SELECT id, first_name, last_name, email, username, role, is_active, last_login, created_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Username,
		&user.Role, &user.IsActive, &user.LastLogin, &user.CreatedAt)
	if err != nil {
		security.SendNotFoundError(c, "user")
		return
	}

	c.JSON(http.StatusOK, user)
}
