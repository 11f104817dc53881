package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"billdesk/internal/auth"
	"billdesk/internal/middleware"
	"billdesk/internal/models"
)

type RegisterRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// Register creates a user account under a freshly minted tenant.
func Register(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		name := strings.TrimSpace(req.Name)

		role := models.RoleUser
		if strings.TrimSpace(req.Role) == models.RoleAdmin {
			role = models.RoleAdmin
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			log.Error().Err(err).Msg("register lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("register password hash failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}

		user := models.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
			TenantID:     primitive.NewObjectID(),
			Organization: strings.TrimSpace(req.Organization),
			CreatedAt:    time.Now(),
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			log.Error().Err(err).Msg("register insert failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		user.ID = res.InsertedID.(primitive.ObjectID)

		token, err := auth.GenerateToken(user.ID, user.TenantID, user.Role, jwtSecret, accessTTL)
		if err != nil {
			log.Error().Err(err).Msg("register token generation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		log.Info().Str("email", email).Msg("user registered")
		c.JSON(http.StatusCreated, gin.H{
			"accessToken": token,
			"user":        user,
		})
	}
}

// Login verifies the credential pair and issues a time-boxed token
// carrying user id, role and tenant id.
func Login(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			if err != mongo.ErrNoDocuments {
				log.Error().Err(err).Msg("login lookup failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := auth.GenerateToken(user.ID, user.TenantID, user.Role, jwtSecret, accessTTL)
		if err != nil {
			log.Error().Err(err).Msg("login token generation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		log.Info().Str("email", email).Msg("login succeeded")
		c.JSON(http.StatusOK, gin.H{
			"accessToken": token,
			"user":        user,
		})
	}
}

// GetMe resolves the token back to the persisted account. A token whose
// user has since been deleted is unauthorized.
func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// ListUsers returns every account in the caller's tenant. Admin only.
func ListUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users"

		_, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("users").Find(ctx, bson.M{"tenantId": tenantID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, users)
	}
}

// ForgotPassword issues a single-use reset token. Delivery is a logged
// stub; the response is identical whether or not the account exists.
func ForgotPassword(db *mongo.Database, resetTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		generic := gin.H{"message": "if the account exists, a reset link has been sent"}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			c.JSON(http.StatusOK, generic)
			return
		}

		plain := generateResetString()
		if plain == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		reset := models.ResetToken{
			UserID:    user.ID,
			TokenHash: hashToken(plain),
			ExpiresAt: time.Now().Add(resetTTL),
			Used:      false,
			CreatedAt: time.Now(),
		}

		if _, err := db.Collection("reset_tokens").InsertOne(ctx, reset); err != nil {
			log.Error().Err(err).Msg("reset token insert failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		// Mail delivery is out of scope; the token is logged so an operator
		// can relay it manually.
		log.Info().Str("email", email).Str("resetToken", plain).Msg("password reset issued")
		c.JSON(http.StatusOK, generic)
	}
}

// ResetPassword consumes an unexpired, unused token and replaces the
// account's password hash.
func ResetPassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		plain := strings.TrimSpace(c.Param("token"))
		if plain == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}

		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var token models.ResetToken
		err := db.Collection("reset_tokens").FindOne(ctx, bson.M{
			"tokenHash": hashToken(plain),
			"used":      false,
		}).Decode(&token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid reset token"})
			return
		}

		if time.Now().After(token.ExpiresAt) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "reset token expired"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}

		if _, err := db.Collection("users").UpdateByID(ctx, token.UserID, bson.M{
			"$set": bson.M{"passwordHash": string(hash)},
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		_, _ = db.Collection("reset_tokens").UpdateByID(ctx, token.ID, bson.M{
			"$set": bson.M{"used": true},
		})

		log.Info().Str("userId", token.UserID.Hex()).Msg("password reset")
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateResetString() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
