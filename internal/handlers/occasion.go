package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"billdesk/internal/middleware"
	"billdesk/internal/models"
)

type setOccasionRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetOccasion returns the tenant's active occasion, "" when none is set.
func GetOccasion(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/occasion"

		_, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var occasion models.Occasion
		err := db.Collection("occasions").FindOne(ctx, bson.M{"tenantId": tenantID}).Decode(&occasion)
		if err != nil && err != mongo.ErrNoDocuments {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"activeOccasion": occasion.ActiveOccasion})
	}
}

// SetOccasion upserts the single per-tenant occasion record.
func SetOccasion(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/occasion"

		var req setOccasionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name is required")
			return
		}

		userID, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := upsertOccasion(c.Request.Context(), db, tenantID, userID, name); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Info().Str("occasion", name).Msg("occasion set")
		c.JSON(http.StatusOK, gin.H{"activeOccasion": name})
	}
}

// ClearOccasion blanks the occasion value. The record itself survives.
func ClearOccasion(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/occasion/clear"

		userID, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := upsertOccasion(c.Request.Context(), db, tenantID, userID, ""); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Info().Msg("occasion cleared")
		c.JSON(http.StatusOK, gin.H{"activeOccasion": ""})
	}
}

func upsertOccasion(parent context.Context, db *mongo.Database, tenantID, userID primitive.ObjectID, name string) error {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"activeOccasion": name,
			"updatedBy":      userID,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{
			"tenantId":  tenantID,
			"createdAt": now,
		},
	}

	_, err := db.Collection("occasions").UpdateOne(
		ctx,
		bson.M{"tenantId": tenantID},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

type occasionSummaryRow struct {
	Occasion  string               `bson:"occasion" json:"occasion"`
	BillCount int64                `bson:"billCount" json:"billCount"`
	Users     []primitive.ObjectID `bson:"users" json:"users"`
}

// OccasionSummary groups the tenant's bills with a non-empty occasion by
// occasion name, reporting the bill count and the distinct owning users.
func OccasionSummary(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/occasion/summary"

		_, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"tenantId": tenantID,
				"occasion": bson.M{"$ne": ""},
			}}},
			{{Key: "$group", Value: bson.M{
				"_id":       "$occasion",
				"billCount": bson.M{"$sum": 1},
				"users":     bson.M{"$addToSet": "$userId"},
			}}},
			{{Key: "$project", Value: bson.M{
				"_id":       0,
				"occasion":  "$_id",
				"billCount": 1,
				"users":     1,
			}}},
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		cursor, err := db.Collection("bills").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		rows := make([]occasionSummaryRow, 0)
		if err := cursor.All(ctx, &rows); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}
