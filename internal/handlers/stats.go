package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"billdesk/internal/middleware"
)

type topProductRow struct {
	ProductName   string  `bson:"productName" json:"productName"`
	Category      string  `bson:"category" json:"category"`
	TotalQuantity int64   `bson:"totalQuantity" json:"totalQuantity"`
	TotalRevenue  float64 `bson:"totalRevenue" json:"totalRevenue"`
}

// TopProducts aggregates quantity and revenue per (product name, category)
// pair across the tenant's bills. The result is unsorted; the client sorts
// and truncates to its top-N.
func TopProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/stats/top-products"

		_, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"tenantId": tenantID}}},
			{{Key: "$unwind", Value: "$items"}},
			{{Key: "$group", Value: bson.M{
				"_id": bson.M{
					"productName": "$items.productName",
					"category":    "$items.category",
				},
				"totalQuantity": bson.M{"$sum": "$items.quantity"},
				"totalRevenue":  bson.M{"$sum": "$items.total"},
			}}},
			{{Key: "$project", Value: bson.M{
				"_id":           0,
				"productName":   "$_id.productName",
				"category":      "$_id.category",
				"totalQuantity": 1,
				"totalRevenue":  1,
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

		rows := make([]topProductRow, 0)
		if err := cursor.All(ctx, &rows); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}
