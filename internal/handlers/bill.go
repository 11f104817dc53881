package handlers

import (
	"context"
	"errors"
	"net/http"
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

/* =========================
   CREATE BILL
========================= */

// CreateBill runs the whole billing workflow in a single transaction:
// resolve every line against the catalog, decrement stock line by line,
// stamp the active occasion and insert the bill. A failure on any line
// aborts the transaction, so no stock change survives a failed bill.
func CreateBill(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/bills"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createBillRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		bill, err := buildBillFromRequest(req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		userID, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		bill.UserID = userID
		bill.TenantID = tenantID

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var billID primitive.ObjectID
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			// One in-memory product per distinct id, so repeat lines against
			// the same product see the earlier decrements before their own
			// stock check.
			loaded := map[primitive.ObjectID]*models.Product{}

			for i := range bill.Items {
				line := &bill.Items[i]

				product, exists := loaded[line.ProductID]
				if !exists {
					product = &models.Product{}
					err := db.Collection("products").FindOne(sessCtx, bson.M{
						"_id":      line.ProductID,
						"tenantId": tenantID,
					}).Decode(product)
					if err == mongo.ErrNoDocuments {
						return nil, notFoundError{Kind: "product", Ref: line.ProductID.Hex()}
					}
					if err != nil {
						return nil, err
					}
					loaded[line.ProductID] = product
				}

				if err := applyBillLine(product, line); err != nil {
					return nil, err
				}

				// Persist after every line, matching the one-save-per-line
				// contract of the workflow.
				_, err := db.Collection("products").ReplaceOne(sessCtx, bson.M{
					"_id":      product.ID,
					"tenantId": tenantID,
				}, product)
				if err != nil {
					return nil, err
				}
			}

			var occasion models.Occasion
			err := db.Collection("occasions").FindOne(sessCtx, bson.M{"tenantId": tenantID}).Decode(&occasion)
			if err != nil && err != mongo.ErrNoDocuments {
				return nil, err
			}
			stampOccasion(&bill, occasion.ActiveOccasion)

			res, err := db.Collection("bills").InsertOne(sessCtx, bill)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				billID = id
			}
			return nil, nil
		})
		if err != nil {
			var stockErr insufficientStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "insufficient stock",
					"productId": stockErr.ProductID.Hex(),
					"category":  stockErr.Category,
					"sku":       stockErr.SKU,
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			var notFoundErr notFoundError
			if errors.As(err, &notFoundErr) {
				c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
				return
			}
			log.Error().Err(err).Str("route", route).Msg("bill transaction failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		bill.ID = billID
		log.Info().Str("billId", billID.Hex()).Str("userId", userID.Hex()).Msg("bill created")
		c.JSON(http.StatusCreated, bill)
	}
}

/* =========================
   LIST / GET
========================= */

// GetBills lists bills scoped by role: admins see every bill in their
// tenant, optionally narrowed to an inclusive date range; everyone else
// sees only their own.
func GetBills(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/bills"

		userID, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		startDate, err := parseDateParam(c.Query("startDate"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		endDate, err := parseDateParam(c.Query("endDate"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := buildBillListFilter(userID, tenantID, middleware.CallerIsAdmin(c), startDate, endDate)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("bills").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		bills := make([]models.Bill, 0)
		if err := cursor.All(ctx, &bills); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, bills)
	}
}

func GetBill(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/bills/:id"

		billID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		userID, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		filter := bson.M{"_id": billID, "tenantId": tenantID}
		if !middleware.CallerIsAdmin(c) {
			filter["userId"] = userID
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var bill models.Bill
		if err := db.Collection("bills").FindOne(ctx, filter).Decode(&bill); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "bill not found"})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, bill)
	}
}

/* =========================
   UPDATE / DELETE
========================= */

// UpdateBill overwrites the ledger record with a fully-formed replacement:
// line list, totals and customer details. Catalog stock is deliberately
// untouched; this is a record correction, not a sale.
func UpdateBill(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/bills/:id"

		billID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req createBillRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		replacement, err := buildBillFromRequest(req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		userID, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		filter := bson.M{"_id": billID, "tenantId": tenantID}
		if !middleware.CallerIsAdmin(c) {
			filter["userId"] = userID
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Bill
		if err := db.Collection("bills").FindOne(ctx, filter).Decode(&existing); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "bill not found"})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		update := bson.M{"$set": bson.M{
			"customerName":  replacement.CustomerName,
			"mobileNo":      replacement.MobileNo,
			"paymentMethod": replacement.PaymentMethod,
			"items":         replacement.Items,
			"totalAmount":   replacement.TotalAmount,
		}}

		if _, err := db.Collection("bills").UpdateByID(ctx, billID, update); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var updated models.Bill
		if err := db.Collection("bills").FindOne(ctx, bson.M{"_id": billID}).Decode(&updated); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func DeleteBill(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/bills/:id"

		billID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		_, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("bills").DeleteOne(ctx, bson.M{"_id": billID, "tenantId": tenantID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "bill not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "bill deleted"})
	}
}
