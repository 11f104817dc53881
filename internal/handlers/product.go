package handlers

import (
	"context"
	"errors"
	"fmt"
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

/* =======================
   REQUEST DTOs
======================= */

type subcategoryRequest struct {
	Design string `json:"design"`
	Color  string `json:"color"`
	Size   string `json:"size"`
	SKU    string `json:"sku"`
	Stock  int    `json:"stock"`
}

type categoryRequest struct {
	Name          string               `json:"name" binding:"required"`
	Price         float64              `json:"price"`
	Stock         int                  `json:"stock"`
	Subcategories []subcategoryRequest `json:"subcategories"`
}

type productCreateRequest struct {
	Name       string            `json:"name" binding:"required"`
	Categories []categoryRequest `json:"categories" binding:"required"`
}

type productUpdateRequest struct {
	Name       *string            `json:"name"`
	Categories *[]categoryRequest `json:"categories"`
}

/* =======================
   HELPERS
======================= */

// buildCategoriesFromRequest shapes and validates the nested category list.
// The submitted category stock is the category-level base pool; derived
// fields are filled in by Normalize on the product.
func buildCategoriesFromRequest(reqs []categoryRequest) ([]models.Category, error) {
	if len(reqs) == 0 {
		return nil, errors.New("at least one category is required")
	}

	seenNames := map[string]struct{}{}
	categories := make([]models.Category, 0, len(reqs))

	for _, req := range reqs {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return nil, errors.New("category name is required")
		}
		if _, ok := seenNames[name]; ok {
			return nil, fmt.Errorf("duplicate category: %s", name)
		}
		seenNames[name] = struct{}{}

		if req.Price < 0 {
			return nil, fmt.Errorf("category %s: price must be zero or greater", name)
		}
		if req.Stock < 0 {
			return nil, fmt.Errorf("category %s: stock must be zero or greater", name)
		}

		cat := models.Category{
			Name:          name,
			Price:         req.Price,
			BaseStock:     req.Stock,
			Subcategories: make([]models.Subcategory, 0, len(req.Subcategories)),
		}

		seenSKUs := map[string]struct{}{}
		for _, subReq := range req.Subcategories {
			if subReq.Stock < 0 {
				return nil, fmt.Errorf("category %s: subcategory stock must be zero or greater", name)
			}
			sub := models.Subcategory{
				Design: strings.TrimSpace(subReq.Design),
				Color:  strings.TrimSpace(subReq.Color),
				Size:   strings.TrimSpace(subReq.Size),
				SKU:    strings.TrimSpace(subReq.SKU),
				Stock:  subReq.Stock,
			}
			sub.EnsureSKU()
			if sub.SKU == "" {
				return nil, fmt.Errorf("category %s: subcategory needs a sku or attributes", name)
			}
			if _, ok := seenSKUs[sub.SKU]; ok {
				return nil, fmt.Errorf("category %s: duplicate sku %s", name, sub.SKU)
			}
			seenSKUs[sub.SKU] = struct{}{}
			cat.Subcategories = append(cat.Subcategories, sub)
		}

		categories = append(categories, cat)
	}

	return categories, nil
}

/* =======================
   LIST / GET
======================= */

// GetProducts lists the tenant's catalog, optionally filtered by a name
// search and paginated when both page and limit are present.
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		_, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		filter := bson.M{"tenantId": tenantID}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": search, "$options": "i"}
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		pageStr := c.Query("page")
		limitStr := c.Query("limit")
		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}
			findOptions.
				SetSkip((page - 1) * limit).
				SetLimit(limit)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
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

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": id, "tenantId": tenantID}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

/* =======================
   CREATE
======================= */

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}

		categories, err := buildCategoriesFromRequest(req.Categories)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		_, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("products").CountDocuments(ctx, bson.M{
			"name":     name,
			"tenantId": tenantID,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "product already exists"})
			return
		}

		now := time.Now()
		product := models.Product{
			Name:       name,
			TenantID:   tenantID,
			Categories: categories,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		product.Normalize()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			log.Error().Err(err).Str("route", route).Msg("insert failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.ID = res.InsertedID.(primitive.ObjectID)
		log.Info().Str("productId", product.ID.Hex()).Msg("product created")
		c.JSON(http.StatusCreated, product)
	}
}

/* =======================
   UPDATE
======================= */

// UpdateProduct applies a partial update. The category list, when
// supplied, replaces the whole nested structure; derived stock fields are
// recomputed before the save.
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.Name == nil && req.Categories == nil {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		_, tenantID, ok := middleware.CallerIDs(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": id, "tenantId": tenantID}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required")
				return
			}
			existing.Name = name
		}

		if req.Categories != nil {
			categories, err := buildCategoriesFromRequest(*req.Categories)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			existing.Categories = categories
		}

		existing.UpdatedAt = time.Now()
		existing.Normalize()

		result, err := db.Collection("products").ReplaceOne(ctx, bson.M{
			"_id":      id,
			"tenantId": tenantID,
		}, existing)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}

		c.JSON(http.StatusOK, existing)
	}
}

/* =======================
   DELETE
======================= */

func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
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

		result, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": id, "tenantId": tenantID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
