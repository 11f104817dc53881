package handlers

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"billdesk/internal/models"
)

func validBillRequest() createBillRequest {
	return createBillRequest{
		CustomerName:  "Asha",
		MobileNo:      "9876543210",
		PaymentMethod: models.PaymentCash,
		Items: []billItemRequest{
			{
				ProductID: primitive.NewObjectID().Hex(),
				Category:  "Ceramic",
				Price:     250,
				Discount:  10,
				Quantity:  3,
				Total:     675,
			},
		},
		TotalAmount: 675,
	}
}

func TestBuildBillFromRequestRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*createBillRequest)
	}{
		{"blank customer", func(r *createBillRequest) { r.CustomerName = "  " }},
		{"bad payment method", func(r *createBillRequest) { r.PaymentMethod = "cheque" }},
		{"empty items", func(r *createBillRequest) { r.Items = nil }},
		{"zero quantity", func(r *createBillRequest) { r.Items[0].Quantity = 0 }},
		{"negative quantity", func(r *createBillRequest) { r.Items[0].Quantity = -2 }},
		{"bad product id", func(r *createBillRequest) { r.Items[0].ProductID = "nope" }},
		{"discount over 100", func(r *createBillRequest) { r.Items[0].Discount = 120 }},
		{"negative discount", func(r *createBillRequest) { r.Items[0].Discount = -5 }},
	}

	for _, tt := range tests {
		req := validBillRequest()
		tt.mutate(&req)
		if _, err := buildBillFromRequest(req); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestBuildBillFromRequestKeepsSubmittedTotals(t *testing.T) {
	req := validBillRequest()
	req.Items[0].Total = 675
	req.TotalAmount = 675

	bill, err := buildBillFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Totals are stored as submitted, never recomputed from price and
	// discount.
	if bill.Items[0].Total != 675 {
		t.Fatalf("line total changed: got %v", bill.Items[0].Total)
	}
	if bill.TotalAmount != 675 {
		t.Fatalf("bill total changed: got %v", bill.TotalAmount)
	}
	if bill.BillType != models.BillTypeDaily || bill.Occasion != "" {
		t.Fatalf("fresh bill should be daily, got type=%q occasion=%q", bill.BillType, bill.Occasion)
	}
}

func TestBuildBillFromRequestUpperCasesSKU(t *testing.T) {
	req := validBillRequest()
	req.Items[0].Subcategory = &billItemVariantRequest{SKU: "red-m"}

	bill, err := buildBillFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bill.Items[0].Subcategory.SKU != "RED-M" {
		t.Fatalf("expected RED-M, got %s", bill.Items[0].Subcategory.SKU)
	}
}

func TestStampOccasion(t *testing.T) {
	bill := models.Bill{}

	stampOccasion(&bill, "Diwali")
	if bill.BillType != models.BillTypeSpecial || bill.Occasion != "Diwali" {
		t.Fatalf("expected special/Diwali, got %s/%s", bill.BillType, bill.Occasion)
	}

	// clearing the occasion makes subsequent bills daily again
	stampOccasion(&bill, "")
	if bill.BillType != models.BillTypeDaily || bill.Occasion != "" {
		t.Fatalf("expected daily/empty, got %s/%q", bill.BillType, bill.Occasion)
	}
}

func mugProduct() *models.Product {
	p := &models.Product{
		ID:   primitive.NewObjectID(),
		Name: "Mug",
		Categories: []models.Category{
			{
				Name:  "Ceramic",
				Price: 250,
				Subcategories: []models.Subcategory{
					{SKU: "RED-M", Stock: 5},
				},
			},
		},
	}
	p.Normalize()
	return p
}

func TestApplyBillLineDecrementsSKUStock(t *testing.T) {
	product := mugProduct()
	line := models.BillItem{
		ProductID:   product.ID,
		Category:    "Ceramic",
		Subcategory: &models.BillItemVariant{SKU: "RED-M"},
		Quantity:    3,
	}

	if err := applyBillLine(product, &line); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := product.Category("Ceramic").Subcategory("RED-M")
	if sub.Stock != 2 {
		t.Fatalf("expected sku stock 2, got %d", sub.Stock)
	}
	if product.Category("Ceramic").Stock != 2 {
		t.Fatalf("expected category stock 2, got %d", product.Category("Ceramic").Stock)
	}
	if product.TotalStock != 2 {
		t.Fatalf("expected total stock 2, got %d", product.TotalStock)
	}
	if line.ProductName != "Mug" {
		t.Fatalf("expected line to capture product name, got %q", line.ProductName)
	}
}

func TestApplyBillLineInsufficientStockLeavesProductUnchanged(t *testing.T) {
	product := mugProduct()
	line := models.BillItem{
		ProductID:   product.ID,
		Category:    "Ceramic",
		Subcategory: &models.BillItemVariant{SKU: "RED-M"},
		Quantity:    3,
	}
	if err := applyBillLine(product, &line); err != nil {
		t.Fatalf("first sale should succeed: %v", err)
	}

	second := models.BillItem{
		ProductID:   product.ID,
		Category:    "Ceramic",
		Subcategory: &models.BillItemVariant{SKU: "RED-M"},
		Quantity:    3,
	}
	err := applyBillLine(product, &second)
	var stockErr insufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficientStockError, got %v", err)
	}
	if stockErr.Available != 2 {
		t.Fatalf("expected available 2, got %d", stockErr.Available)
	}
	if stockErr.Requested != 3 {
		t.Fatalf("expected requested 3, got %d", stockErr.Requested)
	}
	if product.Category("Ceramic").Subcategory("RED-M").Stock != 2 {
		t.Fatalf("failed line must not change stock, got %d", product.Category("Ceramic").Subcategory("RED-M").Stock)
	}
}

func TestApplyBillLineCategoryLevelSale(t *testing.T) {
	product := &models.Product{
		ID:         primitive.NewObjectID(),
		Name:       "Plate",
		Categories: []models.Category{{Name: "Steel", Price: 120, BaseStock: 10}},
	}
	product.Normalize()

	line := models.BillItem{ProductID: product.ID, Category: "Steel", Quantity: 4}
	if err := applyBillLine(product, &line); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.Categories[0].BaseStock != 6 || product.Categories[0].Stock != 6 {
		t.Fatalf("expected base/derived 6/6, got %d/%d", product.Categories[0].BaseStock, product.Categories[0].Stock)
	}
	if product.TotalStock != 6 {
		t.Fatalf("expected total 6, got %d", product.TotalStock)
	}
}

func TestApplyBillLineRepeatedLinesObservePriorDecrements(t *testing.T) {
	product := mugProduct()

	first := models.BillItem{ProductID: product.ID, Category: "Ceramic", Subcategory: &models.BillItemVariant{SKU: "RED-M"}, Quantity: 3}
	if err := applyBillLine(product, &first); err != nil {
		t.Fatalf("first line failed: %v", err)
	}

	// Only 2 left; a second line for 3 in the same request must fail.
	second := models.BillItem{ProductID: product.ID, Category: "Ceramic", Subcategory: &models.BillItemVariant{SKU: "RED-M"}, Quantity: 3}
	var stockErr insufficientStockError
	if err := applyBillLine(product, &second); !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficientStockError, got %v", err)
	}
	if stockErr.Available != 2 {
		t.Fatalf("expected available 2, got %d", stockErr.Available)
	}
}

func TestApplyBillLineNotFound(t *testing.T) {
	product := mugProduct()

	missingCategory := models.BillItem{ProductID: product.ID, Category: "Glass", Quantity: 1}
	var nf notFoundError
	if err := applyBillLine(product, &missingCategory); !errors.As(err, &nf) {
		t.Fatalf("expected notFoundError for category, got %v", err)
	}

	missingSKU := models.BillItem{ProductID: product.ID, Category: "Ceramic", Subcategory: &models.BillItemVariant{SKU: "GREEN-S"}, Quantity: 1}
	if err := applyBillLine(product, &missingSKU); !errors.As(err, &nf) {
		t.Fatalf("expected notFoundError for sku, got %v", err)
	}
}

func TestBuildBillListFilterScopesByRole(t *testing.T) {
	userID := primitive.NewObjectID()
	tenantID := primitive.NewObjectID()

	filter := buildBillListFilter(userID, tenantID, false, nil, nil)
	if filter["tenantId"] != tenantID {
		t.Fatal("expected tenant scope")
	}
	if filter["userId"] != userID {
		t.Fatal("non-admin listing must be restricted to own bills")
	}

	adminFilter := buildBillListFilter(userID, tenantID, true, nil, nil)
	if _, ok := adminFilter["userId"]; ok {
		t.Fatal("admin listing must not be restricted to one user")
	}
	if adminFilter["tenantId"] != tenantID {
		t.Fatal("admin listing still scoped to tenant")
	}
}

func TestBuildBillListFilterDateRangeInclusiveEndOfDay(t *testing.T) {
	userID := primitive.NewObjectID()
	tenantID := primitive.NewObjectID()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	filter := buildBillListFilter(userID, tenantID, true, &start, &end)
	createdAt, ok := filter["createdAt"].(bson.M)
	if !ok {
		t.Fatal("expected createdAt range")
	}
	if createdAt["$gte"] != start {
		t.Fatalf("expected $gte %v, got %v", start, createdAt["$gte"])
	}
	wantEnd := end.AddDate(0, 0, 1)
	if createdAt["$lt"] != wantEnd {
		t.Fatalf("expected $lt %v (end of day), got %v", wantEnd, createdAt["$lt"])
	}
}

func TestParseDateParam(t *testing.T) {
	if d, err := parseDateParam(""); err != nil || d != nil {
		t.Fatal("empty input should yield nil, nil")
	}
	if _, err := parseDateParam("03/01/2025"); err == nil {
		t.Fatal("expected error for wrong format")
	}
	d, err := parseDateParam("2025-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.March || d.Day() != 1 {
		t.Fatalf("parsed wrong date: %v", d)
	}
}
