package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"billdesk/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type billItemVariantRequest struct {
	Design string `json:"design"`
	Color  string `json:"color"`
	Size   string `json:"size"`
	SKU    string `json:"sku"`
}

type billItemRequest struct {
	ProductID   string                  `json:"productId" binding:"required"`
	Category    string                  `json:"category" binding:"required"`
	Subcategory *billItemVariantRequest `json:"subcategory"`
	Price       float64                 `json:"price"`
	Discount    float64                 `json:"discount"`
	Quantity    int                     `json:"quantity" binding:"required"`
	Total       float64                 `json:"total"`
}

type createBillRequest struct {
	CustomerName  string            `json:"customerName" binding:"required"`
	MobileNo      string            `json:"mobileNo"`
	PaymentMethod string            `json:"paymentMethod" binding:"required"`
	Items         []billItemRequest `json:"items" binding:"required"`
	TotalAmount   float64           `json:"totalAmount"`
}

/* =========================
   WORKFLOW ERRORS
========================= */

type notFoundError struct {
	Kind string
	Ref  string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Ref)
}

type insufficientStockError struct {
	ProductID primitive.ObjectID
	Category  string
	SKU       string
	Available int
	Requested int
}

func (e insufficientStockError) Error() string {
	return "insufficient stock"
}

/* =========================
   BUILD BILL
========================= */

// buildBillFromRequest validates the submitted payload and shapes the
// unresolved bill. Line totals and the bill total are taken as submitted;
// the catalog resolution happens later inside the transaction.
func buildBillFromRequest(req createBillRequest) (models.Bill, error) {
	customer := strings.TrimSpace(req.CustomerName)
	if customer == "" {
		return models.Bill{}, errors.New("customerName is required")
	}

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return models.Bill{}, errors.New("invalid payment method")
	}

	if len(req.Items) == 0 {
		return models.Bill{}, errors.New("at least one item is required")
	}

	items := make([]models.BillItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
		if err != nil {
			return models.Bill{}, errors.New("invalid productId")
		}

		if item.Quantity <= 0 {
			return models.Bill{}, errors.New("quantity must be greater than zero")
		}

		if item.Discount < 0 || item.Discount > 100 {
			return models.Bill{}, errors.New("discount must be between 0 and 100")
		}

		line := models.BillItem{
			ProductID: productID,
			Category:  strings.TrimSpace(item.Category),
			Price:     item.Price,
			Discount:  item.Discount,
			Quantity:  item.Quantity,
			Total:     item.Total,
		}

		if item.Subcategory != nil && strings.TrimSpace(item.Subcategory.SKU) != "" {
			line.Subcategory = &models.BillItemVariant{
				Design: strings.TrimSpace(item.Subcategory.Design),
				Color:  strings.TrimSpace(item.Subcategory.Color),
				Size:   strings.TrimSpace(item.Subcategory.Size),
				SKU:    strings.ToUpper(strings.TrimSpace(item.Subcategory.SKU)),
			}
		}

		items = append(items, line)
	}

	return models.Bill{
		CustomerName:  customer,
		MobileNo:      models.FlexString(strings.TrimSpace(req.MobileNo)),
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		TotalAmount:   req.TotalAmount,
		Occasion:      "",
		BillType:      models.BillTypeDaily,
		CreatedAt:     time.Now(),
	}, nil
}

// stampOccasion tags the bill with the tenant's active occasion. An empty
// value means an ordinary daily bill.
func stampOccasion(bill *models.Bill, active string) {
	if active == "" {
		bill.Occasion = ""
		bill.BillType = models.BillTypeDaily
		return
	}
	bill.Occasion = active
	bill.BillType = models.BillTypeSpecial
}

/* =========================
   LINE RESOLUTION
========================= */

// applyBillLine resolves one line against the in-memory product, checks
// availability and decrements the matched stock field. The same product
// value is reused for repeat lines in a request, so each line observes the
// decrements of the lines before it.
func applyBillLine(product *models.Product, line *models.BillItem) error {
	cat := product.Category(line.Category)
	if cat == nil {
		return notFoundError{Kind: "category", Ref: line.Category}
	}

	if line.Subcategory != nil {
		sub := cat.Subcategory(line.Subcategory.SKU)
		if sub == nil {
			return notFoundError{Kind: "subcategory", Ref: line.Subcategory.SKU}
		}
		if sub.Stock < line.Quantity {
			return insufficientStockError{
				ProductID: product.ID,
				Category:  cat.Name,
				SKU:       sub.SKU,
				Available: sub.Stock,
				Requested: line.Quantity,
			}
		}
		sub.Stock -= line.Quantity
		line.Subcategory.Design = sub.Design
		line.Subcategory.Color = sub.Color
		line.Subcategory.Size = sub.Size
	} else {
		if cat.BaseStock < line.Quantity {
			return insufficientStockError{
				ProductID: product.ID,
				Category:  cat.Name,
				Available: cat.BaseStock,
				Requested: line.Quantity,
			}
		}
		cat.BaseStock -= line.Quantity
	}

	line.ProductName = product.Name
	product.Normalize()
	return nil
}

/* =========================
   LIST FILTER
========================= */

// buildBillListFilter scopes the bill listing: everyone is confined to
// their tenant, non-admins additionally to their own bills. The end date
// is inclusive, treated as end-of-day.
func buildBillListFilter(userID, tenantID primitive.ObjectID, isAdmin bool, startDate, endDate *time.Time) bson.M {
	filter := bson.M{"tenantId": tenantID}
	if !isAdmin {
		filter["userId"] = userID
	}

	createdAt := bson.M{}
	if startDate != nil {
		createdAt["$gte"] = *startDate
	}
	if endDate != nil {
		createdAt["$lt"] = endDate.AddDate(0, 0, 1)
	}
	if len(createdAt) > 0 {
		filter["createdAt"] = createdAt
	}

	return filter
}

func parseDateParam(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", value)
	}
	return &parsed, nil
}
