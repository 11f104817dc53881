package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentCash   = "cash"
	PaymentOnline = "online"

	BillTypeDaily   = "daily"
	BillTypeSpecial = "special"
)

// BillItemVariant records which design/color/size variant a line sold.
type BillItemVariant struct {
	Design string `bson:"design,omitempty" json:"design,omitempty"`
	Color  string `bson:"color,omitempty" json:"color,omitempty"`
	Size   string `bson:"size,omitempty" json:"size,omitempty"`
	SKU    string `bson:"sku" json:"sku"`
}

// BillItem is one resolved product line within a bill. Total is stored as
// submitted by the caller, not recomputed server-side.
type BillItem struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName" json:"productName"`
	Category    string             `bson:"category" json:"category"`
	Subcategory *BillItemVariant   `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Discount    float64            `bson:"discount" json:"discount"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Total       float64            `bson:"total" json:"total"`
}

// Bill is one persisted customer transaction, owned by the creating user.
type Bill struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerName  string             `bson:"customerName" json:"customerName"`
	MobileNo      FlexString         `bson:"mobileNo,omitempty" json:"mobileNo,omitempty"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	Items         []BillItem         `bson:"items" json:"items"`
	TotalAmount   float64            `bson:"totalAmount" json:"totalAmount"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	TenantID      primitive.ObjectID `bson:"tenantId" json:"tenantId"`
	Occasion      string             `bson:"occasion" json:"occasion"`
	BillType      string             `bson:"billType" json:"billType"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// ValidPaymentMethod reports whether the value is one of the payment enum.
func ValidPaymentMethod(method string) bool {
	return method == PaymentCash || method == PaymentOnline
}
