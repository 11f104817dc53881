package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subcategory is one sellable design/color/size variant of a category.
type Subcategory struct {
	Design string `bson:"design,omitempty" json:"design,omitempty"`
	Color  string `bson:"color,omitempty" json:"color,omitempty"`
	Size   string `bson:"size,omitempty" json:"size,omitempty"`
	SKU    string `bson:"sku" json:"sku"`
	Stock  int    `bson:"stock" json:"stock"`
}

// Category groups variants under one name and price. BaseStock is the
// category-level pool sold when no SKU is given; Stock is derived on save.
type Category struct {
	Name          string        `bson:"name" json:"name"`
	Price         float64       `bson:"price" json:"price"`
	BaseStock     int           `bson:"baseStock" json:"baseStock"`
	Stock         int           `bson:"stock" json:"stock"`
	Subcategories []Subcategory `bson:"subcategories" json:"subcategories"`
}

// Product is one catalog entry owned by a tenant.
type Product struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	TenantID   primitive.ObjectID `bson:"tenantId" json:"tenantId"`
	Categories []Category         `bson:"categories" json:"categories"`
	TotalStock int                `bson:"totalStock" json:"totalStock"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DeriveSKU builds an upper-cased SKU from the variant attributes.
// Empty attributes are skipped: ("red", "", "m") -> "RED-M".
func DeriveSKU(design, color, size string) string {
	parts := make([]string, 0, 3)
	for _, attr := range []string{design, color, size} {
		if trimmed := strings.TrimSpace(attr); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.ToUpper(strings.Join(parts, "-"))
}

// EnsureSKU fills in a derived SKU when none was supplied and upper-cases
// whatever ends up stored.
func (s *Subcategory) EnsureSKU() {
	sku := strings.TrimSpace(s.SKU)
	if sku == "" {
		sku = DeriveSKU(s.Design, s.Color, s.Size)
	}
	s.SKU = strings.ToUpper(sku)
}

// Category returns the category with the given exact name.
func (p *Product) Category(name string) *Category {
	for i := range p.Categories {
		if p.Categories[i].Name == name {
			return &p.Categories[i]
		}
	}
	return nil
}

// Subcategory returns the variant with the given exact SKU.
func (c *Category) Subcategory(sku string) *Subcategory {
	for i := range c.Subcategories {
		if c.Subcategories[i].SKU == sku {
			return &c.Subcategories[i]
		}
	}
	return nil
}

// Normalize recomputes the derived stock fields. Every category's stock is
// its base pool plus the sum of its subcategory stocks, and the product
// total is the sum over categories. Called before every product save.
func (p *Product) Normalize() {
	total := 0
	for i := range p.Categories {
		cat := &p.Categories[i]
		stock := cat.BaseStock
		for j := range cat.Subcategories {
			cat.Subcategories[j].EnsureSKU()
			stock += cat.Subcategories[j].Stock
		}
		cat.Stock = stock
		total += stock
	}
	p.TotalStock = total
}
