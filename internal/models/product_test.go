package models

import "testing"

func TestDeriveSKU(t *testing.T) {
	tests := []struct {
		design, color, size string
		want                string
	}{
		{"red", "", "m", "RED-M"},
		{"floral", "blue", "xl", "FLORAL-BLUE-XL"},
		{"", "", "", ""},
		{"  plain  ", "", "", "PLAIN"},
	}
	for _, tt := range tests {
		if got := DeriveSKU(tt.design, tt.color, tt.size); got != tt.want {
			t.Fatalf("DeriveSKU(%q,%q,%q) = %q, want %q", tt.design, tt.color, tt.size, got, tt.want)
		}
	}
}

func TestEnsureSKUUpperCasesSuppliedValue(t *testing.T) {
	sub := Subcategory{SKU: "red-m"}
	sub.EnsureSKU()
	if sub.SKU != "RED-M" {
		t.Fatalf("expected RED-M, got %s", sub.SKU)
	}
}

func TestEnsureSKUDerivesWhenMissing(t *testing.T) {
	sub := Subcategory{Design: "floral", Color: "blue", Size: "xl"}
	sub.EnsureSKU()
	if sub.SKU != "FLORAL-BLUE-XL" {
		t.Fatalf("expected derived sku, got %s", sub.SKU)
	}
}

func TestNormalizeRecomputesDerivedStocks(t *testing.T) {
	p := Product{
		Categories: []Category{
			{
				Name:      "Ceramic",
				BaseStock: 2,
				Subcategories: []Subcategory{
					{SKU: "RED-M", Stock: 5},
					{SKU: "BLUE-M", Stock: 3},
				},
			},
			{
				Name:      "Steel",
				BaseStock: 4,
			},
		},
	}

	p.Normalize()

	if p.Categories[0].Stock != 10 {
		t.Fatalf("expected Ceramic stock 10 (base 2 + subs 8), got %d", p.Categories[0].Stock)
	}
	if p.Categories[1].Stock != 4 {
		t.Fatalf("expected Steel stock 4, got %d", p.Categories[1].Stock)
	}
	if p.TotalStock != 14 {
		t.Fatalf("expected total stock 14, got %d", p.TotalStock)
	}
}

func TestNormalizeHoldsAfterMutations(t *testing.T) {
	p := Product{
		Categories: []Category{
			{Name: "Ceramic", BaseStock: 1, Subcategories: []Subcategory{{SKU: "RED-M", Stock: 5}}},
		},
	}
	p.Normalize()

	// add a subcategory
	cat := p.Category("Ceramic")
	cat.Subcategories = append(cat.Subcategories, Subcategory{SKU: "BLUE-M", Stock: 7})
	p.Normalize()
	if p.TotalStock != 13 || cat.Stock != 13 {
		t.Fatalf("after add: total=%d cat=%d, want 13/13", p.TotalStock, cat.Stock)
	}

	// remove a subcategory
	cat.Subcategories = cat.Subcategories[:1]
	p.Normalize()
	if p.TotalStock != 6 || cat.Stock != 6 {
		t.Fatalf("after remove: total=%d cat=%d, want 6/6", p.TotalStock, cat.Stock)
	}

	// add a whole category
	p.Categories = append(p.Categories, Category{Name: "Steel", BaseStock: 9})
	p.Normalize()
	if p.TotalStock != 15 {
		t.Fatalf("after new category: total=%d, want 15", p.TotalStock)
	}

	// remove a category
	p.Categories = p.Categories[:1]
	p.Normalize()
	if p.TotalStock != 6 {
		t.Fatalf("after category removal: total=%d, want 6", p.TotalStock)
	}
}

func TestCategoryLookupIsExactMatch(t *testing.T) {
	p := Product{Categories: []Category{{Name: "Ceramic"}}}
	if p.Category("ceramic") != nil {
		t.Fatal("lookup should be case sensitive")
	}
	if p.Category("Ceramic") == nil {
		t.Fatal("expected to find Ceramic")
	}
}

func TestSubcategoryLookupIsExactMatch(t *testing.T) {
	c := Category{Subcategories: []Subcategory{{SKU: "RED-M"}}}
	if c.Subcategory("red-m") != nil {
		t.Fatal("lookup should be exact")
	}
	if c.Subcategory("RED-M") == nil {
		t.Fatal("expected to find RED-M")
	}
}
