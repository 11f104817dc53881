package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

type flexDoc struct {
	MobileNo FlexString `bson:"mobileNo"`
}

func TestFlexStringDecodesLegacyNumbers(t *testing.T) {
	tests := []struct {
		name string
		doc  bson.M
		want string
	}{
		{"string", bson.M{"mobileNo": "9876543210"}, "9876543210"},
		{"int64", bson.M{"mobileNo": int64(9876543210)}, "9876543210"},
		{"int32", bson.M{"mobileNo": int32(12345)}, "12345"},
		{"double", bson.M{"mobileNo": float64(12345)}, "12345"},
		{"null", bson.M{"mobileNo": nil}, ""},
	}

	for _, tt := range tests {
		data, err := bson.Marshal(tt.doc)
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", tt.name, err)
		}

		var decoded flexDoc
		if err := bson.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("%s: unmarshal failed: %v", tt.name, err)
		}
		if string(decoded.MobileNo) != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, decoded.MobileNo, tt.want)
		}
	}
}

func TestFlexStringMarshalsAsString(t *testing.T) {
	data, err := bson.Marshal(flexDoc{MobileNo: "123"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if value, ok := raw["mobileNo"].(string); !ok || value != "123" {
		t.Fatalf("expected string \"123\", got %#v", raw["mobileNo"])
	}
}
