package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Occasion is the single per-tenant promotional flag. An empty
// ActiveOccasion means no promotion is running; the record is created
// lazily on first set and cleared by blanking, never deleted.
type Occasion struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID       primitive.ObjectID `bson:"tenantId" json:"tenantId"`
	ActiveOccasion string             `bson:"activeOccasion" json:"activeOccasion"`
	UpdatedBy      primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
