package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetToken is a single-use password recovery token. Only the sha256 hash
// of the opaque token is stored.
type ResetToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	TokenHash string             `bson:"tokenHash" json:"tokenHash"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	Used      bool               `bson:"used" json:"used"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
