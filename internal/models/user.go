package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an application account. Every user belongs to exactly one tenant
// and owns the bills created under their id.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	TenantID     primitive.ObjectID `bson:"tenantId" json:"tenantId"`
	Organization string             `bson:"organization,omitempty" json:"organization,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsAdmin reports whether the user may read other users' bills and manage
// the catalog and occasion.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
