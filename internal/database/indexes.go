package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	_, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex)
	if err != nil {
		log.Error().Err(err).Msg("EnsureUserIndexes: email index")
		return err
	}
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	nameTenantIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: 1},
			{Key: "tenantId", Value: 1},
		},
		Options: options.Index().
			SetName("name_tenant_unique").
			SetUnique(true),
	}

	_, err := db.Collection("products").Indexes().CreateOne(ctx, nameTenantIndex)
	if err != nil {
		log.Error().Err(err).Msg("EnsureProductIndexes: name_tenant index")
		return err
	}
	return nil
}

func EnsureBillIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("userId_index"),
		},
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("tenant_createdAt_index"),
		},
	}

	_, err := db.Collection("bills").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Error().Err(err).Msg("EnsureBillIndexes: bill indexes")
		return err
	}
	return nil
}

func EnsureOccasionIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tenantIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "tenantId", Value: 1}},
		Options: options.Index().
			SetName("tenant_unique").
			SetUnique(true),
	}

	_, err := db.Collection("occasions").Indexes().CreateOne(ctx, tenantIndex)
	if err != nil {
		log.Error().Err(err).Msg("EnsureOccasionIndexes: tenant index")
		return err
	}
	return nil
}

func EnsureResetTokenIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hashIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "tokenHash", Value: 1}},
		Options: options.Index().
			SetName("tokenHash_unique").
			SetUnique(true),
	}

	_, err := db.Collection("reset_tokens").Indexes().CreateOne(ctx, hashIndex)
	if err != nil {
		log.Error().Err(err).Msg("EnsureResetTokenIndexes: tokenHash index")
		return err
	}
	return nil
}
