package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionIndex struct {
	Collection string
	Model      mongo.IndexModel
}

func index(coll, name string, keys bson.D, unique bool) collectionIndex {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return collectionIndex{Collection: coll, Model: mongo.IndexModel{Keys: keys, Options: opts}}
}

// Indexes lists every index the API relies on.
func Indexes() []collectionIndex {
	return []collectionIndex{
		// Customer order history, newest first
		index("orders", "idx_user_orders_date", bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}, false),
		index("orders", "idx_timestamp", bson.D{{Key: "timestamp", Value: -1}}, false),
		index("orders", "idx_status", bson.D{{Key: "status", Value: 1}}, false),
		index("orders", "idx_pincode", bson.D{{Key: "addressInfo.pincode", Value: 1}}, false),

		// Invoice numbers are random, so a duplicate is caught here and retried
		index("invoices", "idx_invoiceNumber", bson.D{{Key: "invoiceNumber", Value: 1}}, true),
		index("invoices", "idx_createdAt", bson.D{{Key: "createdAt", Value: -1}}, false),

		index("products", "idx_category_status", bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}, false),
		index("products", "idx_products_date", bson.D{{Key: "createdAt", Value: -1}}, false),

		index("carts", "idx_cart_userId", bson.D{{Key: "userId", Value: 1}}, true),
	}
}

// EnsureIndexes creates every index in Indexes. It keeps going after a
// failure and returns the number of indexes it could not create.
func EnsureIndexes(ctx context.Context, db *mongo.Database) (failed int, err error) {
	for _, ix := range Indexes() {
		name := ""
		if ix.Model.Options != nil && ix.Model.Options.Name != nil {
			name = *ix.Model.Options.Name
		}
		log := logrus.WithFields(logrus.Fields{"collection": ix.Collection, "index": name})
		if _, err := db.Collection(ix.Collection).Indexes().CreateOne(ctx, ix.Model); err != nil {
			log.WithError(err).Error("Failed to create index")
			failed++
			continue
		}
		log.Info("Created index")
	}
	if failed > 0 {
		return failed, fmt.Errorf("%d of %d indexes failed", failed, len(Indexes()))
	}
	return 0, nil
}
