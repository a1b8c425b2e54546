package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
}

// MongoSource publishes an Event for every change on a collection. Change
// streams need a replica set; on a standalone server Run fails immediately
// and the repository's own write notifications are the only source.
type MongoSource struct {
	Coll *mongo.Collection
	Out  Publisher
}

func (s *MongoSource) Run(ctx context.Context) error {
	stream, err := s.Coll.Watch(ctx, mongo.Pipeline{}, options.ChangeStream())
	if err != nil {
		return fmt.Errorf("watch %s: %w", s.Coll.Name(), err)
	}
	defer stream.Close(context.Background())

	logrus.WithField("collection", s.Coll.Name()).Info("Watching change stream")
	for stream.Next(ctx) {
		var ch changeEvent
		if err := stream.Decode(&ch); err != nil {
			logrus.WithError(err).Warn("Skipping undecodable change event")
			continue
		}
		s.Out.Publish(Event{Kind: ch.OperationType, OrderID: ch.DocumentKey.ID.Hex(), At: time.Now()})
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("change stream %s: %w", s.Coll.Name(), err)
	}
	return nil
}
