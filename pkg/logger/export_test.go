package logger

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewTestMongoHandler builds a handler over ins without a server.
func NewTestMongoHandler(ins func(docs []interface{}), batch int) *MongoHandler {
	return newMongoHandler(insertFunc(ins), nil, slog.LevelInfo, batch, time.Hour)
}

type insertFunc func(docs []interface{})

func (f insertFunc) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	cp := make([]interface{}, len(docs))
	copy(cp, docs)
	f(cp)
	return &mongo.InsertManyResult{}, nil
}
