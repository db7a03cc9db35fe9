// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package mongo

import (
	"context"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Open connects to uri, pings the primary and returns a repository on
// database.users with its indexes in place. The caller disconnects the client.
func Open(ctx context.Context, uri, database string) (*mongo.Client, *UserRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, oops.Code("MONGO_CONNECT_FAILED").Wrap(err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // ping error takes precedence
		return nil, nil, oops.Code("MONGO_CONNECT_FAILED").
			With("operation", "ping").
			Wrap(err)
	}

	repo := NewUserRepository(client.Database(database).Collection(DefaultCollection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // index error takes precedence
		return nil, nil, err
	}
	return client, repo, nil
}
