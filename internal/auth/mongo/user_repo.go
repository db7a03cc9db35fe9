// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package mongo stores users in a MongoDB collection.
//
// Documents keep the field names of the deployed collection: the hash lives
// under "password" and legacy documents may lack the timestamp fields.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mtgvault/mtgvault/internal/auth"
)

// DefaultCollection is the collection users are stored in.
const DefaultCollection = "users"

const emailIndexName = "email_unique"

type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"created_at,omitempty"`
	UpdatedAt time.Time     `bson:"updated_at,omitempty"`
}

func (d *userDocument) toUser() *auth.User {
	return &auth.User{
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func documentFor(u *auth.User) userDocument {
	return userDocument{
		Email:     u.Email,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserRepository implements auth.UserRepository on a MongoDB collection.
type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ auth.UserRepository = (*UserRepository)(nil)

// NewUserRepository wraps coll. Call EnsureIndexes before serving traffic;
// email uniqueness depends on the index.
func NewUserRepository(coll *mongo.Collection) *UserRepository {
	return &UserRepository{coll: coll, now: time.Now}
}

// EnsureIndexes creates the unique email index. It is idempotent.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return oops.Code("USER_INDEX_FAILED").
			With("collection", r.coll.Name()).
			Wrap(err)
	}
	return nil
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "find user by email").
			With("email", email).
			Wrap(err)
	}
	return doc.toUser(), nil
}

// Create inserts a new user document.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.coll.InsertOne(ctx, documentFor(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return oops.Code("USER_EXISTS").
				With("email", user.Email).
				Wrap(auth.ErrDuplicate)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "email", Value: email}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password", Value: passwordHash},
			{Key: "updated_at", Value: r.now().UTC()},
		}}},
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update password").
			With("email", email).
			Wrap(err)
	}
	if res.MatchedCount == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	return nil
}
