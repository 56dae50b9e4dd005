package users

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUserNotFound is returned when no user matches a query
var ErrUserNotFound = errors.New("user not found")

// UserRepositoryInterface is the interface for a UserRepository
type UserRepositoryInterface interface {
	Add(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByFirebaseUID(ctx context.Context, uid string) (*User, error)
	Update(ctx context.Context, user *User) error
	Remove(ctx context.Context, id string) error
}

// MongoDBUserRepository does everything related to user storing
type MongoDBUserRepository struct {
	DB     *mongo.Collection
	Cache  UserCacheInterface
	Logger logger.Interface
}

// Add adds a user
func (s *MongoDBUserRepository) Add(ctx context.Context, user *User) error {
	user.CreatedAt = time.Now()
	user.LastModifiedAt = time.Now()
	user.ID = primitive.NewObjectID()

	_, err := s.DB.InsertOne(ctx, user)
	if err != nil {
		return pkgerrors.Wrap(err, "could not insert user")
	}

	return nil
}

// FindByID finds a user by ID, consulting the cache first
func (s *MongoDBUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, id)
		if err == nil {
			return cached, nil
		}
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrUserNotFound, "malformed id %s", id)
	}

	user, err := s.findOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		err = s.Cache.Add(ctx, id, user)
		if err != nil {
			s.Logger.Warning("Could not cache user", err)
		}
	}

	return user, nil
}

// FindByFirebaseUID finds a user by the uid of the identity provider
func (s *MongoDBUserRepository) FindByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	return s.findOne(ctx, bson.M{"firebaseUid": uid})
}

func (s *MongoDBUserRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u = User{}

	result := s.DB.FindOne(ctx, filter)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(result.Err(), "could not find user")
	}

	err := result.Decode(&u)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not decode user")
	}

	return &u, nil
}

// Update updates a user
func (s *MongoDBUserRepository) Update(ctx context.Context, user *User) error {
	user.LastModifiedAt = time.Now()

	result, err := s.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": user})
	if err != nil {
		return pkgerrors.Wrap(err, "could not update user")
	}

	if result.MatchedCount != 1 {
		return ErrUserNotFound
	}

	s.invalidate(ctx, user.ID.Hex())

	return nil
}

// Remove Deletes a user
func (s *MongoDBUserRepository) Remove(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return pkgerrors.Wrapf(ErrUserNotFound, "malformed id %s", id)
	}

	result, err := s.DB.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return pkgerrors.Wrap(err, "could not delete user")
	}

	if result.DeletedCount != 1 {
		return ErrUserNotFound
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *MongoDBUserRepository) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}

	err := s.Cache.Invalidate(ctx, id)
	if err != nil {
		s.Logger.Warning("Could not invalidate cached user", err)
	}
}
