package users

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	pkgerrors "github.com/pkg/errors"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreCollection is the collection user documents are stored in
const FirestoreCollection = "users"

// FirestoreUserRepository stores users in Cloud Firestore, keyed by the hex of their ObjectID
type FirestoreUserRepository struct {
	Client *firestore.Client
	Cache  UserCacheInterface
	Logger logger.Interface
}

func (r *FirestoreUserRepository) decode(snapshot *firestore.DocumentSnapshot) (*User, error) {
	u := User{}

	err := snapshot.DataTo(&u)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not decode user")
	}

	u.ID, err = primitive.ObjectIDFromHex(snapshot.Ref.ID)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "user document %s has no object id", snapshot.Ref.ID)
	}

	return &u, nil
}

// Add adds a user
func (r *FirestoreUserRepository) Add(ctx context.Context, user *User) error {
	user.CreatedAt = time.Now()
	user.LastModifiedAt = time.Now()
	user.ID = primitive.NewObjectID()

	_, err := r.Client.Collection(FirestoreCollection).Doc(user.ID.Hex()).Create(ctx, user)
	if err != nil {
		return pkgerrors.Wrap(err, "could not insert user")
	}

	return nil
}

// FindByID finds a user by ID, consulting the cache first
func (r *FirestoreUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	if r.Cache != nil {
		cached, err := r.Cache.Get(ctx, id)
		if err == nil {
			return cached, nil
		}
	}

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, pkgerrors.Wrapf(ErrUserNotFound, "malformed id %s", id)
	}

	snapshot, err := r.Client.Collection(FirestoreCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(err, "could not find user")
	}

	user, err := r.decode(snapshot)
	if err != nil {
		return nil, err
	}

	if r.Cache != nil {
		err = r.Cache.Add(ctx, id, user)
		if err != nil {
			r.Logger.Warning("Could not cache user", err)
		}
	}

	return user, nil
}

// FindByFirebaseUID finds a user by the uid of the identity provider
func (r *FirestoreUserRepository) FindByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	documents := r.Client.Collection(FirestoreCollection).Where("firebaseUid", "==", uid).Limit(1).Documents(ctx)
	defer documents.Stop()

	snapshot, err := documents.Next()
	if err == iterator.Done {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not find user")
	}

	return r.decode(snapshot)
}

// Update updates a user
func (r *FirestoreUserRepository) Update(ctx context.Context, user *User) error {
	user.LastModifiedAt = time.Now()
	reference := r.Client.Collection(FirestoreCollection).Doc(user.ID.Hex())

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, transaction *firestore.Transaction) error {
		_, err := transaction.Get(reference)
		if err != nil {
			return err
		}

		return transaction.Set(reference, user)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrUserNotFound
		}
		return pkgerrors.Wrap(err, "could not update user")
	}

	r.invalidate(ctx, user.ID.Hex())

	return nil
}

// Remove Deletes a user
func (r *FirestoreUserRepository) Remove(ctx context.Context, id string) error {
	_, err := r.Client.Collection(FirestoreCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrUserNotFound
		}
		return pkgerrors.Wrap(err, "could not delete user")
	}

	r.invalidate(ctx, id)

	return nil
}

func (r *FirestoreUserRepository) invalidate(ctx context.Context, id string) {
	if r.Cache == nil {
		return
	}

	err := r.Cache.Invalidate(ctx, id)
	if err != nil {
		r.Logger.Warning("Could not invalidate cached user", err)
	}
}
