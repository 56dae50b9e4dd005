package tapas

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBTapasRepository does everything related to storing and finding Tapas in MongoDB
type MongoDBTapasRepository struct {
	Observers
	DB     *mongo.Collection
	Logger logger.Interface
}

// Add adds a Tapas
func (s *MongoDBTapasRepository) Add(ctx context.Context, tapas *Tapas) error {
	tapas.CreatedAt = time.Now()
	tapas.LastModifiedAt = time.Now()
	tapas.ID = primitive.NewObjectID()

	_, err := s.DB.InsertOne(ctx, tapas)
	if err != nil {
		return pkgerrors.Wrap(err, "could not insert tapas")
	}

	s.Publish(tapas)

	return nil
}

// Update replaces a Tapas of its owner
func (s *MongoDBTapasRepository) Update(ctx context.Context, tapas *Tapas) error {
	tapas.LastModifiedAt = time.Now()

	result, err := s.DB.UpdateOne(ctx, bson.M{
		"_id":    tapas.ID,
		"userId": tapas.UserID,
	}, bson.M{"$set": tapas})
	if err != nil {
		return pkgerrors.Wrap(err, "could not update tapas")
	}

	if result.MatchedCount != 1 {
		return ErrNotFound
	}

	s.Publish(tapas)

	return nil
}

func (s *MongoDBTapasRepository) findOne(ctx context.Context, filter bson.M) (*Tapas, error) {
	t := Tapas{}

	result := s.DB.FindOne(ctx, filter)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(result.Err(), "could not find tapas")
	}

	err := result.Decode(&t)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not decode tapas")
	}

	return &t, nil
}

// FindByID finds a Tapas of a user
func (s *MongoDBTapasRepository) FindByID(ctx context.Context, tapasID string, userID string, isDeleted bool) (*Tapas, error) {
	tapasObjectID, err := primitive.ObjectIDFromHex(tapasID)
	if err != nil {
		return nil, ErrNotFound
	}

	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	return s.findOne(ctx, bson.M{"_id": tapasObjectID, "userId": userObjectID, "deleted": isDeleted})
}

// FindSharedByID finds a shared Tapas of any user
func (s *MongoDBTapasRepository) FindSharedByID(ctx context.Context, tapasID string) (*Tapas, error) {
	tapasObjectID, err := primitive.ObjectIDFromHex(tapasID)
	if err != nil {
		return nil, ErrNotFound
	}

	return s.findOne(ctx, bson.M{"_id": tapasObjectID, "shared": true, "deleted": false})
}

func userFilter(userID string, filters []Filter) (bson.D, error) {
	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	queryFilter := bson.D{
		{Key: "userId", Value: userObjectID},
		{Key: "deleted", Value: false},
	}

	for _, filter := range filters {
		queryFilter = append(queryFilter, bson.E{Key: filter.Field, Value: filter.Value})
	}

	return queryFilter, nil
}

// FindAll finds the Tapas of a user paginated, newest first
func (s *MongoDBTapasRepository) FindAll(ctx context.Context, userID string, page int, pageSize int, filters []Filter) ([]Tapas, int, error) {
	t := []Tapas{}

	queryFilter, err := userFilter(userID, filters)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	findOptions.SetSkip(int64(page * pageSize))
	findOptions.SetLimit(int64(pageSize))

	cursor, err := s.DB.Find(ctx, queryFilter, findOptions)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "could not query tapas")
	}

	count, err := s.DB.CountDocuments(ctx, queryFilter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "could not count tapas")
	}

	err = cursor.All(ctx, &t)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "could not decode tapas")
	}

	return t, int(count), nil
}

// FindAllByUserID finds all Tapas of a user that are not deleted
func (s *MongoDBTapasRepository) FindAllByUserID(ctx context.Context, userID string) ([]Tapas, error) {
	t := []Tapas{}

	queryFilter, err := userFilter(userID, nil)
	if err != nil {
		return nil, err
	}

	cursor, err := s.DB.Find(ctx, queryFilter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not query tapas")
	}

	err = cursor.All(ctx, &t)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not decode tapas")
	}

	return t, nil
}

// Delete marks a Tapas as deleted
func (s *MongoDBTapasRepository) Delete(ctx context.Context, tapasID string, userID string) error {
	tapas, err := s.FindByID(ctx, tapasID, userID, false)
	if err != nil {
		return err
	}

	tapas.Deleted = true

	return s.Update(ctx, tapas)
}
