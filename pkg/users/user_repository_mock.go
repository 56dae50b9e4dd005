package users

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserRepository is a user repository for testing
type MockUserRepository struct {
	mutex sync.Mutex
	Users []*User
}

// Add adds a user
func (r *MockUserRepository) Add(_ context.Context, user *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user.CreatedAt = time.Now()
	user.LastModifiedAt = time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	r.Users = append(r.Users, user)
	return nil
}

// FindByID finds a user, returning a copy
func (r *MockUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, user := range r.Users {
		if user.ID.Hex() == id {
			found := *user
			return &found, nil
		}
	}

	return nil, ErrUserNotFound
}

// FindByFirebaseUID finds a user by the uid of the identity provider
func (r *MockUserRepository) FindByFirebaseUID(_ context.Context, uid string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, user := range r.Users {
		if user.FirebaseUID == uid {
			found := *user
			return &found, nil
		}
	}

	return nil, ErrUserNotFound
}

// Update replaces a stored user
func (r *MockUserRepository) Update(_ context.Context, user *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, u := range r.Users {
		if u.ID == user.ID {
			user.LastModifiedAt = time.Now()
			updated := *user
			r.Users[i] = &updated
			return nil
		}
	}

	return ErrUserNotFound
}

// Remove deletes a user
func (r *MockUserRepository) Remove(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, u := range r.Users {
		if u.ID.Hex() == id {
			r.Users = append(r.Users[:i], r.Users[i+1:]...)
			return nil
		}
	}

	return ErrUserNotFound
}
