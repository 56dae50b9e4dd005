package tapas

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockTapasRepository is a Tapas repository for testing
type MockTapasRepository struct {
	Observers
	mutex sync.Mutex
	Tapas []*Tapas
}

// Add adds a Tapas
func (m *MockTapasRepository) Add(_ context.Context, tapas *Tapas) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	tapas.CreatedAt = time.Now()
	tapas.LastModifiedAt = time.Now()
	tapas.ID = primitive.NewObjectID()

	m.Tapas = append(m.Tapas, tapas.Clone())
	m.Publish(tapas)
	return nil
}

// Update replaces a Tapas of its owner
func (m *MockTapasRepository) Update(_ context.Context, tapas *Tapas) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, t := range m.Tapas {
		if t.ID == tapas.ID && t.UserID == tapas.UserID {
			tapas.LastModifiedAt = time.Now()
			m.Tapas[i] = tapas.Clone()
			m.Publish(tapas)
			return nil
		}
	}

	return ErrNotFound
}

// FindByID finds a Tapas of a user
func (m *MockTapasRepository) FindByID(_ context.Context, tapasID string, userID string, isDeleted bool) (*Tapas, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, t := range m.Tapas {
		if t.ID.Hex() == tapasID && t.UserID.Hex() == userID && t.Deleted == isDeleted {
			return t.Clone(), nil
		}
	}

	return nil, ErrNotFound
}

// FindSharedByID finds a shared Tapas of any user
func (m *MockTapasRepository) FindSharedByID(_ context.Context, tapasID string) (*Tapas, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, t := range m.Tapas {
		if t.ID.Hex() == tapasID && t.Shared && !t.Deleted {
			return t.Clone(), nil
		}
	}

	return nil, ErrNotFound
}

func matches(t *Tapas, filter Filter) bool {
	switch filter.Field {
	case "status":
		return fmt.Sprint(t.Status) == fmt.Sprint(filter.Value)
	case "scheduleType":
		return fmt.Sprint(t.ScheduleType) == fmt.Sprint(filter.Value)
	case "shared":
		return t.Shared == filter.Value
	}

	return false
}

func (m *MockTapasRepository) filter(userID string, filters []Filter) []Tapas {
	list := []Tapas{}

	for _, t := range m.Tapas {
		if t.UserID.Hex() != userID || t.Deleted {
			continue
		}

		matched := true
		for _, filter := range filters {
			if !matches(t, filter) {
				matched = false
				break
			}
		}

		if matched {
			list = append(list, *t.Clone())
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return list
}

// FindAll finds the Tapas of a user paginated, newest first
func (m *MockTapasRepository) FindAll(_ context.Context, userID string, page int, pageSize int, filters []Filter) ([]Tapas, int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	list := m.filter(userID, filters)

	start := page * pageSize
	if start > len(list) {
		start = len(list)
	}

	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}

	return list[start:end], len(list), nil
}

// FindAllByUserID finds all Tapas of a user that are not deleted
func (m *MockTapasRepository) FindAllByUserID(_ context.Context, userID string) ([]Tapas, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.filter(userID, nil), nil
}

// Delete marks a Tapas as deleted
func (m *MockTapasRepository) Delete(_ context.Context, tapasID string, userID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, t := range m.Tapas {
		if t.ID.Hex() == tapasID && t.UserID.Hex() == userID && !t.Deleted {
			t.Deleted = true
			return nil
		}
	}

	return ErrNotFound
}
