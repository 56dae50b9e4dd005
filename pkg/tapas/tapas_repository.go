package tapas

import (
	"context"
	"sync"
)

// TapasRepositoryInterface is an interface for storing and finding Tapas
type TapasRepositoryInterface interface {
	Add(ctx context.Context, tapas *Tapas) error
	Update(ctx context.Context, tapas *Tapas) error
	FindByID(ctx context.Context, tapasID string, userID string, isDeleted bool) (*Tapas, error)
	FindSharedByID(ctx context.Context, tapasID string) (*Tapas, error)
	FindAll(ctx context.Context, userID string, page int, pageSize int, filters []Filter) ([]Tapas, int, error)
	FindAllByUserID(ctx context.Context, userID string) ([]Tapas, error)
	Delete(ctx context.Context, tapasID string, userID string) error
}

// TapasObserver is an Observer
type TapasObserver interface {
	OnNotify(tapas *Tapas)
}

// TapasObservable is an Observable
type TapasObservable interface {
	Subscribe(o TapasObserver)
	Unsubscribe(o TapasObserver)
	Publish(tapas *Tapas)
}

// Observers implements TapasObservable for the repositories
type Observers struct {
	mutex       sync.RWMutex
	subscribers []TapasObserver
}

// Subscribe adds an observer
func (o *Observers) Subscribe(observer TapasObserver) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.subscribers = append(o.subscribers, observer)
}

// Unsubscribe removes an observer
func (o *Observers) Unsubscribe(observer TapasObserver) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	for i, subscriber := range o.subscribers {
		if subscriber == observer {
			o.subscribers = append(o.subscribers[:i], o.subscribers[i+1:]...)
			return
		}
	}
}

// Publish notifies all observers asynchronously, each with its own copy
func (o *Observers) Publish(tapas *Tapas) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	for _, subscriber := range o.subscribers {
		go subscriber.OnNotify(tapas.Clone())
	}
}
