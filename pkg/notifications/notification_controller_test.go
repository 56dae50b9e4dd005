package notifications

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"github.com/tapas-app/tapas-backend/pkg/tapas"
	"github.com/tapas-app/tapas-backend/pkg/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errUnregistered = errors.New("registration token is not registered")

type fakeSender struct {
	mutex    sync.Mutex
	messages []*messaging.MulticastMessage
	failing  map[string]error
}

func (f *fakeSender) SendMulticast(_ context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.messages = append(f.messages, message)

	response := &messaging.BatchResponse{}
	for _, token := range message.Tokens {
		if err, ok := f.failing[token]; ok {
			response.FailureCount++
			response.Responses = append(response.Responses, &messaging.SendResponse{Error: err})
			continue
		}

		response.SuccessCount++
		response.Responses = append(response.Responses, &messaging.SendResponse{Success: true, MessageID: "id-" + token})
	}

	return response, nil
}

func TestNotificationController_OnNotify(t *testing.T) {
	isUnregistered = func(err error) bool { return errors.Is(err, errUnregistered) }

	userID := primitive.NewObjectID()
	repository := &users.MockUserRepository{Users: []*users.User{
		{
			ID:          userID,
			FirebaseUID: "firebase-1",
			DeviceTokens: []users.DeviceToken{
				{Token: "phone"}, {Token: "old-tablet"}, {Token: "laptop"},
			},
		},
	}}

	sender := &fakeSender{failing: map[string]error{
		"old-tablet": errUnregistered,
		"laptop":     errors.New("unavailable"),
	}}

	controller := NotificationController{Logger: logger.Logger{}, Sender: sender, UserRepository: repository}

	tapasID := primitive.NewObjectID()
	controller.OnNotify(&tapas.Tapas{ID: tapasID, UserID: userID})

	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}

	message := sender.messages[0]
	if message.Data["collapse_key"] != "sync" || message.Data["tapasId"] != tapasID.Hex() {
		t.Errorf("unexpected data %v", message.Data)
	}

	user, err := repository.FindByID(context.Background(), userID.Hex())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(user.DeviceTokenStrings(), []string{"phone", "laptop"}) {
		t.Errorf("unexpected remaining tokens %v", user.DeviceTokenStrings())
	}
}

func TestNotificationController_OnNotifyWithoutDevices(t *testing.T) {
	userID := primitive.NewObjectID()
	repository := &users.MockUserRepository{Users: []*users.User{{ID: userID}}}
	sender := &fakeSender{}

	controller := NotificationController{Logger: logger.Logger{}, Sender: sender, UserRepository: repository}
	controller.OnNotify(&tapas.Tapas{ID: primitive.NewObjectID(), UserID: userID})

	if len(sender.messages) != 0 {
		t.Errorf("expected no message, got %d", len(sender.messages))
	}
}
