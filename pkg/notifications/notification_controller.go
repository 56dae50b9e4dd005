package notifications

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"github.com/tapas-app/tapas-backend/pkg/tapas"
	"github.com/tapas-app/tapas-backend/pkg/users"
)

// SendTimeout bounds a single sync push
const SendTimeout = 10 * time.Second

// isUnregistered is replaced in tests
var isUnregistered = messaging.IsRegistrationTokenNotRegistered

// MulticastSender sends one message to many devices, implemented by messaging.Client
type MulticastSender interface {
	SendMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// NotificationController sends sync messages to the devices of a user whenever one of their Tapas changes
type NotificationController struct {
	Logger         logger.Interface
	Sender         MulticastSender
	UserRepository users.UserRepositoryInterface
}

// NewNotificationController construct a NotificationController
func NewNotificationController(ctx context.Context, app *firebase.App, logger logger.Interface,
	userRepository users.UserRepositoryInterface) (*NotificationController, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}

	return &NotificationController{
		Logger:         logger,
		Sender:         client,
		UserRepository: userRepository,
	}, nil
}

// OnNotify gets called when a tapas changes
func (n *NotificationController) OnNotify(t *tapas.Tapas) {
	ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
	defer cancel()

	user, err := n.UserRepository.FindByID(ctx, t.UserID.Hex())
	if err != nil {
		n.Logger.Error("Could not find user", err)
		return
	}

	tokens := user.DeviceTokenStrings()
	if len(tokens) == 0 {
		return
	}

	message := &messaging.MulticastMessage{
		Data: map[string]string{
			"collapse_key": "sync",
			"tapasId":      t.ID.Hex(),
		},
		Tokens: tokens,
	}

	response, err := n.Sender.SendMulticast(ctx, message)
	if err != nil {
		n.Logger.Warning("Could not send messaging request", err)
		return
	}

	if response == nil || response.FailureCount == 0 {
		return
	}

	var stale []string
	for index, result := range response.Responses {
		if result == nil || result.Success || index >= len(tokens) {
			continue
		}

		if isUnregistered(result.Error) {
			stale = append(stale, tokens[index])
			continue
		}

		n.Logger.Warning(fmt.Sprintf("Could not notify a device of user %s", user.ID.Hex()), result.Error)
	}

	if len(stale) == 0 || !user.RemoveDeviceTokens(stale...) {
		return
	}

	err = n.UserRepository.Update(ctx, user)
	if err != nil {
		n.Logger.Warning(fmt.Sprintf("Could not remove stale device tokens of user %s", user.ID.Hex()), err)
	}
}
