package email

import (
	"context"
	"errors"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	sendinblue "github.com/sendinblue/APIv3-go-library/lib"
)

// ErrNoReceiver is returned when a mail has no receiver address
var ErrNoReceiver = errors.New("email has no receiver address")

// Mailer is the interface email services can implement
type Mailer interface {
	SendEmail(ctx context.Context, mail *Email) error
	AddToList(ctx context.Context, email string, list string) error
}

// Email is a struct that contains information to send an email
type Email struct {
	ReceiverName    string
	ReceiverAddress string
	Template        string
	Parameters      map[string]interface{}
}

// SendInBlueService is an implementation of Mailer
type SendInBlueService struct {
	mailer *sendinblue.APIClient
}

// ReplyToName the reply to name for all emails
const ReplyToName = "Tapas Tracker"

// ReplyToEmail the reply to email for all emails
const ReplyToEmail = "hello@tapas.app"

// AppUsersListID is the list ID for app users
const AppUsersListID = "5"

// NewSendInBlueService constructs a new SendInBlueService
func NewSendInBlueService(apiKey string) *SendInBlueService {
	service := SendInBlueService{}

	cfg := sendinblue.NewConfiguration()

	cfg.AddDefaultHeader("api-key", apiKey)

	service.mailer = sendinblue.NewAPIClient(cfg)

	return &service
}

// prepare checks the receiver of a mail and parses its numeric template id
func prepare(mail *Email) (int64, error) {
	if strings.TrimSpace(mail.ReceiverAddress) == "" {
		return 0, ErrNoReceiver
	}

	templateID, err := strconv.ParseInt(mail.Template, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "invalid template %q", mail.Template)
	}

	return templateID, nil
}

// SendEmail sends a transactional template email
func (s *SendInBlueService) SendEmail(ctx context.Context, mail *Email) error {
	templateID, err := prepare(mail)
	if err != nil {
		return err
	}

	params := interface{}(mail.Parameters)

	_, _, err = s.mailer.TransactionalEmailsApi.SendTransacEmail(ctx, sendinblue.SendSmtpEmail{
		TemplateId: templateID,
		To: []sendinblue.SendSmtpEmailTo{
			{
				Email: mail.ReceiverAddress,
				Name:  mail.ReceiverName,
			},
		},
		ReplyTo: &sendinblue.SendSmtpEmailReplyTo{
			Name:  ReplyToName,
			Email: ReplyToEmail,
		},
		Params: &params,
	})
	if err != nil {
		return pkgerrors.Wrapf(err, "could not send template %d to %s", templateID, mail.ReceiverAddress)
	}

	return nil
}

// AddToList adds a contact to an email list
func (s *SendInBlueService) AddToList(ctx context.Context, email string, list string) error {
	listID, err := strconv.Atoi(list)
	if err != nil {
		return pkgerrors.Wrapf(err, "invalid list %q", list)
	}

	_, _, err = s.mailer.ContactsApi.CreateContact(ctx, sendinblue.CreateContact{
		Email: email,
		ListIds: []int64{
			int64(listID),
		},
	})
	if err != nil {
		return pkgerrors.Wrapf(err, "could not add contact to list %s", list)
	}

	return nil
}
