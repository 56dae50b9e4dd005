package email

import (
	"context"
	"sync"
)

// MockMailer records mails instead of sending them
type MockMailer struct {
	mutex sync.Mutex
	Sent  []Email
	Lists map[string][]string
	Err   error
}

// SendEmail records the mail
func (m *MockMailer) SendEmail(_ context.Context, mail *Email) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}

	_, err := prepare(mail)
	if err != nil {
		return err
	}

	m.Sent = append(m.Sent, *mail)
	return nil
}

// AddToList records the list membership
func (m *MockMailer) AddToList(_ context.Context, email string, list string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}

	if m.Lists == nil {
		m.Lists = map[string][]string{}
	}

	m.Lists[list] = append(m.Lists[list], email)
	return nil
}
