package logger

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/logging"
)

// GoogleCloudLogger sends structured entries to Google Cloud Logging
type GoogleCloudLogger struct {
	client *logging.Client
	logger *logging.Logger
}

// entryPayload is the json payload of a single log entry
type entryPayload struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// NewGoogleCloudLogger constructs a GoogleCloudLogger that writes to the log with the given name
func NewGoogleCloudLogger(ctx context.Context, projectID string, logName string) (*GoogleCloudLogger, error) {
	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &GoogleCloudLogger{
		client: client,
		logger: client.Logger(logName),
	}, nil
}

func (l *GoogleCloudLogger) log(severity logging.Severity, message string, err error) {
	payload := entryPayload{Message: message}
	if err != nil {
		payload.Error = err.Error()
	}

	l.logger.Log(logging.Entry{
		Severity: severity,
		Payload:  payload,
	})
}

// Error is for throwing a log message with status Error
func (l *GoogleCloudLogger) Error(message string, err error) {
	l.log(logging.Error, message, err)
}

// Warning is for throwing a log message with status Warning
func (l *GoogleCloudLogger) Warning(message string, err error) {
	l.log(logging.Warning, message, err)
}

// Info is for throwing a log message with status Info
func (l *GoogleCloudLogger) Info(message string) {
	l.log(logging.Info, message, nil)
}

// Debug is for throwing a log message with status Debug
func (l *GoogleCloudLogger) Debug(message string) {
	l.log(logging.Debug, message, nil)
}

// Fatal logs synchronously and exits
func (l *GoogleCloudLogger) Fatal(err error) {
	l.logger.LogSync(context.Background(), logging.Entry{
		Severity: logging.Critical,
		Payload:  entryPayload{Message: "fatal", Error: err.Error()},
	})

	_ = l.Close()
	log.Printf("[FATAL] %v\n", err)
	os.Exit(1)
}

// Close flushes buffered entries and closes the client
func (l *GoogleCloudLogger) Close() error {
	return l.client.Close()
}
