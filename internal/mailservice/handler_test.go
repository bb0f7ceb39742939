package mailservice

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSendWelcomeEmail(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMailer := new(MockMailer)
	mockLogger := new(MockLogger)

	expectedArgs := []interface{}{slog.Attr{Key: "email", Value: slog.StringValue("test@example.com")}}
	mockLogger.On("Info", "welcome email sent", expectedArgs).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())

	s := &MailService{
		mb:     mockMC,
		m:      mockMailer,
		logger: mockLogger,
		ctx:    ctx,
		cancel: cancel,
	}

	go s.SendWelcomeEmail()

	time.Sleep(1 * time.Second)

	if mockMailer.IsCalled() {
		recipientEmail := mockMailer.GetEmail()
		assert.Equal(t, "test@example.com", recipientEmail, "expected email to be sent to the recipient")
	}

	// verify that the logger.Info method was called
	mockLogger.AssertExpectations(t)

	t.Cleanup(func() {
		s.Close()
	})
}

func TestSendWelcomeEmailGivesUpAfterRetries(t *testing.T) {
	if testing.Short() {
		t.Skip("backoff test sleeps through every retry")
	}

	mockMC := new(MockMessageConsumer)
	mockMailer := &MockMailer{SendError: errors.New("smtp unavailable")}
	mockLogger := new(MockLogger)

	mockLogger.On("Info", "delaying welcome email", mock.Anything).Return(nil)
	mockLogger.On("Error", "could not send welcome email", mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())

	s := &MailService{
		mb:     mockMC,
		m:      mockMailer,
		logger: mockLogger,
		ctx:    ctx,
		cancel: cancel,
	}

	go s.SendWelcomeEmail()

	// worst case the five backoff delays total just over fifteen seconds
	time.Sleep(20 * time.Second)

	assert.True(t, mockMailer.IsCalled(), "expected the mailer to have been attempted")
	mockLogger.AssertCalled(t, "Error", "could not send welcome email", mock.Anything)

	t.Cleanup(func() {
		s.Close()
	})
}
