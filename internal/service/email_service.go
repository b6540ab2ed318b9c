package service

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/quiz-master/internal/logger"
)

// Mailer отправляет транзакционные письма
type Mailer interface {
	SendWelcome(ctx context.Context, toEmail, fullName string) error
}

// NoopMailer используется, когда RESEND_API_KEY не задан
type NoopMailer struct {
	log *logger.Logger
}

// NewNoopMailer создает mailer, который только пишет в лог
func NewNoopMailer(log *logger.Logger) *NoopMailer {
	if log == nil {
		log = logger.NewNop()
	}
	return &NoopMailer{log: log.Component("Mailer")}
}

func (m *NoopMailer) SendWelcome(ctx context.Context, toEmail, fullName string) error {
	m.log.Debug("noop welcome email", "to", toEmail)
	return nil
}

// emailSender часть клиента Resend, используемая ResendMailer
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer отправляет письма через Resend REST API. Повторов нет.
type ResendMailer struct {
	from   string
	sender emailSender
}

// NewResendMailer создает mailer на Resend
func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendMailer{
		from:   from,
		sender: resend.NewClient(apiKey).Emails,
	}, nil
}

func (m *ResendMailer) SendWelcome(ctx context.Context, toEmail, fullName string) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{toEmail},
		Subject: "Welcome to Quiz Master",
		Text:    fmt.Sprintf("Hi %s,\n\nYour account is ready. Log in to see the quizzes available to you.", fullName),
		Html:    fmt.Sprintf("<p>Hi %s,</p><p>Your account is ready. Log in to see the quizzes available to you.</p>", html.EscapeString(fullName)),
	}
	if _, err := m.sender.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

// NewMailer выбирает реализацию по наличию ключа Resend
func NewMailer(apiKey, from string, log *logger.Logger) Mailer {
	if apiKey == "" {
		return NewNoopMailer(log)
	}
	m, err := NewResendMailer(apiKey, from)
	if err != nil {
		if log != nil {
			log.Warn("Resend mailer disabled", "error", err)
		}
		return NewNoopMailer(log)
	}
	return m
}
