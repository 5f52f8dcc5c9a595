package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/pkg/logger"
)

// Service is the communication collaborator's reference implementation:
// it consumes booking event payloads and writes the client. The prose
// generation of the original system is out of scope; templates carry the
// contract.
type Service interface {
	SendBookingConfirmation(ctx context.Context, payload *model.BookingEventPayload) error
	SendCancellationNotice(ctx context.Context, payload *model.BookingEventPayload) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

const confirmationTemplate = `Dear client,

Your consultation is confirmed.

Reference:   {{.Booking.Reference}}
Lawyer:      {{.Lawyer.Name}}
Start:       {{.Slot.StartTime.Format "Monday, 2 January 2006 15:04"}}
Duration:    {{.Booking.Duration}} minutes
Location:    {{.Slot.Location}}

Please arrive ten minutes early and bring any documents relevant to your
matter.

Leaptra Law Offices
`

const cancellationTemplate = `Dear client,

Your appointment {{.Booking.Reference}} with {{.Lawyer.Name}} has been
cancelled.{{if .Booking.CancelReasonText}} Reason: {{.Booking.CancelReasonText}}.{{end}}

Reply to this message to arrange an alternative date.

Leaptra Law Offices
`

type service struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger

	confirmation *template.Template
	cancellation *template.Template
}

func NewService(cfg Config, log *logger.Logger) (Service, error) {
	confirmation, err := template.New("confirmation").Parse(confirmationTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse confirmation template: %w", err)
	}
	cancellation, err := template.New("cancellation").Parse(cancellationTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cancellation template: %w", err)
	}

	return &service{
		dialer:       gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:         cfg.From,
		logger:       log,
		confirmation: confirmation,
		cancellation: cancellation,
	}, nil
}

func (s *service) SendBookingConfirmation(ctx context.Context, payload *model.BookingEventPayload) error {
	subject := fmt.Sprintf("Appointment confirmed — %s", payload.Booking.Reference)
	return s.send(payload, s.confirmation, subject)
}

func (s *service) SendCancellationNotice(ctx context.Context, payload *model.BookingEventPayload) error {
	subject := fmt.Sprintf("Appointment cancelled — %s", payload.Booking.Reference)
	return s.send(payload, s.cancellation, subject)
}

func (s *service) send(payload *model.BookingEventPayload, tmpl *template.Template, subject string) error {
	if payload == nil || payload.Booking == nil || payload.Lawyer == nil || payload.Slot == nil {
		return fmt.Errorf("incomplete booking payload")
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, payload); err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", payload.Booking.ClientRef)
	msg.SetHeader("Cc", payload.Lawyer.Email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body.String())

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Info("notification sent",
		"reference", payload.Booking.Reference,
		"to", payload.Booking.ClientRef)
	return nil
}
