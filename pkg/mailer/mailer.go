package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/noah-isme/hms-api/pkg/config"
)

// Status is the delivery result of one message.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// ReasonDeliveryFailed is the only failure reason shown to API callers.
const ReasonDeliveryFailed = "email delivery failed"

// Outcome reports how a send attempt ended. Delivery problems never surface as errors.
// Detail holds the transport error and is never serialized to clients.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"-"`
}

// Sent reports whether the message was handed to the transport.
func (o Outcome) Sent() bool {
	return o.Status == StatusSent
}

// Audit returns the outcome with its detail for persisted audit values.
func (o Outcome) Audit() map[string]string {
	values := map[string]string{"status": string(o.Status)}
	if o.Reason != "" {
		values["reason"] = o.Reason
	}
	if o.Detail != "" {
		values["detail"] = o.Detail
	}
	return values
}

func failed(format string, args ...interface{}) Outcome {
	return Outcome{Status: StatusFailed, Reason: ReasonDeliveryFailed, Detail: fmt.Sprintf(format, args...)}
}

// Sender delivers a single HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) Outcome
}

// New returns an SMTP sender when mail is enabled and a logging sender otherwise.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		return &LogSender{logger: logger}
	}
	return NewSMTPSender(cfg, logger)
}

// SMTPSender opens a fresh SMTP session per message.
type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	logger   *zap.Logger
}

// NewSMTPSender builds a sender authenticating with the configured account.
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) *SMTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.Username,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

// Send dials the server, which doubles as the reachability check, and delivers the message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) Outcome {
	if err := ctx.Err(); err != nil {
		return failed("send cancelled: %v", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	conn, err := s.dialer.Dial()
	if err != nil {
		s.logger.Warn("mail transport unavailable", zap.String("to", to), zap.Error(err))
		return failed("mail transport unavailable: %v", err)
	}
	defer conn.Close() //nolint:errcheck

	if err := gomail.Send(conn, m); err != nil {
		s.logger.Warn("mail not sent", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return failed("mail not sent: %v", err)
	}

	s.logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return Outcome{Status: StatusSent}
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a sender for environments without SMTP.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message and reports it as sent.
func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) Outcome {
	s.logger.Info("mail delivery disabled; message logged",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)),
	)
	return Outcome{Status: StatusSent}
}
