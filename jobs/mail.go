package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/mitrahub/mitrahub/internal/jobs"
)

// SMTPConfig holds the outbound mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg SendEmailPayload) error
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender constructs SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

// Send writes msg to the relay.
func (s *SMTPSender) Send(ctx context.Context, msg SendEmailPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	return s.sendMail(addr, auth, s.cfg.From, []string{msg.To}, buildMessage(s.cfg.From, msg))
}

func buildMessage(from string, msg SendEmailPayload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// MailJob handles TaskTypeSendEmail tasks.
type MailJob struct {
	Sender  Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle decodes the payload and hands it to the sender.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sender == nil {
		return errors.New("mail: sender not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return fmt.Errorf("mail: empty recipient: %w", asynq.SkipRetry)
	}
	tracker := metricsOrDefault(j.Metrics).Track(TaskTypeSendEmail)
	defer func() { err = tracker.End(err) }()

	if err = j.Sender.Send(ctx, payload); err != nil {
		loggerOrDefault(j.Logger, TaskTypeSendEmail).Error("send mail", slog.String("subject", payload.Subject), slog.Any("error", err))
		return err
	}
	return nil
}
