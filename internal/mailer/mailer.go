package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/weedwatch/weedwatch/internal/config"
)

// Message is one outbound mail with files attached as application/octet-stream.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []string // file paths; the attachment name is the base name
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers through an authenticated relay with mandatory STARTTLS.
type SMTPMailer struct {
	client *mail.Client
	logger zerolog.Logger
}

func New(cfg config.MailConfig, password string, logger zerolog.Logger) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, logger: logger}, nil
}

// BuildMessage converts msg into a MIME message.
func BuildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	for _, path := range msg.Attachments {
		// AttachFile skips files it cannot stat, so check them here.
		if err := checkReadable(path); err != nil {
			return nil, fmt.Errorf("attach %s: %w", path, err)
		}
		m.AttachFile(path,
			mail.WithFileName(filepath.Base(path)),
			mail.WithFileContentType(mail.TypeAppOctetStream),
		)
	}
	return m, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file")
	}
	return nil
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	m, err := BuildMessage(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("mail sent")
	return nil
}
