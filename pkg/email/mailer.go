package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// MailerChannel delivers mail with go-mail. It backs the secondary channel so
// the two transports share no SMTP code path.
type MailerChannel struct {
	name   string
	config EmailConfig
}

// NewMailerChannel creates a go-mail backed delivery channel
func NewMailerChannel(name string, config EmailConfig) *MailerChannel {
	return &MailerChannel{name: name, config: config}
}

func (m *MailerChannel) Name() string { return m.name }

func (m *MailerChannel) Send(ctx context.Context, msg Message) error {
	message, err := m.newMsg(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.config.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.config.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.config.SMTPUsername),
			mail.WithPassword(m.config.SMTPPassword),
		)
	}
	client, err := mail.NewClient(m.config.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *MailerChannel) newMsg(msg Message) (*mail.Msg, error) {
	message := mail.NewMsg()
	if err := message.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if msg.ToName != "" {
		if err := message.AddToFormat(msg.ToName, msg.To); err != nil {
			return nil, fmt.Errorf("invalid recipient address: %w", err)
		}
	} else if err := message.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	message.Subject(msg.Subject)
	message.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		message.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	}
	return message, nil
}
