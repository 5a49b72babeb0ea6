package email

import (
	"context"

	"go.uber.org/zap"
)

// LogChannel writes messages to the log instead of sending them. It stands in
// for a transport that has no SMTP settings.
type LogChannel struct {
	name string
	log  *zap.Logger
}

// NewLogChannel creates a channel that only logs
func NewLogChannel(name string, log *zap.Logger) *LogChannel {
	return &LogChannel{name: name, log: log}
}

func (l *LogChannel) Name() string { return l.name }

func (l *LogChannel) Send(_ context.Context, msg Message) error {
	l.log.Info("email delivery not configured, logging message",
		zap.String("channel", l.name),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody),
	)
	return nil
}
