package service

import (
	"context"
	"fmt"

	"github.com/sangkips/receiptflow-api/pkg/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReceiptNotification is what the customer is told once a receipt is stored.
type ReceiptNotification struct {
	Recipient     string
	CustomerName  string
	DocumentURL   string
	OrderID       string
	BusinessStore string
}

// DeliveryResult reports the outcome of one channel attempt.
type DeliveryResult struct {
	Channel string
	Err     error
}

// Notifier sends one notification over every configured channel.
type Notifier struct {
	channels []email.Channel
	log      *zap.Logger
	metrics  *pipelineMetrics
}

// NewNotifier creates a notifier fanning out to channels, typically a
// primary and a backup transport.
func NewNotifier(channels []email.Channel, opts ...Option) *Notifier {
	o := buildOptions(opts)
	return &Notifier{
		channels: channels,
		log:      o.logger,
		metrics:  newPipelineMetrics(o.meter, o.logger),
	}
}

// Notify attempts every channel exactly once, concurrently. A failing or
// panicking channel never stops the others, and nothing is returned as an
// error: failures are logged, counted and reported in the results.
func (n *Notifier) Notify(ctx context.Context, note ReceiptNotification) []DeliveryResult {
	log := n.log.With(zap.String("order_id", note.OrderID))

	msg, err := email.NewReceiptMessage(email.ReceiptEmail{
		Recipient:     note.Recipient,
		CustomerName:  note.CustomerName,
		DocumentURL:   note.DocumentURL,
		OrderID:       note.OrderID,
		BusinessStore: note.BusinessStore,
	})
	if err != nil {
		log.Error("failed to compose receipt email", zap.Error(err))
		n.metrics.notificationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", "compose")))
		return nil
	}

	results := make([]DeliveryResult, len(n.channels))
	var g errgroup.Group
	for i, ch := range n.channels {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = DeliveryResult{Channel: ch.Name(), Err: n.send(ctx, ch, msg)}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Err != nil {
			log.Error("receipt email delivery failed",
				zap.String("channel", r.Channel),
				zap.String("recipient", note.Recipient),
				zap.Error(r.Err),
			)
			n.metrics.notificationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", r.Channel)))
			continue
		}
		log.Info("receipt email sent", zap.String("channel", r.Channel), zap.String("recipient", note.Recipient))
	}
	return results
}

func (n *Notifier) send(ctx context.Context, ch email.Channel, msg email.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel panicked: %v", r)
		}
	}()
	return ch.Send(ctx, msg)
}
