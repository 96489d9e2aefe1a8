// Package queue publishes rain-state transitions to SQS for downstream
// consumers such as notification workers.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"rainwatch/internal/display"
	"rainwatch/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// TransitionPublisher is a status sink that sends a TransitionMessage when
// the verdict kind differs from the last one it sent. Statuses without a
// verdict (loading, error) are ignored. The first rendered verdict is always
// sent, with an empty Previous.
type TransitionPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	last types.VerdictKind
}

// NewTransitionPublisher creates a TransitionPublisher for queueURL.
func NewTransitionPublisher(client SQSSender, queueURL string, logger *slog.Logger) *TransitionPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransitionPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		now:      time.Now,
	}
}

// Publish sends a transition message if st changes the verdict kind. The
// remembered kind only advances after SQS accepts the message, so a failed
// send is retried on the next cycle.
func (p *TransitionPublisher) Publish(ctx context.Context, st display.Status) error {
	if st.Verdict == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	current := st.Verdict.Kind
	if current == p.last {
		return nil
	}

	msg := types.TransitionMessage{
		MessageID: uuid.New().String(),
		TraceID:   types.GetRequestID(ctx),
		Previous:  p.last,
		Current:   current,
		Intensity: st.Verdict.Intensity,
		Location:  st.Location,
		Headline:  st.Headline,
		EmittedAt: p.now().UTC(),
	}
	if st.Verdict.IsRainSoon() {
		at := st.Verdict.Time.UTC()
		msg.RainAt = &at
	}
	if msg.TraceID == "" {
		msg.TraceID = uuid.New().String()
	}

	if err := p.send(ctx, msg); err != nil {
		return err
	}
	p.last = current
	return nil
}

func (p *TransitionPublisher) send(ctx context.Context, msg types.TransitionMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal TransitionMessage: %w", err)
	}

	previous := string(msg.Previous)
	if previous == "" {
		previous = "none"
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"verdict": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(msg.Current)),
			},
			"previous": {
				DataType:    aws.String("String"),
				StringValue: aws.String(previous),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("queue: failed to send TransitionMessage to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "transition message sent",
		"queue_url", p.queueURL,
		"message_id", msg.MessageID,
		"trace_id", msg.TraceID,
		"previous", previous,
		"current", string(msg.Current),
	)
	return nil
}
