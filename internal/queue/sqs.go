// Package queue wraps the SQS operations the worker consumes.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
)

// api is the subset of the SQS client the wrapper touches, narrowed so
// tests can fake it.
type api interface {
	GetQueueUrl(ctx context.Context, in *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, in *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
	ChangeMessageVisibility(ctx context.Context, in *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Message is a single SQS delivery: the raw body plus the receipt handle
// needed to delete it or extend its visibility.
type Message struct {
	ReceiptHandle string
	Body          []byte
}

// Client is a thin SQS wrapper bound to one queue. The queue URL is
// resolved once at construction.
type Client struct {
	api           api
	url           string
	batchSize     int32
	waitSec       int32
	visibilitySec int32
}

func New(ctx context.Context, client api, queueName string, batchSize, waitSec, visibilitySec int) (*Client, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queueName)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("resolving queue %q failed (%s): %w", queueName, apiErr.ErrorCode(), err)
		}
		return nil, fmt.Errorf("resolving queue %q: %w", queueName, err)
	}
	return &Client{
		api:           client,
		url:           aws.ToString(out.QueueUrl),
		batchSize:     int32(batchSize),
		waitSec:       int32(waitSec),
		visibilitySec: int32(visibilitySec),
	}, nil
}

// VisibilityTimeoutSec is the receive-time visibility window in seconds.
func (c *Client) VisibilityTimeoutSec() int32 {
	return c.visibilitySec
}

// Receive long-polls the queue for up to the configured wait, returning
// at most the configured batch size.
func (c *Client) Receive(ctx context.Context) ([]Message, error) {
	out, err := c.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.url),
		MaxNumberOfMessages: c.batchSize,
		WaitTimeSeconds:     c.waitSec,
		VisibilityTimeout:   c.visibilitySec,
	})
	if err != nil {
		return nil, fmt.Errorf("sqs receive failed: %w", err)
	}

	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, Message{
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          []byte(aws.ToString(m.Body)),
		})
	}
	return msgs, nil
}

// DeleteBatch acknowledges the given receipt handles in one call.
func (c *Client) DeleteBatch(ctx context.Context, handles []string) error {
	if len(handles) == 0 {
		return nil
	}
	entries := make([]types.DeleteMessageBatchRequestEntry, 0, len(handles))
	for i, handle := range handles {
		entries = append(entries, types.DeleteMessageBatchRequestEntry{
			Id:            aws.String(strconv.Itoa(i)),
			ReceiptHandle: aws.String(handle),
		})
	}
	out, err := c.api.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(c.url),
		Entries:  entries,
	})
	if err != nil {
		return fmt.Errorf("sqs delete batch failed: %w", err)
	}
	if len(out.Failed) > 0 {
		first := out.Failed[0]
		return fmt.Errorf("sqs delete batch: %d of %d entries failed (first: %s)",
			len(out.Failed), len(handles), aws.ToString(first.Message))
	}
	return nil
}

// ChangeVisibility rebases one message's visibility timeout.
func (c *Client) ChangeVisibility(ctx context.Context, handle string, timeoutSec int32) error {
	_, err := c.api.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(c.url),
		ReceiptHandle:     aws.String(handle),
		VisibilityTimeout: timeoutSec,
	})
	if err != nil {
		return fmt.Errorf("sqs change visibility failed: %w", err)
	}
	return nil
}
