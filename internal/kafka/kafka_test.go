package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestTopicsReady(t *testing.T) {
	require.True(t, topicsReady(&kafkago.CreateTopicsResponse{Errors: map[string]error{
		"upload-events": nil,
		"other":         kafkago.TopicAlreadyExists,
	}}))
	require.False(t, topicsReady(&kafkago.CreateTopicsResponse{Errors: map[string]error{
		"upload-events": errors.New("broker says no"),
	}}))
}

func TestWaitKafkaReady_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// на этом порту брокера нет
	require.False(t, WaitKafkaReady(ctx, "127.0.0.1:1", 10*time.Millisecond))
}
