package main

import (
	"context"

	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/wb-go/wbf/retry"
)

type PushupAPIService interface {
	Process(ctx context.Context, raw *model.ProcessRequest) (*model.BatchResult, error)
}

// NoopPublisher - stands in for the queue-publisher when no Kafka broker is configured
type NoopPublisher struct{}

func (NoopPublisher) SendWithRetry(ctx context.Context, strategy retry.Strategy, k []byte, v []byte) error {
	return nil
}
