package main

import (
	"context"

	"github.com/UnendingLoop/ImageDrop/internal/model"
)

// EventLedger - воркеру из репозитория нужна только запись
type EventLedger interface {
	Create(ctx context.Context, e *model.UploadEvent) error
}
