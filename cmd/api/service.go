package main

import (
	"context"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/service"
)

type UploadAPIService interface {
	Upload(ctx context.Context, req *model.UploadRequest) (*model.UploadResult, error)
	Progress(batchID string) (service.Stage, int, bool)
	ListAttachments(ctx context.Context, draftID string) ([]string, error)
	RemoveAttachment(ctx context.Context, draftID string, index int) error
	ClearAttachments(ctx context.Context, draftID string) error
	History(ctx context.Context, draftID string, req *model.ListRequest) ([]model.UploadEvent, error)
}
