package transport

import (
	"context"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/service"
	"github.com/gin-gonic/gin"
)

type mockUploadService struct {
	uploadFn   func(ctx context.Context, req *model.UploadRequest) (*model.UploadResult, error)
	progressFn func(batchID string) (service.Stage, int, bool)
	listFn     func(ctx context.Context, draftID string) ([]string, error)
	removeFn   func(ctx context.Context, draftID string, index int) error
	clearFn    func(ctx context.Context, draftID string) error
	historyFn  func(ctx context.Context, draftID string, req *model.ListRequest) ([]model.UploadEvent, error)
}

func (m *mockUploadService) Upload(ctx context.Context, req *model.UploadRequest) (*model.UploadResult, error) {
	return m.uploadFn(ctx, req)
}

func (m *mockUploadService) Progress(batchID string) (service.Stage, int, bool) {
	return m.progressFn(batchID)
}

func (m *mockUploadService) ListAttachments(ctx context.Context, draftID string) ([]string, error) {
	return m.listFn(ctx, draftID)
}

func (m *mockUploadService) RemoveAttachment(ctx context.Context, draftID string, index int) error {
	return m.removeFn(ctx, draftID, index)
}

func (m *mockUploadService) ClearAttachments(ctx context.Context, draftID string) error {
	return m.clearFn(ctx, draftID)
}

func (m *mockUploadService) History(ctx context.Context, draftID string, req *model.ListRequest) ([]model.UploadEvent, error) {
	return m.historyFn(ctx, draftID, req)
}

func init() {
	gin.SetMode(gin.TestMode)
}
