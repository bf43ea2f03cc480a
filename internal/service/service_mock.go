package service

import (
	"context"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/wb-go/wbf/retry"
)

// MOCK SANITIZER

type mockSanitizer struct {
	sanitizeFn func(in model.ImageInput) (*model.SanitizedImage, error)
}

func (m *mockSanitizer) Sanitize(in model.ImageInput) (*model.SanitizedImage, error) {
	return m.sanitizeFn(in)
}

// MOCK UPLOADER

type mockUploader struct {
	uploadFn func(ctx context.Context, img *model.SanitizedImage, cred model.Credential, eps []model.Endpoint) (model.Response, error)
}

func (m *mockUploader) Upload(ctx context.Context, img *model.SanitizedImage, cred model.Credential, eps []model.Endpoint) (model.Response, error) {
	return m.uploadFn(ctx, img, cred, eps)
}

// MOCK PUBLISHER

type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

// MOCK RESPOSITORY

type mockRepo struct {
	createFn  func(ctx context.Context, e *model.UploadEvent) error
	getListFn func(ctx context.Context, draftID string, req *model.ListRequest) ([]model.UploadEvent, error)
}

func (m *mockRepo) Create(ctx context.Context, e *model.UploadEvent) error {
	return m.createFn(ctx, e)
}

func (m *mockRepo) GetList(ctx context.Context, draftID string, req *model.ListRequest) ([]model.UploadEvent, error) {
	return m.getListFn(ctx, draftID, req)
}
