// Package service provides business-logic for the app
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/UnendingLoop/ImageDrop/internal/imageproc"
	"github.com/UnendingLoop/ImageDrop/internal/metrics"
	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/mwlogger"
	"github.com/UnendingLoop/ImageDrop/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"golang.org/x/sync/errgroup"
)

type UploadService struct {
	settings  Settings
	sanitizer ImageSanitizer
	uploader  ImageUploader
	publisher EventPublisher
	repo      repository.EventRepo
	drafts    *Attachments
	registry  *ProgressRegistry
	observer  ProgressObserver
}

func NewUploadService(settings Settings, sanitizer ImageSanitizer, uploader ImageUploader, pub EventPublisher, repo repository.EventRepo) *UploadService {
	return &UploadService{
		settings:  settings,
		sanitizer: sanitizer,
		uploader:  uploader,
		publisher: pub,
		repo:      repo,
		drafts:    NewAttachments(),
		registry:  NewProgressRegistry(),
	}
}

// ImageSanitizer - контракт для очистки метаданных
type ImageSanitizer interface {
	Sanitize(in model.ImageInput) (*model.SanitizedImage, error)
}

// ImageUploader - контракт внешнего загрузчика: сам перебирает endpoints по порядку
type ImageUploader interface {
	Upload(ctx context.Context, img *model.SanitizedImage, cred model.Credential, endpoints []model.Endpoint) (model.Response, error)
}

// EventPublisher - контракт для работы с очередью
type EventPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// Стратегия ретрая отправки событий в очередь
var retryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    time.Second,
	Backoff:  1.5,
}

// Upload runs validate → preview → sanitize → upload → finalize for one batch.
// Exactly one error is returned per run; URLs come in completion order.
func (s *UploadService) Upload(ctx context.Context, req *model.UploadRequest) (res *model.UploadResult, err error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if req.BatchID == "" {
		req.BatchID = uuid.NewString()
	} else if uuid.Validate(req.BatchID) != nil {
		return nil, model.ErrIncorrectID
	}
	if req.DraftID != "" && uuid.Validate(req.DraftID) != nil {
		return nil, model.ErrIncorrectID
	}

	state, err := s.registry.open(req.BatchID, s.observer)
	if err != nil {
		return nil, err
	}
	done := metrics.RunStarted()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("batch_id", req.BatchID).Msg("Upload pipeline crashed")
			res, err = nil, model.ErrCommon500
		}

		done(runResult(err))

		// финальные 100% показываем чуть дольше, при сбоях сбрасываем сразу
		if err == nil || errors.Is(err, model.ErrResolutionEmpty) {
			s.resetLater(req.BatchID, state, s.settings.ResetDelay)
		} else {
			s.resetLater(req.BatchID, state, 0)
		}
	}()

	res, err = s.run(ctx, state, req)
	if err != nil {
		return nil, surfaceError(err)
	}
	return res, nil
}

func (s *UploadService) run(ctx context.Context, state *PipelineState, req *model.UploadRequest) (*model.UploadResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	state.enter(StageValidating)
	if err := validateBatch(s.settings.Policy, req.Files); err != nil {
		return nil, err
	}

	state.enter(StagePreviewing)
	previews := s.buildPreviews(ctx, req.Files)

	state.begin(StageSanitizing, len(req.Files), 0, sanitizeSpan)
	sanitized := s.sanitizeAll(ctx, state, req.Files)

	result := &model.UploadResult{
		BatchID:  req.BatchID,
		URLs:     make([]string, 0, len(sanitized)),
		Previews: previews,
	}

	if req.Authenticated {
		state.begin(StageUploading, len(sanitized), sanitizeSpan, uploadSpan)
		result.Outcomes = s.uploadAll(ctx, state, sanitized, req.Credential, endpointsFor(req, s.settings.Endpoints))
	} else {
		logger.Info().Str("batch_id", req.BatchID).Msg("Caller is not authenticated, upload stage skipped")
	}

	state.enter(StageFinalizing)
	for i := range result.Outcomes {
		o := &result.Outcomes[i]
		o.URL, o.Resolved = resolveURL(o.Response)
		if o.Resolved {
			result.URLs = append(result.URLs, o.URL)
		}
	}

	if len(result.URLs) == 0 {
		logger.Warn().Str("batch_id", req.BatchID).Int("files", len(req.Files)).Int("outcomes", len(result.Outcomes)).Msg("No URLs resolved for batch")
		return nil, model.ErrResolutionEmpty
	}

	for _, url := range result.URLs {
		s.deliver(ctx, req, model.Added(req.DraftID, url))
	}

	return result, nil
}

func (s *UploadService) buildPreviews(ctx context.Context, files []model.ImageInput) []model.Preview {
	logger := mwlogger.LoggerFromContext(ctx)
	slots := make([]*model.Preview, len(files))

	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			p, err := imageproc.Preview(f)
			if err != nil {
				logger.Warn().Err(err).Str("file", f.Name).Msg("Failed to build preview")
				return nil
			}
			slots[i] = &p
			return nil
		})
	}
	_ = g.Wait()

	previews := make([]model.Preview, 0, len(files))
	for _, p := range slots {
		if p != nil {
			previews = append(previews, *p)
		}
	}
	return previews
}

// sanitizeAll ждет завершения всех файлов (успех или ошибка) - загрузка не начнется раньше
func (s *UploadService) sanitizeAll(ctx context.Context, state *PipelineState, files []model.ImageInput) []*model.SanitizedImage {
	logger := mwlogger.LoggerFromContext(ctx)
	slots := make([]*model.SanitizedImage, len(files))

	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			defer state.completeItem()

			var img *model.SanitizedImage
			err := settle(func() (e error) {
				img, e = s.sanitizer.Sanitize(f)
				return e
			})
			if err != nil {
				metrics.SanitizeFailed(f.ContentType)
				logger.Error().Err(err).Str("file", f.Name).Msg("Failed to sanitize image")
				return nil
			}
			slots[i] = img
			return nil
		})
	}
	_ = g.Wait()

	sanitized := make([]*model.SanitizedImage, 0, len(files))
	for _, img := range slots {
		if img != nil {
			sanitized = append(sanitized, img)
		}
	}
	return sanitized
}

func (s *UploadService) uploadAll(ctx context.Context, state *PipelineState, images []*model.SanitizedImage, cred model.Credential, endpoints []model.Endpoint) []model.UploadOutcome {
	logger := mwlogger.LoggerFromContext(ctx)

	var mu sync.Mutex
	outcomes := make([]model.UploadOutcome, 0, len(images))

	var g errgroup.Group
	for _, img := range images {
		g.Go(func() error {
			var resp model.Response
			err := settle(func() (e error) {
				resp, e = s.uploader.Upload(ctx, img, cred, endpoints)
				return e
			})
			if err != nil {
				logger.Error().Err(err).Str("file", img.Name).Msg("Failed to upload image")
			}

			mu.Lock()
			outcomes = append(outcomes, model.UploadOutcome{Name: img.Name, Response: resp, Err: err})
			mu.Unlock()

			state.completeItem()
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// settle не дает панике одного файла уронить соседние
func settle(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: recovered panic: %v", model.ErrCommon500, r)
		}
	}()
	return f()
}

func (s *UploadService) resetLater(batchID string, state *PipelineState, delay time.Duration) {
	finish := func() {
		state.reset()
		s.registry.close(batchID, state)
	}
	if delay <= 0 {
		finish()
		return
	}
	time.AfterFunc(delay, finish)
}

// SetObserver attaches a hook that sees every progress change of every run.
func (s *UploadService) SetObserver(o ProgressObserver) {
	s.observer = o
}

// Progress returns the percentage of an in-flight batch; ok is false when there is none.
func (s *UploadService) Progress(batchID string) (Stage, int, bool) {
	return s.registry.Get(batchID)
}

//---------------------

func (s *UploadService) ListAttachments(ctx context.Context, draftID string) ([]string, error) {
	if err := uuid.Validate(draftID); err != nil {
		return nil, model.ErrIncorrectID
	}
	return s.drafts.List(draftID)
}

func (s *UploadService) RemoveAttachment(ctx context.Context, draftID string, index int) error {
	if err := uuid.Validate(draftID); err != nil {
		return model.ErrIncorrectID
	}
	e := model.RemovedAt(draftID, index)
	if err := s.drafts.Apply(e); err != nil {
		return err
	}
	s.publish(ctx, e)
	return nil
}

func (s *UploadService) ClearAttachments(ctx context.Context, draftID string) error {
	if err := uuid.Validate(draftID); err != nil {
		return model.ErrIncorrectID
	}
	e := model.ClearedAll(draftID)
	if err := s.drafts.Apply(e); err != nil {
		return err
	}
	s.publish(ctx, e)
	return nil
}

func (s *UploadService) History(ctx context.Context, draftID string, req *model.ListRequest) ([]model.UploadEvent, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(draftID); err != nil {
		return nil, model.ErrIncorrectID
	}
	validateQueryParams(req)

	res, err := s.repo.GetList(ctx, draftID, req)
	if err != nil {
		logger.Error().Err(err).Str("draft_id", draftID).Msg("Failed to fetch draft events from DB")
		return nil, model.ErrCommon500
	}
	return res, nil
}

// deliver отдает событие вызывающему, в черновик и в очередь
func (s *UploadService) deliver(ctx context.Context, req *model.UploadRequest, e model.UploadEvent) {
	if req.OnEvent != nil {
		req.OnEvent(e)
	}
	if req.DraftID == "" {
		return
	}
	if err := s.drafts.Apply(e); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Str("draft_id", e.DraftID).Msg("Failed to attach URL to draft")
		return
	}
	s.publish(ctx, e)
}

// publish - журнал диагностический, сбой очереди не ломает пользовательскую операцию
func (s *UploadService) publish(ctx context.Context, e model.UploadEvent) {
	if s.publisher == nil {
		return
	}
	logger := mwlogger.LoggerFromContext(ctx)

	payload, err := model.EncodeEvent(e)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode upload event")
		return
	}
	if err := s.publisher.SendWithRetry(ctx, retryStrategy, []byte(e.DraftID), payload); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish %q event of draft %q to queue", e.Kind, e.DraftID))
	}
}

// surfaceError оставляет ожидаемые ошибки как есть, остальное прячет за ErrCommon500
func surfaceError(err error) error {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrEmptyBatch),
		errors.Is(err, model.ErrResolutionEmpty):
		return err
	default:
		return model.ErrCommon500
	}
}

func runResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrEmptyBatch):
		return "rejected"
	case errors.Is(err, model.ErrResolutionEmpty):
		return "empty"
	default:
		return "failed"
	}
}
