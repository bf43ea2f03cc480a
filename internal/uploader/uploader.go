// Package uploader sends sanitized images to media servers, trying endpoints in order
package uploader

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnendingLoop/ImageDrop/internal/metrics"
	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/mwlogger"
	"github.com/wb-go/wbf/retry"
)

// Driver puts one image to one endpoint of the scheme it is registered for.
type Driver interface {
	Put(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error)
}

// ErrPermanent marks driver errors that are not worth retrying on the same endpoint
var ErrPermanent = errors.New("permanent upload failure")

type Uploader struct {
	drivers  map[string]Driver
	strategy retry.Strategy
}

func NewUploader(strategy retry.Strategy) *Uploader {
	if strategy.Attempts <= 0 {
		strategy.Attempts = 1
	}
	return &Uploader{drivers: make(map[string]Driver), strategy: strategy}
}

// Register binds a driver to one or more endpoint schemes ("https", "minio", ...).
func (u *Uploader) Register(d Driver, schemes ...string) {
	for _, s := range schemes {
		u.drivers[s] = d
	}
}

// Upload tries endpoints in order, the first success wins.
// If every endpoint fails, the returned *model.UploadError holds each cause.
func (u *Uploader) Upload(ctx context.Context, img *model.SanitizedImage, cred model.Credential, endpoints []model.Endpoint) (model.Response, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	uErr := &model.UploadError{
		File:   img.Name,
		Causes: make(map[model.Endpoint]error, len(endpoints)),
	}

	for _, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			uErr.Causes[ep] = err
			uErr.Order = append(uErr.Order, ep)
			break
		}

		resp, err := u.putWithRetry(ctx, ep, img, cred)
		metrics.EndpointUpload(ep.Scheme(), err == nil)
		if err == nil {
			return resp, nil
		}

		logger.Warn().Err(err).Str("file", img.Name).Str("endpoint", string(ep)).Msg("Endpoint failed, trying next one")
		uErr.Causes[ep] = err
		uErr.Order = append(uErr.Order, ep)
	}

	if len(uErr.Order) == 0 {
		return nil, fmt.Errorf("%w: no endpoints configured", model.ErrUpload)
	}
	return nil, uErr
}

func (u *Uploader) putWithRetry(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
	d, ok := u.drivers[ep.Scheme()]
	if !ok {
		return nil, fmt.Errorf("%w %q", model.ErrNoDriver, ep.Scheme())
	}

	var (
		resp      model.Response
		permanent error
	)
	err := retry.DoContext(ctx, u.strategy, func() error {
		r, err := d.Put(ctx, ep, img, cred)
		switch {
		case err == nil:
			resp = r
			return nil
		case errors.Is(err, ErrPermanent):
			// retry останавливается на nil, ошибку отдаем сами
			permanent = err
			return nil
		default:
			return err
		}
	})
	if permanent != nil {
		return nil, permanent
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
