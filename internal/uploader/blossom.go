package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/UnendingLoop/ImageDrop/internal/model"
)

const (
	DefaultTimeout = 60 * time.Second
	maxBodySize    = 1 << 20
)

// BlossomDriver uploads blobs with PUT <server>/upload.
type BlossomDriver struct {
	client *http.Client
}

func NewBlossomDriver(timeout time.Duration) *BlossomDriver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BlossomDriver{client: &http.Client{Timeout: timeout}}
}

func (b *BlossomDriver) Put(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
	target := strings.TrimRight(string(ep), "/") + "/upload"

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request to %q: %v", ErrPermanent, target, err)
	}
	req.ContentLength = img.Size()
	req.Header.Set("Content-Type", img.ContentType)
	req.Header.Set("Content-Length", strconv.FormatInt(img.Size(), 10))
	if img.SHA256 != "" {
		req.Header.Set("X-SHA-256", img.SHA256)
	}
	// подпись уже готова, передаем как есть
	if cred != "" {
		req.Header.Set("Authorization", string(cred))
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %q: %w", target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := resp.Header.Get("X-Reason")
		if reason == "" {
			reason = strings.TrimSpace(string(body))
		}
		err := fmt.Errorf("server %q answered %d: %s", target, resp.StatusCode, reason)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return nil, err
	}

	return model.ParseResponse(body), nil
}
