package uploader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

type mockDriver struct {
	putFn func(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error)
}

func (m *mockDriver) Put(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
	return m.putFn(ctx, ep, img, cred)
}

var fastRetry = retry.Strategy{Attempts: 3, Delay: time.Millisecond, Backoff: 1}

func testImage() *model.SanitizedImage {
	return &model.SanitizedImage{Name: "a.png", ContentType: model.PNG, Data: []byte("pngdata"), SHA256: "abc"}
}

// UPLOAD - FALLBACK TO SECOND ENDPOINT
func TestUploader_Fallback(t *testing.T) {
	var order []model.Endpoint
	d := &mockDriver{
		putFn: func(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
			order = append(order, ep)
			if ep == "https://first" {
				return nil, errors.New("503")
			}
			return model.Tags{{"url", "https://second/abc.png"}}, nil
		},
	}
	u := NewUploader(fastRetry)
	u.Register(d, "https")

	resp, err := u.Upload(context.Background(), testImage(), "cred", []model.Endpoint{"https://first", "https://second", "https://third"})
	require.NoError(t, err)
	require.Equal(t, model.Tags{{"url", "https://second/abc.png"}}, resp)
	// первый endpoint ретраится, третий не трогается
	require.Equal(t, []model.Endpoint{"https://first", "https://first", "https://first", "https://second"}, order)
}

// UPLOAD - ALL ENDPOINTS FAIL
func TestUploader_AllFail(t *testing.T) {
	first := errors.New("timeout")
	d := &mockDriver{
		putFn: func(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
			return nil, first
		},
	}
	u := NewUploader(fastRetry)
	u.Register(d, "https")

	_, err := u.Upload(context.Background(), testImage(), "", []model.Endpoint{"https://a", "ftp://b"})
	var uErr *model.UploadError
	require.ErrorAs(t, err, &uErr)
	require.Equal(t, []model.Endpoint{"https://a", "ftp://b"}, uErr.Order)
	require.ErrorIs(t, uErr.Causes["https://a"], first)
	require.ErrorIs(t, uErr.Causes["ftp://b"], model.ErrNoDriver)
	require.ErrorIs(t, err, model.ErrUpload)
}

// UPLOAD - PERMANENT ERROR IS NOT RETRIED
func TestUploader_PermanentNotRetried(t *testing.T) {
	calls := 0
	d := &mockDriver{
		putFn: func(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
			calls++
			return nil, ErrPermanent
		},
	}
	u := NewUploader(fastRetry)
	u.Register(d, "https")

	_, err := u.Upload(context.Background(), testImage(), "", []model.Endpoint{"https://a"})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

// UPLOAD - TRANSIENT ERROR THEN SUCCESS ON SAME ENDPOINT
func TestUploader_RetryThenOK(t *testing.T) {
	calls := 0
	d := &mockDriver{
		putFn: func(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("502")
			}
			return model.Tags{{"url", "https://a/abc.png"}}, nil
		},
	}
	u := NewUploader(fastRetry)
	u.Register(d, "https")

	resp, err := u.Upload(context.Background(), testImage(), "", []model.Endpoint{"https://a", "https://b"})
	require.NoError(t, err)
	require.Equal(t, model.Tags{{"url", "https://a/abc.png"}}, resp)
	require.Equal(t, 2, calls)
}

// UPLOAD - CANCEL BETWEEN ATTEMPTS
func TestUploader_CanceledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	d := &mockDriver{
		putFn: func(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
			calls++
			cancel()
			return nil, errors.New("503")
		},
	}
	u := NewUploader(retry.Strategy{Attempts: 5, Delay: time.Hour, Backoff: 1})
	u.Register(d, "https")

	_, err := u.Upload(ctx, testImage(), "", []model.Endpoint{"https://a", "https://b"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

// UPLOAD - NO ENDPOINTS
func TestUploader_NoEndpoints(t *testing.T) {
	u := NewUploader(fastRetry)
	_, err := u.Upload(context.Background(), testImage(), "", nil)
	require.ErrorIs(t, err, model.ErrUpload)
}

// UPLOAD - CANCELED CONTEXT
func TestUploader_Canceled(t *testing.T) {
	d := &mockDriver{
		putFn: func(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, cred model.Credential) (model.Response, error) {
			t.Fatal("driver must not be called")
			return nil, nil
		},
	}
	u := NewUploader(fastRetry)
	u.Register(d, "https")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := u.Upload(ctx, testImage(), "", []model.Endpoint{"https://a"})
	require.ErrorIs(t, err, context.Canceled)
}

// BLOSSOM - SUCCESS
func TestBlossomDriver_Put_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/upload", r.URL.Path)
		require.Equal(t, "Nostr signed", r.Header.Get("Authorization"))
		require.Equal(t, "abc", r.Header.Get("X-SHA-256"))
		require.Equal(t, model.PNG, r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, "pngdata", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://cdn/abc.png","sha256":"abc","size":7,"type":"image/png","uploaded":1}`))
	}))
	defer srv.Close()

	d := NewBlossomDriver(time.Second)
	resp, err := d.Put(context.Background(), model.Endpoint(srv.URL+"/"), testImage(), "Nostr signed")
	require.NoError(t, err)
	require.Equal(t, model.Tags{{"url", "https://cdn/abc.png"}, {"x", "abc"}, {"m", "image/png"}, {"size", "7"}}, resp)
}

// BLOSSOM - GARBAGE BODY IS NOT AN ERROR
func TestBlossomDriver_Put_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	resp, err := NewBlossomDriver(time.Second).Put(context.Background(), model.Endpoint(srv.URL), testImage(), "")
	require.NoError(t, err)
	require.Equal(t, model.Malformed{Raw: []byte("ok")}, resp)
}

// BLOSSOM - STATUS CODES
func TestBlossomDriver_Put_Status(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		permanent bool
	}{
		{"unauthorized", http.StatusUnauthorized, true},
		{"too large", http.StatusRequestEntityTooLarge, true},
		{"rate limited", http.StatusTooManyRequests, false},
		{"server error", http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Reason", "nope")
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			_, err := NewBlossomDriver(time.Second).Put(context.Background(), model.Endpoint(srv.URL), testImage(), "")
			require.Error(t, err)
			require.Contains(t, err.Error(), "nope")
			require.Equal(t, tt.permanent, errors.Is(err, ErrPermanent))
		})
	}
}
