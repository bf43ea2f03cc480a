// Package model provides data-structs for internal app-usage
package model

import (
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	WEBP = "image/webp"
)

// MaxImageSize - лимит на размер одного файла в байтах (5 MiB)
const MaxImageSize int64 = 5_242_880

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	WEBP: ".webp",
}

var GetImagingFormat = map[string]imaging.Format{
	JPEG: imaging.JPEG,
	PNG:  imaging.PNG,
}

//---------------------

// ImageInput is a file as received from the caller. Never mutated after receipt.
type ImageInput struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// ValidationPolicy is read-only shared configuration.
type ValidationPolicy struct {
	AllowedTypes map[string]bool
	MaxSize      int64
}

func DefaultPolicy() ValidationPolicy {
	return ValidationPolicy{
		AllowedTypes: map[string]bool{
			JPEG: true,
			PNG:  true,
			WEBP: true,
		},
		MaxSize: MaxImageSize,
	}
}

// SanitizedImage - перекодированная картинка без метаданных, тип совпадает с исходником
type SanitizedImage struct {
	Name        string
	ContentType string
	Data        []byte
	SHA256      string
	ModifiedAt  time.Time
}

func (s *SanitizedImage) Size() int64 {
	return int64(len(s.Data))
}

// Key returns the content address used by object-store endpoints.
func (s *SanitizedImage) Key() string {
	return s.SHA256 + GetImageFileExt[s.ContentType]
}

type Preview struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	DataURL string `json:"data_url"`
}

//---------------------

// Endpoint - адрес сервера-кандидата для загрузки
type Endpoint string

const DefaultEndpoint Endpoint = "https://blossom.primal.net"

// Scheme returns the lower-cased URL scheme, "" if there is none.
func (e Endpoint) Scheme() string {
	s := string(e)
	i := strings.Index(s, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(s[:i])
}

// Host returns everything after the scheme separator without trailing slashes.
func (e Endpoint) Host() string {
	s := string(e)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	return strings.TrimRight(s, "/")
}

// ParseEndpoints splits a comma-separated list keeping its order.
// Falls back to DefaultEndpoint when nothing usable is left.
func ParseEndpoints(raw string) []Endpoint {
	res := make([]Endpoint, 0)
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		res = append(res, Endpoint(v))
	}
	if len(res) == 0 {
		return []Endpoint{DefaultEndpoint}
	}
	return res
}

// Credential is the opaque signer output, passed through to the upload collaborator.
type Credential string

//---------------------

type UploadRequest struct {
	BatchID       string
	DraftID       string
	Files         []ImageInput
	Authenticated bool
	Credential    Credential
	Endpoints     []Endpoint
	// OnEvent is invoked once per resolved URL, in completion order
	OnEvent func(UploadEvent)
}

// UploadOutcome - результат загрузки одного файла
type UploadOutcome struct {
	Name     string
	URL      string
	Resolved bool
	Response Response
	Err      error
}

type UploadResult struct {
	BatchID  string          `json:"batch_id"`
	URLs     []string        `json:"urls"`
	Previews []Preview       `json:"previews,omitempty"`
	Outcomes []UploadOutcome `json:"-"`
}

//-------------------

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByKind    = "kind"
	ByCreated = "created"
	OrderASC  = "ascend"
	OrderDESC = "descend"
)
