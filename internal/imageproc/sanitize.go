// Package imageproc provides operations for images: metadata stripping and preview generation.
package imageproc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/disintegration/imaging"
)

// Codec decodes an image into a pixel buffer and encodes it back into the declared type.
type Codec interface {
	Decode(data []byte, contentType string) (image.Image, error)
	Encode(img image.Image, contentType string) ([]byte, error)
}

// ImagingCodec - кодек на базе disintegration/imaging, поддерживает JPEG и PNG
type ImagingCodec struct {
	JPEGQuality int
}

const defaultJPEGQuality = 92

var encodeBuffers = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func (c ImagingCodec) Decode(data []byte, _ string) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data provided to Decode")
	}
	// ориентацию из EXIF применяем к пикселям, сами метаданные дальше теряются
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func (c ImagingCodec) Encode(img image.Image, contentType string) ([]byte, error) {
	format, ok := model.GetImagingFormat[contentType]
	if !ok {
		return nil, fmt.Errorf("no encoder for %q", contentType)
	}

	quality := c.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}

	buf := encodeBuffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer encodeBuffers.Put(buf)

	if err := imaging.Encode(buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Sanitizer strips embedded metadata from one image at a time.
type Sanitizer struct {
	codec Codec
	now   func() time.Time
}

func NewSanitizer(codec Codec) *Sanitizer {
	if codec == nil {
		codec = ImagingCodec{}
	}
	return &Sanitizer{codec: codec, now: time.Now}
}

// Sanitize returns a copy of the image without metadata and with the same declared type.
// Failures are *model.DecodeError or *model.EncodeError.
func (s *Sanitizer) Sanitize(in model.ImageInput) (*model.SanitizedImage, error) {
	var data []byte
	var err error

	switch in.ContentType {
	case model.WEBP:
		data, err = StripWebP(in.Name, in.Data)
	default:
		data, err = s.reencode(in)
	}
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return &model.SanitizedImage{
		Name:        in.Name,
		ContentType: in.ContentType,
		Data:        data,
		SHA256:      hex.EncodeToString(sum[:]),
		ModifiedAt:  s.now().UTC(),
	}, nil
}

func (s *Sanitizer) reencode(in model.ImageInput) ([]byte, error) {
	img, err := s.codec.Decode(in.Data, in.ContentType)
	if err != nil {
		return nil, &model.DecodeError{File: in.Name, Err: err}
	}

	out, err := s.codec.Encode(img, in.ContentType)
	if err != nil {
		return nil, &model.EncodeError{File: in.Name, Err: err}
	}
	if len(out) == 0 {
		return nil, &model.EncodeError{File: in.Name}
	}
	return out, nil
}
