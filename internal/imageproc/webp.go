package imageproc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"golang.org/x/image/webp"
)

// чанки, которые несут пиксели или анимацию; все остальное выкидываем
var webpPixelChunks = map[string]bool{
	"VP8 ": true,
	"VP8L": true,
	"VP8X": true,
	"ALPH": true,
	"ANIM": true,
	"ANMF": true,
}

// VP8X feature flags for ICC profile, EXIF and XMP
const vp8xMetadataFlags byte = 0x20 | 0x08 | 0x04

var errBadContainer = errors.New("malformed RIFF/WEBP container")

// StripWebP validates the bitstream and rewrites the RIFF container without
// metadata chunks (EXIF, XMP, ICCP and unknown ones).
func StripWebP(name string, data []byte) ([]byte, error) {
	if _, err := webp.Decode(bytes.NewReader(data)); err != nil {
		return nil, &model.DecodeError{File: name, Err: err}
	}
	return stripWebPChunks(name, data)
}

func stripWebPChunks(name string, data []byte) ([]byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, &model.DecodeError{File: name, Err: errBadContainer}
	}

	var body bytes.Buffer
	body.WriteString("WEBP")

	rest := data[12:]
	for len(rest) >= 8 {
		fourCC := string(rest[0:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		padded := size + size&1
		if size < 0 || 8+size > len(rest) {
			return nil, &model.DecodeError{File: name, Err: fmt.Errorf("%w: chunk %q overflows", errBadContainer, fourCC)}
		}
		payload := rest[8 : 8+size]
		if 8+padded <= len(rest) {
			rest = rest[8+padded:]
		} else {
			rest = rest[8+size:]
		}

		if !webpPixelChunks[fourCC] {
			continue
		}
		if fourCC == "VP8X" && len(payload) > 0 {
			payload = append([]byte(nil), payload...)
			payload[0] &^= vp8xMetadataFlags
		}

		var hdr [8]byte
		copy(hdr[0:4], fourCC)
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(payload)))
		body.Write(hdr[:])
		body.Write(payload)
		if len(payload)&1 == 1 {
			body.WriteByte(0)
		}
	}

	if body.Len() <= 4 {
		return nil, &model.EncodeError{File: name}
	}

	out := make([]byte, 8, 8+body.Len())
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(body.Len()))
	out = append(out, body.Bytes()...)
	return out, nil
}
