package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Response is what an upload server answered: either Tags or Malformed.
type Response interface {
	isResponse()
}

// Tag - упорядоченная запись вида ["key", "value", ...]
type Tag []string

// Tags is a well-formed upload response.
type Tags []Tag

// Malformed keeps the raw body of a response that has no usable shape.
type Malformed struct {
	Raw []byte
}

func (Tags) isResponse()      {}
func (Malformed) isResponse() {}

// BlobDescriptor is the object a Blossom server returns from PUT /upload.
type BlobDescriptor struct {
	URL      string `json:"url"`
	SHA256   string `json:"sha256"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Uploaded int64  `json:"uploaded"`
}

// Tags converts the descriptor to NIP-94 style tags.
func (d BlobDescriptor) Tags() Tags {
	res := make(Tags, 0, 4)
	if d.URL != "" {
		res = append(res, Tag{"url", d.URL})
	}
	if d.SHA256 != "" {
		res = append(res, Tag{"x", d.SHA256})
	}
	if d.Type != "" {
		res = append(res, Tag{"m", d.Type})
	}
	if d.Size > 0 {
		res = append(res, Tag{"size", strconv.FormatInt(d.Size, 10)})
	}
	return res
}

// ParseResponse maps a raw server body onto the Response variant. It never fails:
// a JSON array is Tags (entries that are not tags are skipped), a blob descriptor
// object is converted to Tags, anything else is Malformed.
func ParseResponse(raw []byte) Response {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Malformed{Raw: raw}
	}

	switch trimmed[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return Malformed{Raw: raw}
		}
		tags := make(Tags, 0, len(entries))
		for _, entry := range entries {
			if tag, ok := parseTag(entry); ok {
				tags = append(tags, tag)
			}
		}
		return tags
	case '{':
		var desc BlobDescriptor
		if err := json.Unmarshal(trimmed, &desc); err != nil {
			return Malformed{Raw: raw}
		}
		return desc.Tags()
	default:
		return Malformed{Raw: raw}
	}
}

// parseTag accepts an array whose first element is a string.
// Non-string elements after the key keep their JSON text.
func parseTag(entry json.RawMessage) (Tag, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(entry, &elems); err != nil || len(elems) == 0 {
		return nil, false
	}

	tag := make(Tag, 0, len(elems))
	for i, el := range elems {
		var s string
		if err := json.Unmarshal(el, &s); err == nil {
			tag = append(tag, s)
			continue
		}
		if i == 0 {
			return nil, false
		}
		tag = append(tag, string(bytes.TrimSpace(el)))
	}
	return tag, true
}
