package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Response
	}{
		{
			name: "tag list",
			raw:  `[["url","https://a/x.png"],["size","10"]]`,
			want: Tags{{"url", "https://a/x.png"}, {"size", "10"}},
		},
		{
			name: "numeric tag value",
			raw:  `[["url","https://x/1.png"],["size",100]]`,
			want: Tags{{"url", "https://x/1.png"}, {"size", "100"}},
		},
		{
			name: "non-tag entry skipped",
			raw:  `[["url","https://x/1.png"],"junk"]`,
			want: Tags{{"url", "https://x/1.png"}},
		},
		{
			name: "extra non-string element",
			raw:  `[["size","100"],["url","https://x/1.png",7]]`,
			want: Tags{{"size", "100"}, {"url", "https://x/1.png", "7"}},
		},
		{
			name: "entries without string key",
			raw:  `[[1,"a"],[],{"url":"x"},["m","image/png"]]`,
			want: Tags{{"m", "image/png"}},
		},
		{
			name: "blob descriptor",
			raw:  `{"url":"https://a/x.png","sha256":"abc","size":10,"type":"image/png","uploaded":1}`,
			want: Tags{{"url", "https://a/x.png"}, {"x", "abc"}, {"m", "image/png"}, {"size", "10"}},
		},
		{
			name: "error object without url",
			raw:  `{"message":"nope"}`,
			want: Tags{},
		},
		{
			name: "plain text",
			raw:  `Bad Gateway`,
			want: Malformed{Raw: []byte(`Bad Gateway`)},
		},
		{
			name: "broken json",
			raw:  `[["url",`,
			want: Malformed{Raw: []byte(`[["url",`)},
		},
		{
			name: "empty",
			raw:  ``,
			want: Malformed{Raw: []byte(``)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseResponse([]byte(tt.raw)))
		})
	}
}

func TestParseEndpoints(t *testing.T) {
	require.Equal(t, []Endpoint{DefaultEndpoint}, ParseEndpoints(""))
	require.Equal(t, []Endpoint{DefaultEndpoint}, ParseEndpoints(" , "))
	require.Equal(t,
		[]Endpoint{"https://a", "minio://bucket", "s3://other"},
		ParseEndpoints("https://a, minio://bucket ,s3://other"))
}

func TestEndpoint_SchemeHost(t *testing.T) {
	require.Equal(t, "https", Endpoint("HTTPS://nostr.build/").Scheme())
	require.Equal(t, "nostr.build", Endpoint("HTTPS://nostr.build/").Host())
	require.Equal(t, "minio", Endpoint("minio://images").Scheme())
	require.Equal(t, "images", Endpoint("minio://images").Host())
	require.Equal(t, "", Endpoint("just-a-host").Scheme())
}

func TestEvents(t *testing.T) {
	added := Added("d", "https://a/x.png")
	removed := RemovedAt("d", 2)
	cleared := ClearedAll("d")

	require.Equal(t, "https://a/x.png", LegacyCallbackValue(added))
	require.Equal(t, "", LegacyCallbackValue(removed))
	require.Equal(t, "", LegacyCallbackValue(cleared))

	for _, e := range []UploadEvent{added, removed, cleared} {
		b, err := EncodeEvent(e)
		require.NoError(t, err)
		got, err := DecodeEvent(b)
		require.NoError(t, err)
		require.Equal(t, e.Kind, got.Kind)
		require.Equal(t, e.Index, got.Index)
		require.Equal(t, e.URL, got.URL)
	}

	_, err := DecodeEvent([]byte(`{"draft_id":"d","kind":"renamed"}`))
	require.ErrorIs(t, err, ErrUnsupportedEvent)

	_, err = DecodeEvent([]byte(`not json`))
	require.Error(t, err)
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("503")
	uErr := &UploadError{
		File:   "a.jpg",
		Causes: map[Endpoint]error{"https://a": cause},
		Order:  []Endpoint{"https://a"},
	}
	require.ErrorIs(t, uErr, ErrUpload)
	require.ErrorIs(t, uErr, cause)
	require.Contains(t, uErr.Error(), "https://a")

	dErr := &DecodeError{File: "a.png", Err: cause}
	require.ErrorIs(t, dErr, ErrDecode)
	require.ErrorIs(t, dErr, cause)

	vErr := &ValidationError{Constraint: ConstraintSize, File: "a.png", Value: "9", Limit: 5}
	require.ErrorIs(t, vErr, ErrValidation)
	require.Contains(t, vErr.Error(), "a.png")

	require.ErrorIs(t, &EncodeError{File: "a.png"}, ErrEncode)
}

func TestSanitizedImage_Key(t *testing.T) {
	img := &SanitizedImage{ContentType: PNG, SHA256: "abc", Data: []byte("1234")}
	require.Equal(t, "abc.png", img.Key())
	require.Equal(t, int64(4), img.Size())
}
