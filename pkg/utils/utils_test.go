package utils

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImagePayloadStripsDataURI(t *testing.T) {
	raw := pngBytes(t)
	encoded := base64.StdEncoding.EncodeToString(raw)

	for _, payload := range []string{
		encoded,
		"data:image/png;base64," + encoded,
		"data:image/jpeg;base64," + encoded,
		"  " + encoded + "\n",
		strings.TrimRight(encoded, "="),
	} {
		got, err := New().DecodeImagePayload(payload)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
}

func TestDecodeImagePayloadErrors(t *testing.T) {
	u := New()

	_, err := u.DecodeImagePayload("")
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = u.DecodeImagePayload("data:image/png;base64,")
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = u.DecodeImagePayload("not base64 at all!")
	assert.ErrorIs(t, err, ErrInvalidBase64)

	big := base64.StdEncoding.EncodeToString(make([]byte, u.MaxImageSize()+1))
	_, err = u.DecodeImagePayload(big)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestDetectImageType(t *testing.T) {
	mime, ext, err := New().DetectImageType(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "png", ext)

	_, _, err = New().DetectImageType([]byte("GIF89a......"))
	assert.ErrorIs(t, err, ErrUnsupportedImageType)
}

func TestNewULIDFromTimestamp(t *testing.T) {
	now := time.Now()
	id, err := New().NewULIDFromTimestamp(now)
	require.NoError(t, err)

	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(now), parsed.Time())
}

func TestValidateImageFile(t *testing.T) {
	u := New()
	header := func(size int64, contentType string) *multipart.FileHeader {
		h := textproto.MIMEHeader{}
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		return &multipart.FileHeader{Filename: "frame.png", Size: size, Header: h}
	}

	assert.ErrorIs(t, u.ValidateImageFile(nil), ErrNoFile)
	assert.ErrorIs(t, u.ValidateImageFile(header(u.MaxImageSize()+1, "image/png")), ErrFileTooLarge)
	assert.ErrorIs(t, u.ValidateImageFile(header(10, "text/plain")), ErrNotAnImage)
	assert.NoError(t, u.ValidateImageFile(header(10, "image/jpeg")))
	assert.NoError(t, u.ValidateImageFile(header(10, "application/octet-stream")))
	assert.NoError(t, u.ValidateImageFile(header(10, "")))
}
