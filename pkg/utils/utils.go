package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile               = errors.New("no file uploaded")
	ErrFileTooLarge         = errors.New("file size exceeds limit")
	ErrNotAnImage           = errors.New("uploaded file is not an image")
	ErrEmptyImage           = errors.New("image payload is empty")
	ErrInvalidBase64        = errors.New("image payload is not valid base64")
	ErrUnsupportedImageType = errors.New("image type is not supported")
)

var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// supportedImageTypes are the encodings the vision service accepts as raw bytes.
var supportedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadImageFile(file *multipart.FileHeader) ([]byte, error)
	DecodeImagePayload(payload string) ([]byte, error)
	DetectImageType(data []byte) (mimeType string, extension string, err error)
	MaxImageSize() int64
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
	}
}

func (u *utils) MaxImageSize() int64 {
	return u.maxFileSize
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	// Content sniffing happens later; octet-stream is what most upload clients send.
	contentType := file.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	return nil
}

func (u *utils) ReadImageFile(file *multipart.FileHeader) ([]byte, error) {
	if err := u.ValidateImageFile(file); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
}

// DecodeImagePayload strips a data:image/...;base64, prefix when present and decodes the
// rest. Both padded and unpadded standard encodings are accepted.
func (u *utils) DecodeImagePayload(payload string) ([]byte, error) {
	cleaned := strings.TrimSpace(dataURIPrefix.ReplaceAllString(strings.TrimSpace(payload), ""))
	if cleaned == "" {
		return nil, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, ErrInvalidBase64
		}
	}

	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	if int64(len(data)) > u.maxFileSize {
		return nil, ErrFileTooLarge
	}

	return data, nil
}

func (u *utils) DetectImageType(data []byte) (string, string, error) {
	mtype := mimetype.Detect(data)
	ext, ok := supportedImageTypes[mtype.String()]
	if !ok {
		return mtype.String(), "", ErrUnsupportedImageType
	}
	return mtype.String(), ext, nil
}
