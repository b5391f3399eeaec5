package s3

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"golang.org/x/net/context"
)

const presignTTL = 15 * time.Minute

// ItfS3 stores violation evidence frames.
type ItfS3 interface {
	UploadSnapshot(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignUrl(ctx context.Context, fileURL string) (string, error)
}

type s3Client struct {
	client     s3iface.S3API
	uploader   s3manageriface.UploaderAPI
	bucketName string
}

func New(sess *session.Session) (ItfS3, error) {
	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET_NAME is required for snapshots")
	}

	return NewWithClients(s3.New(sess), s3manager.NewUploader(sess), bucket), nil
}

func NewWithClients(client s3iface.S3API, uploader s3manageriface.UploaderAPI, bucket string) ItfS3 {
	return &s3Client{
		client:     client,
		uploader:   uploader,
		bucketName: bucket,
	}
}

func (s *s3Client) UploadSnapshot(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	return out.Location, nil
}

func (s *s3Client) PresignUrl(ctx context.Context, fileURL string) (string, error) {
	decodedKey, err := url.QueryUnescape(ExtractKeyFromS3Url(fileURL))
	if err != nil {
		return "", fmt.Errorf("failed to decode S3 key: %w", err)
	}

	_, err = s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(decodedKey),
	})
	if err != nil {
		return "", fmt.Errorf("file does not exist: %w", err)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(decodedKey),
	})

	return req.Presign(presignTTL)
}

// ExtractKeyFromS3Url returns the object key of a virtual-hosted S3 location, or the input
// unchanged when it is already a key.
func ExtractKeyFromS3Url(fileURL string) string {
	parts := strings.SplitN(fileURL, ".com/", 2)
	if len(parts) > 1 {
		return parts[1]
	}
	return fileURL
}

// SnapshotKey is the object key for a violation frame.
func SnapshotKey(zoneID, scanID, extension string) string {
	return fmt.Sprintf("snapshots/%s/%s.%s", zoneID, scanID, extension)
}
