package vision

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
	jsoniter "github.com/json-iterator/go"
)

type rekognitionProvider struct {
	client        rekognitioniface.RekognitionAPI
	minConfidence float64
}

func NewRekognitionProvider(client rekognitioniface.RekognitionAPI, minConfidence float64) Provider {
	return &rekognitionProvider{
		client:        client,
		minConfidence: minConfidence,
	}
}

func NewRekognitionProviderFromEnv() (Provider, error) {
	sess, err := NewAWSSession()
	if err != nil {
		return nil, err
	}

	return NewRekognitionProvider(rekognition.New(sess), minConfidenceFromEnv()), nil
}

func (p *rekognitionProvider) Name() string {
	return ProviderRekognition
}

func (p *rekognitionProvider) Detect(ctx context.Context, image []byte, _ string) ([]byte, error) {
	out, err := p.client.DetectProtectiveEquipmentWithContext(ctx, &rekognition.DetectProtectiveEquipmentInput{
		Image: &rekognition.Image{Bytes: image},
		SummarizationAttributes: &rekognition.ProtectiveEquipmentSummarizationAttributes{
			MinConfidence:          aws.Float64(p.minConfidence),
			RequiredEquipmentTypes: aws.StringSlice([]string{rekognition.ProtectiveEquipmentTypeHeadCover}),
		},
	})
	if err != nil {
		return nil, err
	}

	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(out)
}

// NewAWSSession builds a session from AWS_REGION and static credentials when they are set,
// falling back to the default credential chain otherwise.
func NewAWSSession() (*session.Session, error) {
	cfg := &aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	}

	if os.Getenv("AWS_ACCESS_KEY_ID") != "" {
		cfg.Credentials = credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			os.Getenv("AWS_SESSION_TOKEN"),
		)
	}

	return session.NewSession(cfg)
}
