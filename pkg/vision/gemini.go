package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiPrompt = `You are a construction site safety inspector.
Detect every person in this image and the protective equipment covering their head.
Respond ONLY with a JSON object in this exact shape, without any additional text:
{
	"ProtectiveEquipmentModelVersion": "gemini",
	"Persons": [
		{
			"Id": 0,
			"BodyParts": [
				{
					"Name": "HEAD",
					"Confidence": 99.0,
					"EquipmentDetections": [
						{"Type": "HEAD_COVER", "Confidence": 98.0}
					]
				}
			]
		}
	]
}
Rules:
- Number persons from 0 in the order you find them.
- Only include a HEAD body part when the head is visible.
- EquipmentDetections must be an empty array when no helmet or hard hat is worn.
- Only report equipment with confidence of at least %.0f.
- Return "Persons": [] when nobody is in the image.`

type generateFunc func(ctx context.Context, prompt string, mimeType string, image []byte) (string, error)

type geminiProvider struct {
	generate      generateFunc
	minConfidence float64
	close         func() error
}

func NewGeminiProviderFromEnv() (Provider, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	generate := func(ctx context.Context, prompt string, mimeType string, image []byte) (string, error) {
		model := client.GenerativeModel(modelName)
		model.ResponseMIMEType = "application/json"

		format := strings.TrimPrefix(mimeType, "image/")
		res, err := model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, image))
		if err != nil {
			return "", err
		}

		if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
			return "", errors.New("no response from Gemini API")
		}

		text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
		if !ok {
			return "", errors.New("unexpected response format from Gemini API")
		}
		return string(text), nil
	}

	return &geminiProvider{
		generate:      generate,
		minConfidence: minConfidenceFromEnv(),
		close:         client.Close,
	}, nil
}

func newGeminiProvider(generate generateFunc, minConfidence float64) *geminiProvider {
	return &geminiProvider{generate: generate, minConfidence: minConfidence}
}

func (p *geminiProvider) Name() string {
	return ProviderGemini
}

func (p *geminiProvider) Detect(ctx context.Context, image []byte, mimeType string) ([]byte, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	text, err := p.generate(ctx, fmt.Sprintf(geminiPrompt, p.minConfidence), mimeType, image)
	if err != nil {
		return nil, err
	}

	return extractJSONObject(text)
}

func (p *geminiProvider) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// extractJSONObject trims prose or code fences the model wraps around its JSON answer.
func extractJSONObject(text string) ([]byte, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, errors.New("cannot find valid JSON in response")
	}
	return []byte(text[start : end+1]), nil
}
