package vision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"heimdall/internal/entity"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const ppeSchemaURL = "https://heimdall.schemas.local/vision/ppe-response.schema.json"

// ppeSchema covers the fields the evaluator reads. Only a HEAD part must carry an equipment
// list; other parts are ignored downstream and may omit it. Providers may add anything else.
const ppeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"ProtectiveEquipmentModelVersion": {"type": ["string", "null"]},
		"Persons": {
			"type": ["array", "null"],
			"items": {"$ref": "#/$defs/person"}
		}
	},
	"$defs": {
		"person": {
			"type": "object",
			"required": ["Id", "BodyParts"],
			"properties": {
				"Id": {"type": ["integer", "string"]},
				"BodyParts": {"type": "array", "items": {"$ref": "#/$defs/bodyPart"}}
			}
		},
		"bodyPart": {
			"type": "object",
			"properties": {
				"Name": {"type": ["string", "null"]},
				"Confidence": {"type": ["number", "null"], "minimum": 0, "maximum": 100},
				"EquipmentDetections": {"type": ["array", "null"], "items": {"$ref": "#/$defs/equipment"}}
			},
			"if": {"required": ["Name"], "properties": {"Name": {"const": "HEAD"}}},
			"then": {
				"required": ["EquipmentDetections"],
				"properties": {"EquipmentDetections": {"type": "array"}}
			}
		},
		"equipment": {
			"type": "object",
			"properties": {
				"Type": {"type": ["string", "null"]},
				"Confidence": {"type": ["number", "null"], "minimum": 0, "maximum": 100}
			}
		}
	}
}`

// PayloadGuard validates provider JSON before it is decoded into a DetectionResult, so
// corrupt payloads are rejected instead of being read as "no detections".
type PayloadGuard struct {
	schema *jsonschema.Schema
}

func NewPayloadGuard() (*PayloadGuard, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(ppeSchemaURL, strings.NewReader(ppeSchema)); err != nil {
		return nil, fmt.Errorf("ppe schema load failed: %w", err)
	}

	compiled, err := c.Compile(ppeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("ppe schema compile failed: %w", err)
	}

	return &PayloadGuard{schema: compiled}, nil
}

func (g *PayloadGuard) Decode(payload []byte) (*entity.DetectionResult, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := g.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var result entity.DetectionResult
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &result, nil
}
