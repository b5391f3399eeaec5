package scan

import (
	"fmt"
	"heimdall/internal/entity"
)

// ViolationEvaluator decides whether a detection result contains a PPE violation.
// It has no fields and is safe for concurrent use.
type ViolationEvaluator struct{}

func NewViolationEvaluator() ViolationEvaluator {
	return ViolationEvaluator{}
}

// Evaluate flags every person whose head is missing or uncovered. A person without a
// HEAD body part is reported as "Head Obscured" and counts as a violation.
func (ViolationEvaluator) Evaluate(result entity.DetectionResult) (entity.EvaluationOutcome, error) {
	if err := validateDetectionResult(result); err != nil {
		return entity.EvaluationOutcome{}, err
	}

	if len(result.Persons) == 0 {
		return entity.EvaluationOutcome{
			ViolationDetected: false,
			PersonFound:       false,
			Details:           []string{entity.NoWorkerDetectedMsg},
		}, nil
	}

	outcome := entity.EvaluationOutcome{
		PersonFound: true,
		Details:     []string{},
	}

	for _, person := range result.Persons {
		head, ok := findBodyPart(person.BodyParts, entity.BodyPartHead)
		if !ok {
			outcome.ViolationDetected = true
			outcome.Details = append(outcome.Details, fmt.Sprintf("Person ID %s: Head Obscured", person.ID))
			continue
		}

		if !hasEquipment(head.EquipmentDetections, entity.EquipmentHeadCover) {
			outcome.ViolationDetected = true
			outcome.Details = append(outcome.Details, fmt.Sprintf("Person ID %s: No Helmet", person.ID))
		}
	}

	return outcome, nil
}

func validateDetectionResult(result entity.DetectionResult) error {
	seen := make(map[entity.PersonID]struct{}, len(result.Persons))

	for i, person := range result.Persons {
		if person.ID == "" {
			return fmt.Errorf("%w: person at index %d has no id", ErrInvalidInput, i)
		}
		if _, dup := seen[person.ID]; dup {
			return fmt.Errorf("%w: duplicate person id %s", ErrInvalidInput, person.ID)
		}
		seen[person.ID] = struct{}{}

		if person.BodyParts == nil {
			return fmt.Errorf("%w: person %s has no body parts field", ErrInvalidInput, person.ID)
		}

		for _, part := range person.BodyParts {
			if part.Name == entity.BodyPartHead && part.EquipmentDetections == nil {
				return fmt.Errorf("%w: person %s head has no equipment detections field", ErrInvalidInput, person.ID)
			}
		}
	}

	return nil
}

func findBodyPart(parts []entity.BodyPart, name string) (entity.BodyPart, bool) {
	for _, part := range parts {
		if part.Name == name {
			return part, true
		}
	}
	return entity.BodyPart{}, false
}

func hasEquipment(detections []entity.EquipmentDetection, equipmentType string) bool {
	for _, d := range detections {
		if d.Type == equipmentType {
			return true
		}
	}
	return false
}
