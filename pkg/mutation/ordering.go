package mutation

import (
	"fmt"

	"github.com/openforma/openforma/pkg/questionnaire"
	"github.com/openforma/openforma/pkg/stores"
)

// AppendPosition returns the 1-based order for a question appended to a
// step currently holding the given active questions.
func AppendPosition(active []questionnaire.QuestionTemplate) int {
	return len(active) + 1
}

// ResolveReorder validates a requested ordering against a step's
// current active questions and produces the authoritative id-to-order
// mapping. The request must name each active question of the step
// exactly once; anything else is a validation error and nothing is
// applied.
func ResolveReorder(active []questionnaire.QuestionTemplate, orderedIDs []string) ([]stores.QuestionOrder, error) {
	if len(orderedIDs) != len(active) {
		return nil, questionnaire.NewValidationError(
			fmt.Sprintf("reorder must name all %d active questions of the step, got %d", len(active), len(orderedIDs)), nil)
	}

	known := make(map[string]bool, len(active))
	for _, q := range active {
		known[q.ID] = true
	}

	seen := make(map[string]bool, len(orderedIDs))
	mapping := make([]stores.QuestionOrder, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		if !known[id] {
			return nil, questionnaire.NewValidationError(
				fmt.Sprintf("question %s is not an active question of the step", id), nil)
		}
		if seen[id] {
			return nil, questionnaire.NewValidationError(
				fmt.Sprintf("question %s appears more than once in the reorder", id), nil)
		}
		seen[id] = true
		mapping = append(mapping, stores.QuestionOrder{QuestionID: id, Order: i + 1})
	}

	return mapping, nil
}
