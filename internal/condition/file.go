package condition

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ParseConditions parses one or more conditions from YAML bytes. Both a YAML
// list and a single document are accepted. Conditions without an ID are
// assigned one.
func ParseConditions(data []byte) ([]Condition, error) {
	var conditions []Condition
	if err := yaml.Unmarshal(data, &conditions); err != nil {
		// Try single condition format.
		var single Condition
		if singleErr := yaml.Unmarshal(data, &single); singleErr != nil {
			return nil, fmt.Errorf("failed to parse conditions: %w", err)
		}
		conditions = []Condition{single}
	}

	for i := range conditions {
		if conditions[i].ID == uuid.Nil {
			conditions[i].ID = uuid.New()
		}
		if err := conditions[i].Validate(); err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return conditions, nil
}

// LoadConditions reads and parses a condition file.
func LoadConditions(path string) ([]Condition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read condition file: %w", err)
	}
	return ParseConditions(data)
}
