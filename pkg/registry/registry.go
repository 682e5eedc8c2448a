// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// FindByTaskType looks up an activity by its Camunda task type.
func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks that every activity's input and output schemas are
// well-formed JSON schemas. Run at startup so a broken registry fails
// fast instead of at job time.
func (r *ActivityRegistry) Validate() error {
	var problems []string
	for _, act := range r.Activities {
		if act.ID == "" || act.TaskType == "" {
			problems = append(problems, fmt.Sprintf("activity %q: id and taskType are required", act.ID))
			continue
		}
		if err := compileSchema(act.InputSchema); err != nil {
			problems = append(problems, fmt.Sprintf("activity %q: input schema: %v", act.ID, err))
		}
		if err := compileSchema(act.OutputSchema); err != nil {
			problems = append(problems, fmt.Sprintf("activity %q: output schema: %v", act.ID, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid activity registry: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateInput validates job variables against the activity's input schema.
func (a *Activity) ValidateInput(vars map[string]interface{}) error {
	if len(a.InputSchema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(a.InputSchema)
	documentLoader := gojsonschema.NewGoLoader(vars)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation for %s: %w", a.ID, err)
	}
	if !result.Valid() {
		var details []string
		for _, resErr := range result.Errors() {
			details = append(details, resErr.String())
		}
		return fmt.Errorf("input for %s rejected: %s", a.ID, strings.Join(details, "; "))
	}
	return nil
}

func compileSchema(schema map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}
	_, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	return err
}
