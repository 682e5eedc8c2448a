// cmd/tools/worker-generator/main.go
//
// Scaffolds a worker package from an activity registry entry. The
// generated files follow the house layout: config.go, models.go,
// handler.go, handler_test.go under internal/workers/<category>/<id>/.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"lodgement-workers/pkg/registry"
)

// WorkerData feeds the file templates.
type WorkerData struct {
	Name         string
	PackageName  string
	TaskType     string
	FailureCode  string
	InputSchema  map[string]interface{}
	OutputSchema map[string]interface{}
	Description  string
	Category     string
	Timeout      string
}

const configTemplate = `package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
`

const modelsTemplate = `package {{ .PackageName }}

// Input carries the job variables for {{ .TaskType }}.
type Input struct {
{{- $props := parseSchema .InputSchema }}
{{- if $props }}
{{ structFields $props }}
{{- end }}
}

// Output is written back to the process on completion.
type Output struct {
{{- $props := parseSchema .OutputSchema }}
{{- if $props }}
{{ structFields $props }}
{{- end }}
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
)

const (
	TaskType = "{{ .TaskType }}"
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := "{{ .FailureCode }}"
		if stdErr, ok := err.(*errors.StandardError); ok {
			code = string(stdErr.Code)
		}
		h.failJob(client, job, code, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	_ = ctx
	_ = input
	return nil, errors.NewBusinessRuleError("{{ .TaskType }} is not implemented", "NOT_IMPLEMENTED")
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

// Execute exposes the core logic for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lodgement-workers/internal/common/logger"
)

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewZapAdapter(zaptest.NewLogger(t)))
}

func TestExecuteNotImplemented(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
}
`

func main() {
	activity := flag.String("activity", "", "Activity ID from the registry (e.g. transition-status)")
	outputDir := flag.String("output", "./internal/workers/", "Root directory for generated workers")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator --activity <id> [--output <dir>] [--registry <path>]")
		fmt.Println("\nExample:")
		fmt.Println("  go run cmd/tools/worker-generator/main.go --activity transition-status")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	act, _ := reg.FindByTaskType(*activity)
	if act == nil {
		for i := range reg.Activities {
			if reg.Activities[i].ID == *activity {
				act = &reg.Activities[i]
				break
			}
		}
	}
	if act == nil {
		fmt.Printf("Activity '%s' not found in registry %s\n", *activity, *registryPath)
		os.Exit(1)
	}

	data := WorkerData{
		Name:         act.DisplayName,
		PackageName:  strings.ReplaceAll(act.ID, "-", ""),
		TaskType:     act.TaskType,
		FailureCode:  defaultFailureCode(act),
		InputSchema:  act.InputSchema,
		OutputSchema: act.OutputSchema,
		Description:  act.Description,
		Category:     act.Category,
		Timeout:      act.Timeout,
	}

	workerDir := filepath.Join(*outputDir, categoryDir(data.Category), act.ID)
	if err := os.MkdirAll(workerDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	funcMap := template.FuncMap{
		"parseSchema":  parseSchema,
		"structFields": structFields,
	}

	files := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
	}

	for filename, tmplStr := range files {
		tmpl, err := template.New(filename).Funcs(funcMap).Parse(tmplStr)
		if err != nil {
			fmt.Printf("Error parsing template %s: %v\n", filename, err)
			continue
		}

		path := filepath.Join(workerDir, filename)
		file, err := os.Create(path)
		if err != nil {
			fmt.Printf("Error creating file %s: %v\n", path, err)
			continue
		}
		if err := tmpl.Execute(file, data); err != nil {
			fmt.Printf("Error executing template for %s: %v\n", filename, err)
		}
		file.Close()

		fmt.Printf("✓ Generated %s\n", path)
	}

	fmt.Printf("\n✅ Worker scaffold generated at: %s\n", workerDir)
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Fill in Input/Output in models.go\n")
	fmt.Printf("  2. Implement execute in handler.go\n")
	fmt.Printf("  3. Extend handler_test.go\n")
	fmt.Printf("  4. Register the worker in cmd/worker-manager/main.go\n")
}

// defaultFailureCode picks the catch-all error code for the generated
// handler: the first registered code, or a generic one.
func defaultFailureCode(act *registry.Activity) string {
	if len(act.ErrorCodes) > 0 {
		return act.ErrorCodes[0]
	}
	return "EXECUTION_FAILED"
}

// categoryDir maps registry categories onto the workers tree. Ranking
// tasks live next to scoring because they share the engine packages.
func categoryDir(category string) string {
	if category == "ranking" {
		return "scoring"
	}
	return strings.ToLower(category)
}

func parseSchema(schemaObj interface{}) map[string]interface{} {
	schemaMap, ok := schemaObj.(map[string]interface{})
	if !ok {
		return nil
	}
	props, ok := schemaMap["properties"].(map[string]interface{})
	if !ok {
		return nil
	}
	return props
}

// structFields renders schema properties as Go struct fields.
func structFields(properties map[string]interface{}) string {
	var fields []string
	for prop, details := range properties {
		propDetails, ok := details.(map[string]interface{})
		if !ok {
			continue
		}
		fields = append(fields, fmt.Sprintf("\t%s %s `json:\"%s\"`",
			upperFirst(prop), goType(propDetails["type"]), prop))
	}
	return strings.Join(fields, "\n")
}

func goType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "integer":
		return "int64"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
