package tasks

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tagtree/internal/tags"
)

// DateLayout is the layout of start_date values.
const DateLayout = "2006-01-02"

//go:embed schema.json
var defaultSchema []byte

const defaultSchemaURL = "https://tagtree.invalid/tasks.schema.json"

var (
	// ErrTaskNotFound is returned for unknown task IDs.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidStatus is returned for status values outside Status constants.
	ErrInvalidStatus = errors.New("invalid task status")
)

// Status is a task status.
type Status string

const (
	StatusActive    Status = tags.StatusActive
	StatusDone      Status = "Done"
	StatusDismissed Status = "Dismissed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDone, StatusDismissed:
		return true
	}
	return false
}

// ParseStatus converts a case-insensitive status name.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusActive, StatusDone, StatusDismissed} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Task is a single entry of the task file.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    Status     `json:"status"`
	Tags      []string   `json:"tags,omitempty"`
	StartDate string     `json:"start_date,omitempty"`
	Subtasks  []string   `json:"subtasks,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// HasTag reports whether the task carries name.
func (t *Task) HasTag(name string) bool {
	for _, n := range t.Tags {
		if n == name {
			return true
		}
	}
	return false
}

// Start parses StartDate. The zero time means no start date.
func (t *Task) Start() (time.Time, error) {
	if t.StartDate == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, t.StartDate)
}

// File is the task file structure.
type File struct {
	SchemaVersion int    `json:"schema_version"`
	Tasks         []Task `json:"tasks"`
}

// Empty returns a file with no tasks.
func Empty() *File {
	return &File{SchemaVersion: 1, Tasks: []Task{}}
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath overrides the embedded schema.
	SchemaPath string
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool // true if JSON Schema validation was performed
}

// Load reads and parses a task file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if f.Tasks == nil {
		f.Tasks = []Task{}
	}
	return &f, nil
}

// LoadOrEmpty is Load, except that a missing file yields an empty one.
func LoadOrEmpty(path string) (*File, error) {
	f, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), nil
	}
	return f, err
}

// Save writes the task file to path with 2-space indentation.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task file: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}

// Task returns a task by ID, or nil if not found.
func (f *File) Task(id string) *Task {
	for i := range f.Tasks {
		if f.Tasks[i].ID == id {
			return &f.Tasks[i]
		}
	}
	return nil
}

// Validate validates the task file.
func (f *File) Validate(opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	schema, warning := compileSchema(opts.SchemaPath)
	if schema == nil {
		result.Warnings = append(result.Warnings, warning, "JSON Schema validation not available, using minimal checks")
		f.validateMinimal(result)
	} else {
		result.UsedSchema = true
		validateWithSchema(f, schema, result)
	}

	f.validateReferences(result)
	return result
}

func compileSchema(path string) (*jsonschema.Schema, string) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if path == "" {
		if err := compiler.AddResource(defaultSchemaURL, bytes.NewReader(defaultSchema)); err != nil {
			return nil, fmt.Sprintf("embedded schema: %v", err)
		}
		schema, err := compiler.Compile(defaultSchemaURL)
		if err != nil {
			return nil, fmt.Sprintf("embedded schema: %v", err)
		}
		return schema, ""
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Sprintf("invalid schema path: %v", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Sprintf("schema file not found: %s", absPath)
		}
		return nil, fmt.Sprintf("failed to read schema file: %v", err)
	}
	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Sprintf("invalid schema file: %v", err)
	}
	return schema, ""
}

func validateWithSchema(f *File, schema *jsonschema.Schema, result *ValidationResult) {
	// The schema validates decoded JSON, not Go structs.
	data, err := json.Marshal(f)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to marshal file for validation: %w", err),
		})
		return
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to unmarshal file for validation: %w", err),
		})
		return
	}

	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			result.Errors = append(result.Errors, err)
			return
		}
		collectSchemaErrors(result, ve)
	}
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func (f *File) validateMinimal(result *ValidationResult) {
	if f.SchemaVersion != 1 {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "schema_version",
			Err:  fmt.Errorf("expected 1, got %d", f.SchemaVersion),
		})
	}
	if f.Tasks == nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "tasks",
			Err:  errors.New("missing required field"),
		})
		return
	}

	for i := range f.Tasks {
		if err := validateTaskMinimal(&f.Tasks[i], fmt.Sprintf("tasks[%d]", i)); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err)
		}
	}
}

func validateTaskMinimal(task *Task, path string) *ValidationError {
	if task.ID == "" {
		return &ValidationError{Path: path + ".id", Err: errors.New("missing required field")}
	}
	if task.Title == "" {
		return &ValidationError{Path: path + ".title", Err: errors.New("missing required field")}
	}
	if !task.Status.Valid() {
		return &ValidationError{
			Path: path + ".status",
			Err:  fmt.Errorf("%w %q, must be one of: Active, Done, Dismissed", ErrInvalidStatus, task.Status),
		}
	}
	if _, err := task.Start(); err != nil {
		return &ValidationError{Path: path + ".start_date", Err: err}
	}
	return nil
}

// validateReferences checks what a schema cannot: unique IDs and subtask
// references that resolve.
func (f *File) validateReferences(result *ValidationResult) {
	seen := make(map[string]int, len(f.Tasks))
	for i, t := range f.Tasks {
		if t.ID == "" {
			continue
		}
		if j, dup := seen[t.ID]; dup {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: fmt.Sprintf("tasks[%d].id", i),
				Err:  fmt.Errorf("duplicate id %q (also tasks[%d])", t.ID, j),
			})
			continue
		}
		seen[t.ID] = i
	}
	for i, t := range f.Tasks {
		for k, sub := range t.Subtasks {
			path := fmt.Sprintf("tasks[%d].subtasks[%d]", i, k)
			switch {
			case sub == t.ID:
				result.Valid = false
				result.Errors = append(result.Errors, &ValidationError{Path: path, Err: errors.New("task lists itself as subtask")})
			case f.Task(sub) == nil:
				result.Valid = false
				result.Errors = append(result.Errors, &ValidationError{Path: path, Err: fmt.Errorf("%w: %q", ErrTaskNotFound, sub)})
			}
		}
	}
}
