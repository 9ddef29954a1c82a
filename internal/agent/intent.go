package agent

import (
	"context"

	"github.com/google/uuid"
)

// Operation names the fixed set of task tools. Anything outside this enum is
// rejected at the boundary.
type Operation string

const (
	OpTaskCreate   Operation = "task_create"
	OpTaskList     Operation = "task_list"
	OpTaskUpdate   Operation = "task_update"
	OpTaskDelete   Operation = "task_delete"
	OpTaskComplete Operation = "task_complete"
)

// Intent is the router's output: either exactly one operation with extracted
// arguments, or a conversational reply with no operation invoked.
type Intent struct {
	Operation Operation
	Arguments map[string]any
	Message   string
}

// IsToolCall reports whether the intent maps to an operation.
func (i *Intent) IsToolCall() bool {
	return i != nil && i.Operation != ""
}

// Classifier maps one free-text utterance to an Intent. Implementations must
// never guess values for required arguments they could not extract; when in
// doubt they return a clarification message instead.
type Classifier interface {
	Classify(ctx context.Context, input string) (*Intent, error)
}

// Result is the uniform envelope every tool invocation produces, success or
// failure. Callers never have to distinguish "tool failed" from "tool threw".
type Result struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Executor validates extracted arguments against an operation's schema and
// invokes the task store on behalf of the owner.
type Executor interface {
	Execute(ctx context.Context, op Operation, rawArgs map[string]any, ownerID uuid.UUID) Result
}

// ArgSpec describes one argument of an operation schema.
type ArgSpec struct {
	Name        string
	Type        string // "string" or "integer"
	Required    bool
	Enum        []string
	Description string
}

// OperationSchema declares an operation's arguments.
type OperationSchema struct {
	Name        Operation
	Description string
	Args        []ArgSpec
}

var statusLiterals = []string{"pending", "in_progress", "completed"}
var priorityLiterals = []string{"low", "medium", "high", "critical"}

// registry declares the five operations and their schemas.
var registry = []OperationSchema{
	{
		Name:        OpTaskCreate,
		Description: "Create a new task",
		Args: []ArgSpec{
			{Name: "title", Type: "string", Required: true, Description: "Title of the task"},
			{Name: "description", Type: "string", Description: "Description of the task"},
			{Name: "priority", Type: "string", Enum: priorityLiterals, Description: "Priority of the task"},
			{Name: "due_date", Type: "string", Description: "Due date for the task in ISO format"},
		},
	},
	{
		Name:        OpTaskList,
		Description: "List tasks for the user",
		Args: []ArgSpec{
			{Name: "status_filter", Type: "string", Enum: statusLiterals, Description: "Filter tasks by status"},
			{Name: "priority_filter", Type: "string", Enum: priorityLiterals, Description: "Filter tasks by priority"},
			{Name: "limit", Type: "integer", Description: "Number of tasks to return"},
			{Name: "offset", Type: "integer", Description: "Offset for pagination"},
		},
	},
	{
		Name:        OpTaskUpdate,
		Description: "Update an existing task; only include fields the user mentioned",
		Args: []ArgSpec{
			{Name: "task_id", Type: "string", Required: true, Description: "ID of the task to update"},
			{Name: "title", Type: "string", Description: "New title for the task"},
			{Name: "description", Type: "string", Description: "New description for the task"},
			{Name: "status", Type: "string", Enum: statusLiterals, Description: "New status for the task"},
			{Name: "priority", Type: "string", Enum: priorityLiterals, Description: "New priority for the task"},
			{Name: "due_date", Type: "string", Description: "New due date for the task in ISO format"},
		},
	},
	{
		Name:        OpTaskDelete,
		Description: "Delete a task",
		Args: []ArgSpec{
			{Name: "task_id", Type: "string", Required: true, Description: "ID of the task to delete"},
		},
	},
	{
		Name:        OpTaskComplete,
		Description: "Mark a task as completed",
		Args: []ArgSpec{
			{Name: "task_id", Type: "string", Required: true, Description: "ID of the task to mark as completed"},
		},
	},
}

// LookupSchema returns the schema for an operation name, if it is one of the
// five.
func LookupSchema(name Operation) (OperationSchema, bool) {
	for _, schema := range registry {
		if schema.Name == name {
			return schema, true
		}
	}
	return OperationSchema{}, false
}

// Schemas returns the full registry in declaration order.
func Schemas() []OperationSchema {
	return registry
}
