package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskpilot/internal/agent"
	apperrors "taskpilot/internal/errors"
	"taskpilot/internal/model"
)

const notFoundMessage = "task not found or not owned by caller"

// ToolGateway is the only path from classified intents to the task store. It
// implements agent.Executor.
type ToolGateway struct {
	tasks TaskService
}

var _ agent.Executor = (*ToolGateway)(nil)

// NewToolGateway creates a new tool execution gateway.
func NewToolGateway(tasks TaskService) *ToolGateway {
	return &ToolGateway{tasks: tasks}
}

// Execute looks up the operation schema, validates rawArgs against it, and
// delegates to the task store. Not-found outcomes are expected results, not
// faults.
func (g *ToolGateway) Execute(ctx context.Context, op agent.Operation, rawArgs map[string]any, ownerID uuid.UUID) agent.Result {
	schema, ok := agent.LookupSchema(op)
	if !ok {
		return failure("%s: %s", apperrors.ErrUnknownOperation.Error(), string(op))
	}

	if err := validateArgs(schema, rawArgs); err != nil {
		return failure("%s", err.Error())
	}

	switch op {
	case agent.OpTaskCreate:
		return g.executeCreate(ctx, rawArgs, ownerID)
	case agent.OpTaskList:
		return g.executeList(ctx, rawArgs, ownerID)
	case agent.OpTaskUpdate:
		return g.executeUpdate(ctx, rawArgs, ownerID)
	case agent.OpTaskDelete:
		return g.executeDelete(ctx, rawArgs, ownerID)
	case agent.OpTaskComplete:
		return g.executeComplete(ctx, rawArgs, ownerID)
	default:
		return failure("%s: %s", apperrors.ErrUnknownOperation.Error(), string(op))
	}
}

// createArguments is the typed argument set for task_create.
type createArguments struct {
	Title       string
	Description string
	Priority    model.TaskPriority
	DueDate     *time.Time
}

func (g *ToolGateway) executeCreate(ctx context.Context, rawArgs map[string]any, ownerID uuid.UUID) agent.Result {
	args := createArguments{
		Title:       stringArg(rawArgs, "title"),
		Description: stringArg(rawArgs, "description"),
		Priority:    model.TaskPriority(stringArg(rawArgs, "priority")),
	}
	due, err := dateArg(rawArgs, "due_date")
	if err != nil {
		return failure("%s", err.Error())
	}
	args.DueDate = due

	task, err := g.tasks.Create(ctx, ownerID, TaskCreate{
		Title:       args.Title,
		Description: args.Description,
		Priority:    args.Priority,
		DueDate:     args.DueDate,
	})
	if err != nil {
		return failureFromError(err)
	}
	return agent.Result{Success: true, Result: task}
}

// listArguments is the typed argument set for task_list.
type listArguments struct {
	Status   *model.TaskStatus
	Priority *model.TaskPriority
	Limit    int
	Offset   int
}

func (g *ToolGateway) executeList(ctx context.Context, rawArgs map[string]any, ownerID uuid.UUID) agent.Result {
	args := listArguments{
		Limit:  intArg(rawArgs, "limit"),
		Offset: intArg(rawArgs, "offset"),
	}
	if s := stringArg(rawArgs, "status_filter"); s != "" {
		status := model.TaskStatus(s)
		args.Status = &status
	}
	if p := stringArg(rawArgs, "priority_filter"); p != "" {
		priority := model.TaskPriority(p)
		args.Priority = &priority
	}

	tasks, total, err := g.tasks.List(ctx, ownerID, TaskListQuery{
		Status:   args.Status,
		Priority: args.Priority,
		Limit:    args.Limit,
		Offset:   args.Offset,
	})
	if err != nil {
		return failureFromError(err)
	}
	return agent.Result{Success: true, Result: map[string]any{
		"tasks":       tasks,
		"total_count": total,
	}}
}

// updateArguments is the typed argument set for task_update. Only fields the
// router actually extracted are set; absent fields stay nil.
type updateArguments struct {
	TaskID uuid.UUID
	Update TaskUpdate
}

func (g *ToolGateway) executeUpdate(ctx context.Context, rawArgs map[string]any, ownerID uuid.UUID) agent.Result {
	taskID, ok := taskIDArg(rawArgs)
	if !ok {
		return failure(notFoundMessage)
	}

	args := updateArguments{TaskID: taskID}
	if _, present := rawArgs["title"]; present {
		title := stringArg(rawArgs, "title")
		args.Update.Title = &title
	}
	if _, present := rawArgs["description"]; present {
		description := stringArg(rawArgs, "description")
		args.Update.Description = &description
	}
	if _, present := rawArgs["status"]; present {
		status := model.TaskStatus(stringArg(rawArgs, "status"))
		args.Update.Status = &status
	}
	if _, present := rawArgs["priority"]; present {
		priority := model.TaskPriority(stringArg(rawArgs, "priority"))
		args.Update.Priority = &priority
	}
	if _, present := rawArgs["due_date"]; present {
		due, err := dateArg(rawArgs, "due_date")
		if err != nil {
			return failure("%s", err.Error())
		}
		args.Update.DueDate = due
	}

	task, err := g.tasks.Update(ctx, args.TaskID, ownerID, args.Update)
	if err != nil {
		return failureFromError(err)
	}
	if task == nil {
		return failure(notFoundMessage)
	}
	return agent.Result{Success: true, Result: task}
}

func (g *ToolGateway) executeDelete(ctx context.Context, rawArgs map[string]any, ownerID uuid.UUID) agent.Result {
	taskID, ok := taskIDArg(rawArgs)
	if !ok {
		return failure(notFoundMessage)
	}

	deleted, err := g.tasks.Delete(ctx, taskID, ownerID)
	if err != nil {
		return failureFromError(err)
	}
	if !deleted {
		return failure(notFoundMessage)
	}
	return agent.Result{Success: true, Result: map[string]any{"message": "task deleted"}}
}

func (g *ToolGateway) executeComplete(ctx context.Context, rawArgs map[string]any, ownerID uuid.UUID) agent.Result {
	taskID, ok := taskIDArg(rawArgs)
	if !ok {
		return failure(notFoundMessage)
	}

	task, err := g.tasks.Complete(ctx, taskID, ownerID)
	if err != nil {
		return failureFromError(err)
	}
	if task == nil {
		return failure(notFoundMessage)
	}
	return agent.Result{Success: true, Result: task}
}

// validateArgs checks required fields and enum literals against the schema.
func validateArgs(schema agent.OperationSchema, rawArgs map[string]any) error {
	for _, spec := range schema.Args {
		value, present := rawArgs[spec.Name]
		if !present {
			if spec.Required {
				return apperrors.NewValidation("missing required field %q", spec.Name)
			}
			continue
		}
		if len(spec.Enum) > 0 {
			literal, ok := value.(string)
			if !ok || !containsString(spec.Enum, literal) {
				return apperrors.NewValidation("invalid value for %q, accepted: %v", spec.Name, spec.Enum)
			}
		}
	}
	return nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// taskIDArg parses the task_id argument. A malformed id cannot exist, so it
// reads as not-found rather than a validation fault.
func taskIDArg(rawArgs map[string]any) (uuid.UUID, bool) {
	id, err := uuid.Parse(stringArg(rawArgs, "task_id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func stringArg(rawArgs map[string]any, name string) string {
	if v, ok := rawArgs[name].(string); ok {
		return v
	}
	return ""
}

// intArg accepts both JSON numbers (float64) and native ints.
func intArg(rawArgs map[string]any, name string) int {
	switch v := rawArgs[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func dateArg(rawArgs map[string]any, name string) (*time.Time, error) {
	raw := stringArg(rawArgs, name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewValidation("invalid %s %q, expected ISO format", name, raw)
}

func failure(format string, args ...any) agent.Result {
	return agent.Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// failureFromError keeps validation messages verbatim and collapses anything
// unexpected into an opaque error.
func failureFromError(err error) agent.Result {
	if apperrors.IsValidation(err) {
		return agent.Result{Success: false, Error: err.Error()}
	}
	return agent.Result{Success: false, Error: "unexpected error"}
}
