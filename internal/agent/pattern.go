package agent

import (
	"context"
	"regexp"
	"strings"
)

// PatternClassifier is a deterministic, offline intent classifier. It stands
// in for the Gemini classifier when no API key is configured and gives tests
// a classifier with zero remote dependencies. It only ever extracts arguments
// that literally appear in the utterance; when nothing matches it asks for
// clarification.
type PatternClassifier struct{}

// NewPatternClassifier creates a new pattern-based classifier.
func NewPatternClassifier() *PatternClassifier {
	return &PatternClassifier{}
}

var (
	greetingRe = regexp.MustCompile(`(?i)^\s*(hello|hi|hey|good (morning|afternoon|evening)|thanks|thank you)[\s!.,]*$`)

	completeRe = regexp.MustCompile(`(?i)\b(?:mark|set)\s+task\s+(\S+)\s+as\s+(?:done|completed?)\b|(?i)\b(?:complete|finish)\s+task\s+(\S+)`)
	deleteRe   = regexp.MustCompile(`(?i)\b(?:delete|remove)\s+task\s+(\S+)`)
	updateRe   = regexp.MustCompile(`(?i)\b(?:update|change|rename|edit)\s+task\s+(\S+)`)
	listRe     = regexp.MustCompile(`(?i)\b(?:list|show)\b.*\btasks?\b`)
	createRe   = regexp.MustCompile(`(?i)\b(?:create|add|new)\s+(?:a\s+)?task\b(?:\s+(?:called|titled|named|to|for))?\s*(.*)$`)

	titleToRe    = regexp.MustCompile(`(?i)\btitle\s+to\s+"([^"]+)"|(?i)\btitle\s+to\s+(\S.*)$`)
	priorityRe   = regexp.MustCompile(`(?i)\b(low|medium|high|critical)\s+priority\b|(?i)\bpriority\s+(?:to\s+)?(low|medium|high|critical)\b`)
	statusRe     = regexp.MustCompile(`(?i)\bstatus\s+(?:to\s+)?(pending|in_progress|completed)\b`)
	inProgressRe = regexp.MustCompile(`(?i)\b(?:in progress|started|working on)\b`)
	completedRe  = regexp.MustCompile(`(?i)\b(?:completed|done|finished)\b`)
	pendingRe    = regexp.MustCompile(`(?i)\bpending\b`)
	quotedRe     = regexp.MustCompile(`"([^"]+)"`)
)

// Classify maps the utterance against a fixed pattern table, most specific
// first.
func (p *PatternClassifier) Classify(ctx context.Context, input string) (*Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &Intent{Message: "What would you like to do with your tasks?"}, nil
	}

	if greetingRe.MatchString(trimmed) {
		return &Intent{Message: "Hello! I can create, list, update, delete or complete your tasks. What would you like to do?"}, nil
	}

	if m := completeRe.FindStringSubmatch(trimmed); m != nil {
		return toolIntent(OpTaskComplete, map[string]any{"task_id": firstGroup(m)}), nil
	}

	if m := deleteRe.FindStringSubmatch(trimmed); m != nil {
		return toolIntent(OpTaskDelete, map[string]any{"task_id": firstGroup(m)}), nil
	}

	if m := updateRe.FindStringSubmatch(trimmed); m != nil {
		args := map[string]any{"task_id": firstGroup(m)}
		// Only fields literally mentioned make it into the arguments.
		if tm := titleToRe.FindStringSubmatch(trimmed); tm != nil {
			args["title"] = firstGroup(tm)
		}
		if pm := priorityRe.FindStringSubmatch(trimmed); pm != nil {
			args["priority"] = strings.ToLower(firstGroup(pm))
		}
		if sm := statusRe.FindStringSubmatch(trimmed); sm != nil {
			args["status"] = strings.ToLower(firstGroup(sm))
		}
		if len(args) == 1 {
			return &Intent{Message: "What would you like to change on that task?"}, nil
		}
		return toolIntent(OpTaskUpdate, args), nil
	}

	if listRe.MatchString(trimmed) {
		args := map[string]any{}
		switch {
		case completedRe.MatchString(trimmed):
			args["status_filter"] = "completed"
		case inProgressRe.MatchString(trimmed):
			args["status_filter"] = "in_progress"
		case pendingRe.MatchString(trimmed):
			args["status_filter"] = "pending"
		}
		if pm := priorityRe.FindStringSubmatch(trimmed); pm != nil {
			args["priority_filter"] = strings.ToLower(firstGroup(pm))
		}
		return toolIntent(OpTaskList, args), nil
	}

	if m := createRe.FindStringSubmatch(trimmed); m != nil {
		title := strings.TrimSpace(m[1])
		if qm := quotedRe.FindStringSubmatch(trimmed); qm != nil {
			title = qm[1]
		}
		args := map[string]any{}
		if pm := priorityRe.FindStringSubmatch(trimmed); pm != nil {
			args["priority"] = strings.ToLower(firstGroup(pm))
			// Strip the priority phrase out of an unquoted title.
			title = strings.TrimSpace(priorityRe.ReplaceAllString(title, ""))
			title = strings.TrimSuffix(strings.TrimSpace(title), "with")
			title = strings.TrimSpace(title)
		}
		if title == "" {
			// Required argument missing: ask, never guess.
			return &Intent{Message: "What should the task be called?"}, nil
		}
		args["title"] = title
		return toolIntent(OpTaskCreate, args), nil
	}

	return &Intent{Message: "I'm not sure what you'd like me to do. I can create, list, update, delete or complete tasks."}, nil
}

func toolIntent(op Operation, args map[string]any) *Intent {
	return &Intent{Operation: op, Arguments: args}
}

// firstGroup returns the first non-empty capture group.
func firstGroup(match []string) string {
	for _, group := range match[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}
