package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	apperrors "taskpilot/internal/errors"
)

const (
	classifierModelName = "gemini-1.5-flash-latest"

	// classifyTimeout bounds every outbound model call.
	classifyTimeout = 30 * time.Second

	classifierSystemInstruction = "You are a helpful assistant that manages tasks for users. " +
		"Use the available functions to create, list, update, delete, or complete tasks. " +
		"When a user wants to create a task, extract the title, description, priority, and due date. " +
		"When a user wants to list tasks, decide if they want to filter by status or priority. " +
		"When a user wants to update a task, identify the task ID and only the fields they mentioned. " +
		"Never invent a value for a required argument you cannot extract from the user's message; " +
		"if you cannot determine the appropriate function or a required argument, ask the user for clarification instead."
)

// GeminiClassifier maps utterances to intents with Gemini function calling.
// The five operation schemas are declared to the model as tools.
type GeminiClassifier struct {
	client *genai.Client
}

// NewGeminiClassifier creates a classifier backed by the Gemini API.
func NewGeminiClassifier(ctx context.Context, apiKey string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClassifier{client: client}, nil
}

// Close releases the underlying client.
func (g *GeminiClassifier) Close() {
	if g.client != nil {
		if err := g.client.Close(); err != nil {
			log.Printf("close genai client: %v", err)
		}
	}
}

// Classify sends the utterance to the model with the tool declarations and
// returns either a single function call or the model's text reply. Transport
// failures surface as NetworkError.
func (g *GeminiClassifier) Classify(ctx context.Context, input string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	model := g.client.GenerativeModel(classifierModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(classifierSystemInstruction)},
	}
	model.Tools = registryTools()
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode: genai.FunctionCallingAuto,
		},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &Intent{Message: "I couldn't generate a response, please try rephrasing."}, nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			args := p.Args
			if args == nil {
				args = map[string]any{}
			}
			return &Intent{Operation: Operation(p.Name), Arguments: args}, nil
		case genai.Text:
			text.WriteString(string(p))
		}
	}

	if text.Len() == 0 {
		return &Intent{Message: "I couldn't generate a response, please try rephrasing."}, nil
	}
	return &Intent{Message: strings.TrimSpace(text.String())}, nil
}

// registryTools converts the operation registry into genai tool declarations.
func registryTools() []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(Schemas()))
	for _, schema := range Schemas() {
		properties := make(map[string]*genai.Schema, len(schema.Args))
		var required []string
		for _, arg := range schema.Args {
			property := &genai.Schema{
				Type:        genaiType(arg.Type),
				Description: arg.Description,
			}
			if len(arg.Enum) > 0 {
				property.Enum = arg.Enum
			}
			properties[arg.Name] = property
			if arg.Required {
				required = append(required, arg.Name)
			}
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        string(schema.Name),
			Description: schema.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func genaiType(argType string) genai.Type {
	if argType == "integer" {
		return genai.TypeInteger
	}
	return genai.TypeString
}
