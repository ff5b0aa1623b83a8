package agent

import (
	"context"
	"fmt"

	"github.com/m2tx/kimap_agent/internal/model"
	"google.golang.org/genai"
)

// CompletionRequest is one call to the completion service.
type CompletionRequest struct {
	History           []model.Content
	Functions         []*FunctionDeclaration
	SystemInstruction string
}

// Completion is the first candidate returned by the model. Content is nil
// when the model returned no candidate.
type Completion struct {
	Content *model.Content
}

// Completer produces the next model turn for a conversation.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// GenerationConfig holds the sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
}

// GeminiCompleter is a Completer backed by the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
	config GenerationConfig
}

func NewGeminiCompleter(client *genai.Client, model string, config GenerationConfig) *GeminiCompleter {
	return &GeminiCompleter{
		client: client,
		model:  model,
		config: config,
	}
}

func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, toGenAIContents(req.History), g.contentConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}

		content := toModelContent(candidate.Content)
		content.Role = model.RoleModel
		return &Completion{Content: &content}, nil
	}

	return &Completion{}, nil
}

func (g *GeminiCompleter) contentConfig(req CompletionRequest) *genai.GenerateContentConfig {
	temperature := g.config.Temperature
	topP := g.config.TopP

	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		TopP:            &topP,
		MaxOutputTokens: g.config.MaxOutputTokens,
		Tools:           toGenAITools(req.Functions),
	}

	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}

	return config
}

func toGenAITools(declarations []*FunctionDeclaration) []*genai.Tool {
	if len(declarations) == 0 {
		return nil
	}

	functions := make([]*genai.FunctionDeclaration, 0, len(declarations))
	for _, fd := range declarations {
		functions = append(functions, &genai.FunctionDeclaration{
			Name:                 fd.Name,
			Description:          fd.Description,
			ParametersJsonSchema: fd.ParametersSchema,
		})
	}

	return []*genai.Tool{
		{
			FunctionDeclarations: functions,
		},
	}
}

// genAIRole maps a stored role to the wire role. Gemini only knows user and
// model; function responses travel as user turns.
func genAIRole(role string) string {
	if role == model.RoleFunction {
		return genai.RoleUser
	}
	return role
}

// toModelContent converts a genai turn to the stored representation.
func toModelContent(c *genai.Content) model.Content {
	mc := model.Content{Role: c.Role, Parts: make([]model.Part, 0, len(c.Parts))}
	for _, p := range c.Parts {
		if p == nil {
			continue
		}
		mp := model.Part{Text: p.Text}
		if p.FunctionCall != nil {
			mp.FunctionCall = &model.FunctionCall{
				ID:   p.FunctionCall.ID,
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			}
		}
		if p.FunctionResponse != nil {
			mp.FunctionResponse = &model.FunctionResponse{
				ID:       p.FunctionResponse.ID,
				Name:     p.FunctionResponse.Name,
				Response: p.FunctionResponse.Response,
			}
		}
		mc.Parts = append(mc.Parts, mp)
	}
	return mc
}

// toGenAIContents converts stored history to genai contents.
func toGenAIContents(contents []model.Content) []*genai.Content {
	result := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		gc := &genai.Content{Role: genAIRole(c.Role), Parts: make([]*genai.Part, 0, len(c.Parts))}
		for _, p := range c.Parts {
			gp := &genai.Part{Text: p.Text}
			if p.FunctionCall != nil {
				gp.FunctionCall = &genai.FunctionCall{
					ID:   p.FunctionCall.ID,
					Name: p.FunctionCall.Name,
					Args: p.FunctionCall.Args,
				}
			}
			if p.FunctionResponse != nil {
				gp.FunctionResponse = &genai.FunctionResponse{
					ID:       p.FunctionResponse.ID,
					Name:     p.FunctionResponse.Name,
					Response: p.FunctionResponse.Response,
				}
			}
			gc.Parts = append(gc.Parts, gp)
		}
		result = append(result, gc)
	}
	return result
}
