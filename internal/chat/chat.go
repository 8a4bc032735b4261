// Package chat defines the collaborator contract for the AI assistant that
// answers free-text questions about a loaded model.
package chat

import (
	"context"

	"github.com/ifc-analysis/backend/internal/models"
)

// Source points at a model element that supports an answer.
type Source struct {
	GUID   string `json:"guid"`
	StepID int    `json:"stepId"`
	Entity string `json:"entity"`
	Path   string `json:"path"`
}

// Answer is the assistant's reply.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Service answers questions about a model index. Implementations own prompt
// construction and the upstream AI call; the core only hands over the index
// and filename.
type Service interface {
	Ask(ctx context.Context, index *models.ModelIndex, filename, message string) (*Answer, error)
}

// Disabled is the fallback Service when no AI backend is configured. It
// answers with an explanatory message instead of failing, preserving the
// response contract.
type Disabled struct{}

// Ask implements Service.
func (Disabled) Ask(_ context.Context, _ *models.ModelIndex, _, _ string) (*Answer, error) {
	return &Answer{
		Answer:  "O assistente de IA não está configurado neste servidor.",
		Sources: []Source{},
	}, nil
}
