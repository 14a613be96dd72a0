package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/lehuyminh/wallet-assistant/internal/model"
)

// Phraser rewrites a deterministic confirmation into friendlier prose. It is
// optional and purely cosmetic; callers fall back to the template whenever it
// fails.
type Phraser interface {
	Rephrase(ctx context.Context, draft string) (string, error)
}

// ModelPhraser rephrases through the same text generator used for intent
// extraction. It costs one extra model call per confirmation.
type ModelPhraser struct {
	gen model.Generator
}

// NewModelPhraser creates a phraser backed by gen.
func NewModelPhraser(gen model.Generator) *ModelPhraser {
	return &ModelPhraser{gen: gen}
}

const rephrasePrompt = `Rewrite the following confirmation message in the same language,
warm and conversational, without changing any number, wallet name or category.
Reply with the rewritten message only, no quotes, no JSON.

Message: %s`

// Rephrase implements Phraser.
func (p *ModelPhraser) Rephrase(ctx context.Context, draft string) (string, error) {
	out, err := p.gen.Generate(ctx, fmt.Sprintf(rephrasePrompt, draft))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	// A reply that smells like JSON means the model ignored the instructions;
	// the template is safer.
	if out == "" || strings.HasPrefix(out, "{") {
		return "", fmt.Errorf("chat: unusable rephrase output")
	}
	return out, nil
}
