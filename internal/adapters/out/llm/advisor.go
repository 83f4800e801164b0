package llm

import (
	"context"
	"fmt"
	"log/slog"

	"pharmadelivery/internal/core/ports"

	"github.com/openai/openai-go"
)

const advisorPrompt = `Tu es l'assistant d'un service de livraison de pharmacie à Abidjan.
Réponds en français, en trois phrases au plus, à des questions de santé générales.
Ne pose jamais de diagnostic et ne prescris aucun médicament soumis à ordonnance.
En cas de symptôme grave, conseille de consulter un médecin ou d'appeler le 185 (SAMU).`

// Advisor answers free-text health questions.
type Advisor struct {
	completer completer
	logger    *slog.Logger
}

var _ ports.Advisor = (*Advisor)(nil)

func NewAdvisor(cfg Config, logger *slog.Logger) (*Advisor, error) {
	c, err := newCompleter(cfg)
	if err != nil {
		return nil, err
	}
	return &Advisor{completer: c, logger: logger.With("component", "llm_advisor")}, nil
}

func (a *Advisor) Advise(ctx context.Context, question string) (string, error) {
	answer, err := a.completer.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(advisorPrompt),
		openai.UserMessage(question),
	})
	if err != nil {
		a.logger.WarnContext(ctx, "completion failed", "error", err)
		return "", fmt.Errorf("advise: %w", err)
	}
	return answer, nil
}
