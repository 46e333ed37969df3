// Package obfuscate turns failure traces into behavioral feedback that does
// not reveal file names, line numbers or code identifiers.
package obfuscate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bgricker/specdrive/internal/llm"
	"github.com/bgricker/specdrive/internal/report"
)

// Feedback is the translated text and whether the rule-based fallback
// produced it.
type Feedback struct {
	Text     string `json:"text" yaml:"text"`
	Fallback bool   `json:"fallback" yaml:"fallback"`
}

// Translator asks a generative service to rewrite failures and falls back to
// Fallback when the service cannot answer.
type Translator struct {
	gen    llm.Generator
	logger *zap.Logger
}

// New creates a Translator. A nil generator always takes the fallback path.
func New(gen llm.Generator, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{gen: gen, logger: logger}
}

// Translate returns feedback for every failure in rep. It never fails: any
// generative error results in the deterministic fallback text. A report
// without failures yields empty feedback and no generative call.
func (t *Translator) Translate(ctx context.Context, rep report.EvaluationReport) Feedback {
	if len(rep.Failures) == 0 {
		return Feedback{}
	}
	if t.gen == nil {
		return Feedback{Text: Fallback(rep), Fallback: true}
	}

	t.logger.Info("translating failures into behavioral feedback", zap.Int("failures", len(rep.Failures)))
	text, err := t.gen.Generate(ctx, BuildPrompt(rep.Failures))
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = fmt.Errorf("%w: empty feedback", llm.ErrMalformed)
		}
	}
	if err != nil {
		t.logger.Warn("obfuscation failed, using rule-based feedback", zap.Error(err))
		return Feedback{Text: Fallback(rep), Fallback: true}
	}
	return Feedback{Text: text}
}
