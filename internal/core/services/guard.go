package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/lexical"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// DefaultIndicators are phrases that mark a draft as drawing on knowledge
// outside the context. A phrase only counts when the context lacks it.
var DefaultIndicators = []string{
	"as an ai",
	"as a language model",
	"based on my knowledge",
	"based on my training",
	"according to my knowledge",
	"as of my last update",
	"i believe",
	"i think",
	"in my opinion",
	"it is widely believed",
	"it is commonly known",
	"generally speaking",
	"it is likely that",
	"probably",
	"typically",
	"historically",
}

// HallucinationGuard checks a draft answer against the context it was
// generated from. Drafts that fail are replaced with a refusal.
type HallucinationGuard struct {
	llm        driven.LLMService
	prompts    driven.PromptStore
	settings   domain.GuardSettings
	indicators []string
}

// GuardOption configures a HallucinationGuard.
type GuardOption func(*HallucinationGuard)

// WithIndicators replaces the indicator phrase list.
func WithIndicators(phrases []string) GuardOption {
	return func(g *HallucinationGuard) {
		g.indicators = make([]string, 0, len(phrases))
		for _, p := range phrases {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				g.indicators = append(g.indicators, p)
			}
		}
	}
}

// NewHallucinationGuard creates a guard. llm and prompts are only needed
// when settings.VerifyWithLLM is set.
func NewHallucinationGuard(llm driven.LLMService, prompts driven.PromptStore, settings domain.GuardSettings, opts ...GuardOption) *HallucinationGuard {
	g := &HallucinationGuard{
		llm:        llm,
		prompts:    prompts,
		settings:   settings,
		indicators: DefaultIndicators,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Verify checks draft against the retrieved context and returns the answer
// to show. A flagged draft is never returned: Text becomes the refusal
// message and the draft is logged for audit.
func (g *HallucinationGuard) Verify(ctx context.Context, question, draft string, res *domain.RetrievalResult) (*domain.VerifiedAnswer, error) {
	if res.Empty() {
		return nil, fmt.Errorf("%w: cannot verify without context", domain.ErrInvalidInput)
	}

	answer := &domain.VerifiedAnswer{
		Text:      strings.TrimSpace(draft),
		Grounded:  true,
		Evidence:  res.Accepted,
		Citations: res.Citations,
		Source:    res.Source,
		State:     domain.StateVerifiedOK,
		Verdict:   domain.VerdictUnchecked,
		Truncated: res.Truncated,
	}

	reasons := g.Check(draft, res.Context)

	if len(reasons) == 0 && g.settings.VerifyWithLLM && g.llm != nil {
		verdict, err := g.ask(ctx, question, draft, res.Context)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, domain.NewStageError(domain.StageVerify, "", len(question), err)
			}
			logger.Warn("verify: model check failed, keeping heuristic result: %v", err)
		case verdict == domain.VerdictInaccurate:
			reasons = append(reasons, "model judged the answer inaccurate")
			answer.Verdict = verdict
		default:
			answer.Verdict = verdict
		}
	}

	if len(reasons) > 0 {
		logger.Warn("verify: withheld draft %s from %s: %s",
			logger.Redact(answer.Text), res.Source, strings.Join(reasons, "; "))
		answer.Text = domain.RefusalMessage
		answer.Grounded = false
		answer.State = domain.StateVerifiedFlagged
		answer.Reasons = reasons
		if answer.Verdict == domain.VerdictUnchecked {
			answer.Verdict = domain.VerdictInaccurate
		}
	}
	return answer, nil
}

// Check runs the heuristic checks and returns a reason for each failure.
func (g *HallucinationGuard) Check(draft, evidence string) []string {
	var reasons []string
	lowerDraft := strings.ToLower(draft)
	lowerContext := strings.ToLower(evidence)

	if strings.TrimSpace(draft) == "" {
		return []string{"empty answer"}
	}

	for _, phrase := range g.indicators {
		if strings.Contains(lowerDraft, phrase) && !strings.Contains(lowerContext, phrase) {
			reasons = append(reasons, fmt.Sprintf("indicator phrase %q not in context", phrase))
		}
	}

	contextNumbers := lexical.NewSet(lexical.Numbers(evidence)...)
	for _, n := range lexical.Numbers(draft) {
		if !contextNumbers.Has(n) {
			reasons = append(reasons, fmt.Sprintf("number %s not in context", n))
		}
	}

	want := lexical.Keywords(draft)
	if support := lexical.Coverage(want, lexical.Keywords(evidence)); support < g.settings.MinSupport {
		reasons = append(reasons, fmt.Sprintf("only %.0f%% of answer keywords found in context", support*100))
	}
	return reasons
}

// ask runs the model verification pass.
func (g *HallucinationGuard) ask(ctx context.Context, question, draft, evidence string) (domain.Verdict, error) {
	if g.prompts == nil {
		return domain.VerdictUnchecked, fmt.Errorf("no prompt store for %s", driven.PromptVerifyAnswer)
	}
	template, err := g.prompts.Load(driven.PromptVerifyAnswer)
	if err != nil {
		return domain.VerdictUnchecked, err
	}

	out, err := g.llm.Generate(ctx, fmt.Sprintf(template, evidence, question, draft), driven.GenerateOptions{
		MaxTokens:   16,
		Temperature: 0,
	})
	if err != nil {
		return domain.VerdictUnchecked, err
	}

	verdict, ok := domain.ParseVerdict(out)
	if !ok {
		logger.Debug("verify: no verdict in model output %s", logger.Redact(out))
	}
	return verdict, nil
}
