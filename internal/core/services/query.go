package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// answerMaxTokens bounds a generated answer.
const answerMaxTokens = 512

// QueryService runs a question through retrieval, the relevance gate,
// generation and verification.
//
// Document questions read the document's index. Questions without a
// document, or document questions that allow it and found nothing, try the
// evidence sources in order until one passes the gate.
type QueryService struct {
	docStore  driven.DocumentStore
	index     *IndexService
	retriever *Retriever
	guard     *HallucinationGuard
	llm       driven.LLMService
	prompts   driven.PromptStore
	sources   []driven.EvidenceSource
	settings  domain.SourceSettings
	policy    RetryPolicy
}

// QueryDeps holds the collaborators of a QueryService.
type QueryDeps struct {
	Documents driven.DocumentStore
	Index     *IndexService
	Retriever *Retriever
	Guard     *HallucinationGuard
	LLM       driven.LLMService
	Prompts   driven.PromptStore
	Sources   []driven.EvidenceSource
	Settings  domain.SourceSettings
}

// NewQueryService creates a query service.
func NewQueryService(deps QueryDeps) *QueryService {
	settings := deps.Settings
	if settings.MaxResults <= 0 {
		settings.MaxResults = domain.DefaultAppSettings().Sources.MaxResults
	}
	return &QueryService{
		docStore:  deps.Documents,
		index:     deps.Index,
		retriever: deps.Retriever,
		guard:     deps.Guard,
		llm:       deps.LLM,
		prompts:   deps.Prompts,
		sources:   deps.Sources,
		settings:  settings,
		policy:    DefaultRetryPolicy(),
	}
}

// run tracks the states visited by one question.
type run struct {
	q     domain.Question
	trace []domain.QueryState
}

func (r *run) enter(s domain.QueryState) {
	r.trace = append(r.trace, s)
}

// Ask answers q. Not found and refusals are answers, not errors.
func (s *QueryService) Ask(ctx context.Context, q domain.Question) (*domain.VerifiedAnswer, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	start := time.Now()
	r := &run{q: q}
	r.enter(domain.StateReceived)

	answer, err := s.ask(ctx, r)
	if err != nil {
		return nil, err
	}
	logger.Debug("ask %s: %s in %s (trace %v)", logger.Redact(q.Text), answer.State,
		time.Since(start).Round(time.Millisecond), answer.Trace)
	return answer, nil
}

func (s *QueryService) ask(ctx context.Context, r *run) (*domain.VerifiedAnswer, error) {
	if r.q.DocumentID != "" {
		res, err := s.retrieveDocument(ctx, r)
		if err != nil {
			return nil, err
		}
		if !res.Empty() {
			return s.answer(ctx, r, res)
		}
		if !r.q.AllowExternal {
			return s.notFound(r, res), nil
		}
	}

	res, err := s.retrieveExternal(ctx, r)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		return s.notFound(r, res), nil
	}
	return s.answer(ctx, r, res)
}

func (s *QueryService) retrieveDocument(ctx context.Context, r *run) (*domain.RetrievalResult, error) {
	doc, err := s.docStore.GetDocument(ctx, r.q.DocumentID)
	if err != nil {
		return nil, domain.NewStageError(domain.StageRetrieve, r.q.DocumentID, len(r.q.Text), err)
	}

	idx, err := s.index.Get(ctx, doc)
	if err != nil {
		return nil, err
	}

	res, err := s.retriever.Retrieve(ctx, idx, r.q.Text)
	if err != nil {
		return nil, err
	}
	r.enter(domain.StateRetrieved)
	s.gated(r, res)
	return res, nil
}

// retrieveExternal tries each source in order and returns the first result
// that passes the gate, or the last empty result. A failing source is
// skipped; results already seen from an earlier source are not retried.
func (s *QueryService) retrieveExternal(ctx context.Context, r *run) (*domain.RetrievalResult, error) {
	last := &domain.RetrievalResult{Query: r.q.Text}
	seen := make(map[string]bool)

	for _, src := range s.sources {
		items, err := src.Search(ctx, r.q.Text, s.settings.MaxResults)
		if err != nil {
			if ctx.Err() != nil {
				return nil, domain.NewStageError(domain.StageSource, "", len(r.q.Text), ctx.Err())
			}
			logger.Warn("source %s: %v", src.Name(), err)
			continue
		}

		fresh := make([]domain.Evidence, 0, len(items))
		for _, item := range items {
			if item.URL != "" && seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			fresh = append(fresh, item)
		}

		res := s.retriever.RetrieveEvidence(r.q.Text, src.Name(), fresh)
		r.enter(domain.StateRetrieved)
		s.gated(r, res)
		if !res.Empty() {
			return res, nil
		}
		last = res
	}

	if r.trace[len(r.trace)-1] == domain.StateReceived {
		r.enter(domain.StateRetrieved)
		r.enter(domain.StateGatedFail)
	}
	return last, nil
}

func (s *QueryService) gated(r *run, res *domain.RetrievalResult) {
	if res.Empty() {
		r.enter(domain.StateGatedFail)
		return
	}
	r.enter(domain.StateGatedPass)
}

// answer generates a draft from the gated context and verifies it.
func (s *QueryService) answer(ctx context.Context, r *run, res *domain.RetrievalResult) (*domain.VerifiedAnswer, error) {
	if s.llm == nil {
		return nil, domain.NewStageError(domain.StageGenerate, r.q.DocumentID, len(r.q.Text), domain.ErrLLMUnavailable)
	}

	template, err := s.prompts.Load(driven.PromptGroundedAnswer)
	if err != nil {
		return nil, domain.NewStageError(domain.StageGenerate, r.q.DocumentID, len(r.q.Text), err)
	}
	prompt := fmt.Sprintf(template, res.Context, r.q.Text)

	var draft string
	err = retry(ctx, s.policy, func(ctx context.Context) error {
		out, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   answerMaxTokens,
			Temperature: 0,
		})
		draft = out
		return err
	})
	if err != nil {
		return nil, domain.NewStageError(domain.StageGenerate, r.q.DocumentID, len(r.q.Text), err)
	}
	r.enter(domain.StateGenerated)

	if isNotFound(draft) {
		return s.notFound(r, res), nil
	}

	verified, err := s.guard.Verify(ctx, r.q.Text, draft, res)
	if err != nil {
		return nil, err
	}

	r.enter(verified.State)
	if verified.State == domain.StateVerifiedFlagged {
		r.enter(domain.StateRefused)
		verified.State = domain.StateRefused
	} else {
		r.enter(domain.StateReturned)
		verified.State = domain.StateReturned
	}
	verified.Trace = r.trace
	return verified, nil
}

func (s *QueryService) notFound(r *run, res *domain.RetrievalResult) *domain.VerifiedAnswer {
	r.enter(domain.StateNotFound)
	return &domain.VerifiedAnswer{
		Text:      domain.NotFoundMessage,
		Grounded:  false,
		Source:    res.Source,
		State:     domain.StateNotFound,
		Trace:     r.trace,
		Verdict:   domain.VerdictUnchecked,
		Truncated: res.Truncated,
	}
}

// isNotFound reports whether the model declined to answer from the context.
func isNotFound(draft string) bool {
	return strings.TrimSpace(draft) == "" || strings.Contains(draft, domain.NotFoundSentinel)
}
