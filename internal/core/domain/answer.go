package domain

import "strings"

// NotFoundSentinel is the literal the language model emits when the context lacks the answer.
const NotFoundSentinel = "NOT_FOUND"

// Messages returned in place of an answer.
const (
	// NotFoundMessage is returned when no evidence passed the relevance gate
	// or the model reported NOT_FOUND.
	NotFoundMessage = "The answer was not found in the provided document."

	// RefusalMessage replaces a draft that failed verification.
	RefusalMessage = "I could not verify an answer to that question against the available evidence, so I won't guess."
)

// QueryState is a state in the lifecycle of a single question.
type QueryState string

// Query states in order of progression.
const (
	StateReceived        QueryState = "RECEIVED"
	StateRetrieved       QueryState = "RETRIEVED"
	StateGatedPass       QueryState = "GATED_PASS"
	StateGatedFail       QueryState = "GATED_FAIL"
	StateGenerated       QueryState = "GENERATED"
	StateVerifiedOK      QueryState = "VERIFIED_OK"
	StateVerifiedFlagged QueryState = "VERIFIED_FLAGGED"
	StateNotFound        QueryState = "NOT_FOUND"
	StateRefused         QueryState = "REWORDED_REFUSAL"
	StateReturned        QueryState = "RETURNED"
)

// IsTerminal returns true if no further transition follows the state.
func (s QueryState) IsTerminal() bool {
	switch s {
	case StateNotFound, StateRefused, StateReturned:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s QueryState) String() string {
	return string(s)
}

// Verdict is the outcome of verifying a draft answer.
type Verdict string

// Verification verdicts. The first three mirror the labels the model is asked to produce.
const (
	VerdictAccurate   Verdict = "ACCURATE"
	VerdictPartial    Verdict = "PARTIAL"
	VerdictInaccurate Verdict = "INACCURATE"
	VerdictUnchecked  Verdict = "UNCHECKED"
)

// ParseVerdict extracts a verdict from free model output.
// INACCURATE is checked before ACCURATE since it contains it.
func ParseVerdict(s string) (Verdict, bool) {
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(upper, string(VerdictInaccurate)):
		return VerdictInaccurate, true
	case strings.Contains(upper, string(VerdictPartial)):
		return VerdictPartial, true
	case strings.Contains(upper, string(VerdictAccurate)):
		return VerdictAccurate, true
	default:
		return VerdictUnchecked, false
	}
}

// Question is a request to answer from a document or external evidence.
type Question struct {
	// Text is the question.
	Text string

	// DocumentID restricts retrieval to one document. Empty uses external sources.
	DocumentID string

	// AllowExternal lets a document question fall back to external sources
	// when nothing in the document passes the relevance gate.
	AllowExternal bool
}

// VerifiedAnswer is the final response to a question.
// When Grounded is false, Text is a not-found or refusal message, never the draft.
type VerifiedAnswer struct {
	// Text is the answer shown to the user.
	Text string `json:"text"`

	// Grounded is true if Text was produced from and checked against Evidence.
	Grounded bool `json:"grounded"`

	// Evidence is the context the answer was produced from.
	Evidence []Chunk `json:"evidence"`

	// Citations are the external sources behind Evidence, if any.
	Citations []Evidence `json:"citations,omitempty"`

	// Source names where the evidence came from.
	Source string `json:"source,omitempty"`

	// State is the terminal state reached.
	State QueryState `json:"state"`

	// Trace lists every state visited, in order.
	Trace []QueryState `json:"trace"`

	// Verdict is the verification outcome.
	Verdict Verdict `json:"verdict"`

	// Reasons explains why a draft was flagged.
	Reasons []string `json:"reasons,omitempty"`

	// Truncated is true if the context was cut to fit the budget.
	Truncated bool `json:"truncated,omitempty"`
}

// NotFound returns true if the answer reports that nothing relevant was found.
func (a *VerifiedAnswer) NotFound() bool {
	return a != nil && a.State == StateNotFound
}
