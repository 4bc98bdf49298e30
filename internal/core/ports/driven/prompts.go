package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptGroundedAnswer asks the model to answer only from the supplied context
	// and to reply NOT_FOUND otherwise.
	// The template expects %s (context) then %s (question).
	PromptGroundedAnswer = "grounded_answer"

	// PromptVerifyAnswer asks the model to classify a draft as ACCURATE, PARTIAL or INACCURATE.
	// The template expects %s (context), %s (question) then %s (draft answer).
	PromptVerifyAnswer = "verify_answer"
)
