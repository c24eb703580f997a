package driven

// PromptStore provides access to answering-model prompt templates.
// Implementations may load prompts from files or embed them in the binary.
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
const (
	// PromptAnswer is the answer template. It is a text/template over
	// RepoName, RepoURL, History, Documents, Question, FileCount and FileNames.
	PromptAnswer = "answer"

	// PromptSystem is the system message sent ahead of the answer prompt.
	// This prompt has no placeholders.
	PromptSystem = "system"
)
