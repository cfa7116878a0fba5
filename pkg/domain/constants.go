package domain

// Well-known Wisdom keys shared by the Facilitator and the prompt templates.
const (
	// KeyCandidate holds the artifact produced by the latest generate, merge or fix pass.
	KeyCandidate = "candidate"

	// KeyBestSoFar holds the artifact the next generate pass should build upon.
	KeyBestSoFar = "bestSoFar"

	// KeySpecification holds the semantic specification the artifact must satisfy.
	KeySpecification = "specification"

	// KeyTargetName identifies the object being generated (used in run IDs).
	KeyTargetName = "targetName"

	// KeyValidationMessage holds the most recent validator error.
	KeyValidationMessage = "validationMessage"

	// KeyValidationHistory holds every validator error seen during the current run.
	KeyValidationHistory = "validationHistory"

	// KeyIteration holds the 1-based attempt number of the current loop pass.
	KeyIteration = "iteration"

	// KeyLatestResponse holds the raw response of a Thinker whose template has no extraction rules.
	KeyLatestResponse = "latestResponse"
)

// SeedPlaceholder marks "no prior artifact" in KeyBestSoFar on the first pass.
const SeedPlaceholder = "(no prior candidate)"
