package domain

// EmotionalState is a coarse mood tag attached to a message or session.
type EmotionalState string

const (
	StateAnxious   EmotionalState = "anxious"
	StateDepressed EmotionalState = "depressed"
	StateStressed  EmotionalState = "stressed"
	StateCalm      EmotionalState = "calm"
	StateNeutral   EmotionalState = "neutral"
	StateUnknown   EmotionalState = "unknown"
)

// MergeSource identifies which generator dominated the final reply.
type MergeSource string

const (
	SourceCustom MergeSource = "custom"
	SourceRemote MergeSource = "remote"
	SourceHybrid MergeSource = "hybrid"
)

// ResponseMetadata records how the final reply was assembled.
// SimilarityScore is nil unless the merge policy actually computed one.
type ResponseMetadata struct {
	PrimarySource    MergeSource `json:"primarySource"`
	CustomConfidence *float64    `json:"customConfidence,omitempty"`
	SimilarityScore  *float64    `json:"similarityScore,omitempty"`
}

// ResponsePackage is the orchestrator's per-turn output. It is not persisted
// beyond the Turn it produced.
type ResponsePackage struct {
	Text           string           `json:"text"`
	EmotionalState EmotionalState   `json:"emotionalState"`
	Metadata       ResponseMetadata `json:"metadata"`
}
