package config

// LLMProviderType identifies which upstream chat-completions wire format a
// provider speaks. MentorMind only ever talks to OpenAI-compatible
// endpoints (see pkg/llmgateway), but the type is kept closed and explicit
// so a provider entry can't silently point at an unsupported wire format.
type LLMProviderType string

const (
	// LLMProviderTypeOpenAI is an OpenAI (or OpenAI-compatible) chat-completions endpoint.
	LLMProviderTypeOpenAI LLMProviderType = "openai"
)

// IsValid reports whether the provider type is supported.
func (t LLMProviderType) IsValid() bool {
	return t == LLMProviderTypeOpenAI
}

// LLMPurpose identifies which of the three logical upstream routes (§4.3 of
// the spec) a call belongs to. Used for usage-log records and per-purpose
// model selection.
type LLMPurpose string

const (
	PurposeJudgeStage1 LLMPurpose = "judge_stage1"
	PurposeJudgeStage2 LLMPurpose = "judge_stage2"
	PurposeCoachChat   LLMPurpose = "coach_chat"
	PurposeEmbedding   LLMPurpose = "embedding"
)

// IsValid reports whether the purpose is one of the known routes.
func (p LLMPurpose) IsValid() bool {
	switch p {
	case PurposeJudgeStage1, PurposeJudgeStage2, PurposeCoachChat, PurposeEmbedding:
		return true
	default:
		return false
	}
}
