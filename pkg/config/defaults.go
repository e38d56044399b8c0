package config

import "time"

// Defaults contains the system-wide tunables named in spec §6:
// coach_model/judge_model/embedding_model are provider names resolved
// through LLMProviderRegistry, everything else is a scalar.
type Defaults struct {
	// CoachModel, JudgeModel, EmbeddingModel name entries in LLMProviderRegistry.
	CoachModel     string `yaml:"coach_model" validate:"required"`
	JudgeModel     string `yaml:"judge_model" validate:"required"`
	EmbeddingModel string `yaml:"embedding_model" validate:"required"`

	// MaxChatTurns is the snapshot-level cap (default 15).
	MaxChatTurns int `yaml:"max_chat_turns" validate:"omitempty,min=1"`

	// ChatHistoryWindow is the completed-message count fed into the coach
	// prompt (default 6).
	ChatHistoryWindow int `yaml:"chat_history_window" validate:"omitempty,min=2"`

	// EvidenceAnchorLen is the head/tail anchor length used by the
	// evidence verifier's stage 3 (default 25).
	EvidenceAnchorLen int `yaml:"evidence_anchor_len" validate:"omitempty,min=1"`

	// EvidenceSearchWindow bounds the gap between head and tail anchors
	// (default 2000).
	EvidenceSearchWindow int `yaml:"evidence_search_window" validate:"omitempty,min=1"`

	// JudgeStageTimeout is the per-stage LLM deadline for Stage-1/Stage-2.
	JudgeStageTimeout time.Duration `yaml:"judge_stage_timeout"`

	// LLMLogPath is the JSON-lines usage sink path.
	LLMLogPath string `yaml:"llm_log_path" validate:"required"`
}

// ApplyBuiltinDefaults fills any unset scalar field with the built-in
// default named in spec §6. CoachModel/JudgeModel/EmbeddingModel/LLMLogPath
// have no built-in default — they must come from YAML or env.
func (d *Defaults) ApplyBuiltinDefaults() {
	if d.MaxChatTurns == 0 {
		d.MaxChatTurns = 15
	}
	if d.ChatHistoryWindow == 0 {
		d.ChatHistoryWindow = 6
	}
	if d.EvidenceAnchorLen == 0 {
		d.EvidenceAnchorLen = 25
	}
	if d.EvidenceSearchWindow == 0 {
		d.EvidenceSearchWindow = 2000
	}
	if d.JudgeStageTimeout == 0 {
		d.JudgeStageTimeout = 90 * time.Second
	}
}
