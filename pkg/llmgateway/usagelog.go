package llmgateway

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mentormind/mentormind/pkg/config"
)

// UsageRecord is the structured record emitted for every gateway call
// (spec §4.3): one JSON line per call, appended to the usage log sink.
type UsageRecord struct {
	Timestamp        time.Time       `json:"timestamp"`
	Provider         string          `json:"provider"`
	Model            string          `json:"model"`
	Purpose          config.LLMPurpose `json:"purpose"`
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	Duration         time.Duration   `json:"duration"`
	Success          bool            `json:"success"`
	Error            string          `json:"error,omitempty"`
}

// UsageSink appends UsageRecords as JSON lines to a file. Safe for
// concurrent use; one mutex serializes writes the way a single append-only
// log file requires.
type UsageSink struct {
	mu   sync.Mutex
	path string
}

// NewUsageSink opens (creating if absent) the JSON-lines file at path.
func NewUsageSink(path string) (*UsageSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("llmgateway: open usage log: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("llmgateway: close usage log after create: %w", err)
	}
	return &UsageSink{path: path}, nil
}

// Append writes one UsageRecord as a single JSON line.
func (s *UsageSink) Append(rec UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("llmgateway: open usage log for append: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("llmgateway: encode usage record: %w", err)
	}
	return nil
}
