package audit

import (
	"time"

	"github.com/ppiankov/toolgate/internal/model"
)

// Level is the severity derived from a decision's effect.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LevelFor derives log severity from an effect: blocks are errors,
// approval requests are warnings, allows are informational. An unknown
// effect maps to error so it cannot hide in the log.
func LevelFor(e model.Effect) Level {
	switch e {
	case model.EffectAllow:
		return LevelInfo
	case model.EffectRequireApproval:
		return LevelWarn
	case model.EffectBlock:
		return LevelError
	}
	return LevelError
}

// LogEntry is one evaluation outcome as emitted by the gate. Exactly one
// is produced per evaluate call, regardless of outcome. In dry-run mode
// the entry records the real decision even though the gate returned
// allow.
type LogEntry struct {
	Timestamp time.Time      `json:"ts"`
	Level     Level          `json:"level"`
	AgentID   string         `json:"agent_id"`
	Tool      model.Tool     `json:"tool"`
	Target    string         `json:"target"`
	Decision  model.Decision `json:"decision"`
	Duration  time.Duration  `json:"duration_ns"`
	DryRun    bool           `json:"dry_run"`
}

// NewLogEntry builds the audit entry for one evaluation.
func NewLogEntry(in *model.Intent, d model.Decision, duration time.Duration, dryRun bool) LogEntry {
	return LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     LevelFor(d.Effect),
		AgentID:   in.AgentID,
		Tool:      in.Tool,
		Target:    in.Target,
		Decision:  d,
		Duration:  duration,
		DryRun:    dryRun,
	}
}

// StoredLogEntry is a LogEntry plus the unique id assigned by the audit
// logger at write time. The gate never assigns ids.
type StoredLogEntry struct {
	ID string `json:"id"`
	LogEntry
}
