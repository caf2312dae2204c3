package store

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
)

// SchemaVersion is written into every new log.
const SchemaVersion = "1.0"

// DecisionLog is the persisted form of one analysis's decisions.
type DecisionLog struct {
	SchemaVersion string           `yaml:"schema_version"`
	AnalysisID    string           `yaml:"analysis_id"`
	Analyst       string           `yaml:"analyst"`
	Description   string           `yaml:"description,omitempty"`
	CreatedAt     string           `yaml:"created_at"` // RFC3339 UTC
	Decisions     []DecisionRecord `yaml:"decisions"`
}

// DecisionRecord is one appended judgement call. Records are never edited
// or removed in place.
type DecisionRecord struct {
	ID          string `yaml:"id"`
	Timestamp   string `yaml:"timestamp"` // RFC3339 UTC
	Check       string `yaml:"check"`
	Observation string `yaml:"observation"`
	Decision    string `yaml:"decision"`
	Reasoning   string `yaml:"reasoning"`
	Evidence    string `yaml:"evidence,omitempty"`
}

// NewDecisionLog creates a log with required fields set.
func NewDecisionLog(analysisID, analyst, description string, createdAt time.Time) *DecisionLog {
	return &DecisionLog{
		SchemaVersion: SchemaVersion,
		AnalysisID:    analysisID,
		Analyst:       analyst,
		Description:   description,
		CreatedAt:     createdAt.UTC().Format(time.RFC3339),
		Decisions:     []DecisionRecord{},
	}
}

// CreateLog writes a new log. Fails with E_DECISION_LOG_EXISTS if a log
// for the analysis id is already present, E_PERSIST_FAILED on write errors.
func (s *Store) CreateLog(log *DecisionLog) (string, error) {
	if err := s.EnsureDir(); err != nil {
		return "", err
	}
	path := s.LogPath(log.AnalysisID)

	exists, err := fs.Exists(s.FS, path)
	if err != nil {
		return "", errors.WrapWithDetails(errors.EPersistFailed, "failed to stat decision log", err,
			map[string]string{"log_path": path})
	}
	if exists {
		details := map[string]string{"log_path": path}
		msg := "decision log already exists"
		if stored, err := s.readFile(path); err == nil && stored.AnalysisID != log.AnalysisID {
			msg = "decision log file is already used by analysis " + stored.AnalysisID
			details["stored_analysis_id"] = stored.AnalysisID
		}
		return "", errors.NewWithDetails(errors.EDecisionLogExists, msg, details)
	}

	if err := s.writeLog(path, log); err != nil {
		return "", err
	}
	return path, nil
}

// ReadLog reads and parses a log.
// Returns E_DECISION_LOG_NOT_FOUND if the file doesn't exist or belongs to
// another analysis id with the same file stem.
// Returns E_DECISION_LOG_CORRUPT if the file can't be parsed.
func (s *Store) ReadLog(analysisID string) (*DecisionLog, error) {
	path := s.LogPath(analysisID)
	log, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	if log.AnalysisID != strings.TrimSpace(analysisID) {
		return nil, errors.NewWithDetails(
			errors.EDecisionLogNotFound,
			"no decision log for "+analysisID+" ("+path+" belongs to "+log.AnalysisID+")",
			map[string]string{"log_path": path, "stored_analysis_id": log.AnalysisID},
		)
	}
	return log, nil
}

func (s *Store) readFile(path string) (*DecisionLog, error) {
	data, err := s.FS.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewWithDetails(
				errors.EDecisionLogNotFound,
				"decision log not found (run `toth decision init` first)",
				map[string]string{"log_path": path},
			)
		}
		return nil, errors.WrapWithDetails(
			errors.EDecisionLogCorrupt,
			"failed to read decision log",
			err,
			map[string]string{"log_path": path},
		)
	}

	var log DecisionLog
	if err := yaml.Unmarshal(data, &log); err != nil {
		return nil, errors.WrapWithDetails(
			errors.EDecisionLogCorrupt,
			"failed to parse decision log",
			err,
			map[string]string{"log_path": path},
		)
	}
	if log.AnalysisID == "" {
		return nil, errors.NewWithDetails(
			errors.EDecisionLogCorrupt,
			"decision log has no analysis_id",
			map[string]string{"log_path": path},
		)
	}
	if log.Decisions == nil {
		log.Decisions = []DecisionRecord{}
	}
	return &log, nil
}

// UpdateLog reads, updates, and writes a log atomically.
// The updateFn receives the current log and should modify it in place; an
// error from updateFn aborts without writing.
func (s *Store) UpdateLog(analysisID string, updateFn func(*DecisionLog) error) (*DecisionLog, error) {
	log, err := s.ReadLog(analysisID)
	if err != nil {
		return nil, err
	}
	if err := updateFn(log); err != nil {
		return nil, err
	}
	if err := s.writeLog(s.LogPath(analysisID), log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *Store) writeLog(path string, log *DecisionLog) error {
	if err := fs.WriteYAMLAtomic(s.FS, path, log, 0o644); err != nil {
		return errors.WrapWithDetails(
			errors.EPersistFailed,
			"failed to write decision log atomically",
			err,
			map[string]string{"log_path": path},
		)
	}
	return nil
}
