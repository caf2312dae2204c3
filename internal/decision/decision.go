// Package decision keeps an append-only log of analysis decisions and
// renders it as a report.
package decision

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/NielsdaWheelz/toth/internal/core"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/store"
)

// idLen is the number of hex characters kept from the record UUID.
const idLen = 8

// Handle identifies an initialized log.
type Handle struct {
	Path       string
	AnalysisID string
}

// Input is one decision as supplied by the analyst.
type Input struct {
	Check       string `validate:"max=2000"`
	Observation string `validate:"max=2000"`
	Decision    string `validate:"required,max=2000"`
	Reasoning   string `validate:"max=4000"`
	Evidence    string `validate:"omitempty,max=1024"` // path or URL
}

var validate = validator.New()

// Init creates the log for analysisID.
// Fails with E_VALIDATION for an empty id or one without letters or digits,
// E_PERSIST_FAILED when the directory cannot be created and
// E_DECISION_LOG_EXISTS when the log file exists, including when another
// analysis id already owns the same file name.
func Init(s *store.Store, analysisID, analyst, description string) (Handle, error) {
	analysisID = strings.TrimSpace(analysisID)
	if analysisID == "" {
		return Handle{}, errors.New(errors.EValidation, "analysis id is required")
	}
	if store.Stem(analysisID) == core.DefaultStem && !strings.EqualFold(analysisID, core.DefaultStem) {
		return Handle{}, errors.NewWithDetails(errors.EValidation, "analysis id must contain a letter or digit",
			map[string]string{"analysis_id": analysisID})
	}
	log := store.NewDecisionLog(analysisID, strings.TrimSpace(analyst), description, s.Now())
	path, err := s.CreateLog(log)
	if err != nil {
		return Handle{}, err
	}
	return Handle{Path: path, AnalysisID: analysisID}, nil
}

// Open returns the handle of an existing log.
func Open(s *store.Store, analysisID string) (Handle, *store.DecisionLog, error) {
	log, err := s.ReadLog(analysisID)
	if err != nil {
		return Handle{}, nil, err
	}
	return Handle{Path: s.LogPath(analysisID), AnalysisID: log.AnalysisID}, log, nil
}

// Record appends in to the log. The whole file is read and rewritten; a
// concurrent writer can lose this update.
func Record(s *store.Store, h Handle, in Input) (store.DecisionRecord, error) {
	if err := in.Validate(); err != nil {
		return store.DecisionRecord{}, err
	}

	now := s.Now().UTC()
	rec := store.DecisionRecord{
		ID:          RecordID(in, now),
		Timestamp:   now.Format(time.RFC3339),
		Check:       in.Check,
		Observation: in.Observation,
		Decision:    in.Decision,
		Reasoning:   in.Reasoning,
		Evidence:    in.Evidence,
	}

	_, err := s.UpdateLog(h.AnalysisID, func(l *store.DecisionLog) error {
		l.Decisions = append(l.Decisions, rec)
		return nil
	})
	if err != nil {
		return store.DecisionRecord{}, err
	}
	return rec, nil
}

// Validate checks field presence and length.
func (in Input) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		return errors.NewWithDetails(errors.EValidation, "invalid decision: "+field+" failed "+fe.Tag(),
			map[string]string{"field": field, "rule": fe.Tag()})
	}
	return errors.Wrap(errors.EValidation, "invalid decision", err)
}

// RecordID derives a short id from the record content and its timestamp.
// The same content recorded at the same instant yields the same id.
func RecordID(in Input, at time.Time) string {
	content := strings.Join([]string{
		in.Check, in.Observation, in.Decision, in.Reasoning, in.Evidence,
		at.UTC().Format(time.RFC3339Nano),
	}, "\x1f")
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(content))
	return strings.ReplaceAll(id.String(), "-", "")[:idLen]
}

// Summary is the short status shown by the CLI.
type Summary struct {
	AnalysisID string
	Analyst    string
	Count      int
	LatestID   string
	LatestAt   string
}

// Summarize reports the number of decisions and the latest one.
func Summarize(log *store.DecisionLog) Summary {
	sum := Summary{AnalysisID: log.AnalysisID, Analyst: log.Analyst, Count: len(log.Decisions)}
	if n := len(log.Decisions); n > 0 {
		sum.LatestID = log.Decisions[n-1].ID
		sum.LatestAt = log.Decisions[n-1].Timestamp
	}
	return sum
}
