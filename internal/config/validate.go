package config

import (
	"strings"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/logging"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
	"github.com/NielsdaWheelz/toth/internal/tools"
)

// Validate checks values and fills the derived fields.
// Returns E_INVALID_CONFIG naming the offending key.
func Validate(cfg Config) (Config, error) {
	policy, err := pipeline.ParsePolicy(strings.TrimSpace(cfg.OnToolFailure))
	if err != nil {
		return cfg, invalid("on_tool_failure", err)
	}
	cfg.Policy = policy
	cfg.OnToolFailure = string(policy)

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return cfg, invalid("log.level", err)
	}
	switch logging.Format(cfg.Log.Format) {
	case logging.FormatText, logging.FormatJSON, "":
	default:
		return cfg, errors.NewWithDetails(errors.EInvalidConfig, "log.format must be text or json",
			map[string]string{"key": "log.format", "value": cfg.Log.Format})
	}

	if cfg.Dvc.MinVersion != "" {
		if _, err := tools.AtLeast(cfg.Dvc.MinVersion, cfg.Dvc.MinVersion); err != nil {
			return cfg, errors.NewWithDetails(errors.EInvalidConfig, "dvc.min_version must look like 3.0.0",
				map[string]string{"key": "dvc.min_version", "value": cfg.Dvc.MinVersion})
		}
	}

	for key, path := range map[string]string{
		"tools.git": cfg.Tools.Git, "tools.dvc": cfg.Tools.Dvc,
		"tools.docker": cfg.Tools.Docker, "tools.quarto": cfg.Tools.Quarto,
	} {
		if path != "" && strings.TrimSpace(path) == "" {
			return cfg, errors.NewWithDetails(errors.EInvalidConfig, key+" must not be blank",
				map[string]string{"key": key})
		}
	}

	if strings.TrimSpace(cfg.Decisions.Dir) == "" {
		return cfg, errors.NewWithDetails(errors.EInvalidConfig, "decisions.dir must not be empty",
			map[string]string{"key": "decisions.dir"})
	}
	return cfg, nil
}

func invalid(key string, err error) error {
	msg := err.Error()
	if te, ok := errors.AsTothError(err); ok {
		msg = te.Msg
	}
	return errors.WrapWithDetails(errors.EInvalidConfig, msg, err, map[string]string{"key": key})
}
