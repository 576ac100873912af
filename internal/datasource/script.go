package datasource

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/script"
	"github.com/spf13/afero"
)

// DefaultScript computes the reference scenario. It is used when no script path is configured.
//
//go:embed scripts/reference.tengo
var DefaultScript string

var errBadResult = errors.New("script result must be an array of period maps")

// scriptInputs are the variables every data source script receives.
var scriptInputs = map[string]interface{}{"start": "", "end": "", "days": 0}

// ScriptSource computes metrics with a Tengo program. The program reads start, end
// and days and assigns an array of {label, spend, impressions, clicks, conversions} to result.
type ScriptSource struct {
	fs      afero.Fs
	path    string
	engine  *script.TengoEngine
	current atomic.Pointer[script.CompiledScript]
	logger  *slog.Logger
}

// NewScriptSource loads and compiles the script at path on fs, or DefaultScript when path is empty.
func NewScriptSource(fs afero.Fs, path string, engine *script.TengoEngine, logger *slog.Logger) (*ScriptSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ScriptSource{fs: fs, path: path, engine: engine, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ScriptSource) Name() string { return "script" }

// Reload recompiles the script. On failure the previously loaded script stays active.
func (s *ScriptSource) Reload() error {
	content := DefaultScript
	name := "reference.tengo"
	if s.path != "" {
		data, err := afero.ReadFile(s.fs, s.path)
		if err != nil {
			return script.NewScriptError(script.ErrorTypeNotFound, s.path, "failed to read data source script", err)
		}
		content = string(data)
		name = s.path
	}

	compiled, err := s.engine.Compile(&script.Script{Name: name, Content: content, Inputs: scriptInputs})
	if err != nil {
		return err
	}
	s.current.Store(compiled)
	s.logger.Info("Data source script loaded", "script", name)
	return nil
}

// Watch reloads the script whenever its file changes, until ctx is done.
// Sources using the embedded script have nothing to watch.
func (s *ScriptSource) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	return script.WatchFile(ctx, s.path, func() {
		if err := s.Reload(); err != nil {
			s.logger.Error("Data source script reload failed, keeping previous version", "path", s.path, "error", err)
		}
	}, s.logger)
}

// Fetch runs the script for r.
func (s *ScriptSource) Fetch(ctx context.Context, r domain.DateRange) (domain.RawMetrics, error) {
	compiled := s.current.Load()
	out, err := s.engine.Execute(ctx, compiled, &script.ScriptInput{Context: map[string]interface{}{
		"start": r.StartString(),
		"end":   r.EndString(),
		"days":  r.Days(),
	}})
	if err != nil {
		return domain.RawMetrics{}, &domain.DataSourceError{Source: s.Name(), Err: err}
	}

	periods, err := decodePeriods(out.Result)
	if err != nil {
		return domain.RawMetrics{}, &domain.DataSourceError{Source: s.Name(), Err: err}
	}
	return domain.RawMetrics{Range: r, Periods: periods}, nil
}

func decodePeriods(result interface{}) ([]domain.PeriodMetrics, error) {
	items, ok := result.([]interface{})
	if !ok {
		return nil, errBadResult
	}
	periods := make([]domain.PeriodMetrics, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("period %d: %w", i, errBadResult)
		}
		label, _ := m["label"].(string)
		if label == "" {
			label = fmt.Sprintf("Period %d", i+1)
		}
		periods = append(periods, domain.PeriodMetrics{
			Label:       label,
			Spend:       toFloat(m["spend"]),
			Impressions: int64(toFloat(m["impressions"])),
			Clicks:      int64(toFloat(m["clicks"])),
			Conversions: int64(toFloat(m["conversions"])),
		})
	}
	return periods, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
