package datasource

import (
	"context"
	"testing"

	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/script"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptSource_DefaultScriptMatchesReference(t *testing.T) {
	src, err := NewScriptSource(afero.NewMemMapFs(), "", script.NewTengoEngine(nil), nil)
	require.NoError(t, err)

	r := mustRange(t, "2024-01-01", "2024-02-11")
	raw, err := src.Fetch(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, ReferenceMetrics(r), raw)
}

func TestScriptSource_CustomScriptAndReload(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "metrics.tengo", []byte(
		`result := [{label: start, spend: 10.5, impressions: 1000, clicks: 25, conversions: days}]`,
	), 0o644))

	src, err := NewScriptSource(fs, "metrics.tengo", script.NewTengoEngine(nil), nil)
	require.NoError(t, err)

	r := mustRange(t, "2024-03-01", "2024-03-10")
	raw, err := src.Fetch(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, raw.Periods, 1)
	assert.Equal(t, domain.PeriodMetrics{Label: "2024-03-01", Spend: 10.5, Impressions: 1000, Clicks: 25, Conversions: 10}, raw.Periods[0])

	// A broken edit keeps the previous version running.
	require.NoError(t, afero.WriteFile(fs, "metrics.tengo", []byte(`result := (`), 0o644))
	assert.Error(t, src.Reload())
	_, err = src.Fetch(context.Background(), r)
	assert.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "metrics.tengo", []byte(`result := []`), 0o644))
	require.NoError(t, src.Reload())
	raw, err = src.Fetch(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, raw.Periods)
}

func TestScriptSource_BadResultIsDataSourceError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.tengo", []byte(`result := "nope"`), 0o644))

	src, err := NewScriptSource(fs, "bad.tengo", script.NewTengoEngine(nil), nil)
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), mustRange(t, "2024-01-01", "2024-01-02"))
	assert.True(t, domain.IsDataSource(err))
}

func TestScriptSource_MissingFile(t *testing.T) {
	_, err := NewScriptSource(afero.NewMemMapFs(), "missing.tengo", script.NewTengoEngine(nil), nil)
	var se *script.ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, script.ErrorTypeNotFound, se.Type)
}
