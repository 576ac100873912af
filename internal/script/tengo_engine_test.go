package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTengoEngine_CompileAndExecute(t *testing.T) {
	engine := NewTengoEngine(nil)

	s := &Script{
		Name:    "simple",
		Content: `result := base_value * multiplier`,
		Inputs:  map[string]interface{}{"base_value": 0, "multiplier": 0},
	}

	compiled, err := engine.Compile(s)
	require.NoError(t, err)
	assert.Equal(t, s, compiled.Script)

	out, err := engine.Execute(context.Background(), compiled, &ScriptInput{
		Context: map[string]interface{}{"base_value": 10, "multiplier": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), out.Result)
	assert.GreaterOrEqual(t, out.ExecutionTime, time.Duration(0))
}

func TestTengoEngine_ExecuteIsRepeatable(t *testing.T) {
	engine := NewTengoEngine(nil)
	compiled, err := engine.Compile(&Script{
		Name:    "double",
		Content: `result := n * 2`,
		Inputs:  map[string]interface{}{"n": 0},
	})
	require.NoError(t, err)

	for _, n := range []int{1, 2, 3} {
		out, err := engine.Execute(context.Background(), compiled, &ScriptInput{Context: map[string]interface{}{"n": n}})
		require.NoError(t, err)
		assert.Equal(t, int64(n*2), out.Result)
	}
}

func TestTengoEngine_CompilationError(t *testing.T) {
	engine := NewTengoEngine(nil)
	_, err := engine.Compile(&Script{Name: "broken", Content: `result := (`})

	var se *ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrorTypeCompilation, se.Type)
}

func TestTengoEngine_LogsAreCaptured(t *testing.T) {
	engine := NewTengoEngine(nil)
	compiled, err := engine.Compile(&Script{Name: "logger", Content: "log(\"hello\")\nresult := 1"})
	require.NoError(t, err)

	out, err := engine.Execute(context.Background(), compiled, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, out.Logs)
}

func TestTengoEngine_Timeout(t *testing.T) {
	engine := NewTengoEngine(nil)
	engine.SetSecurityLimits(SecurityLimits{MaxExecutionTime: 50 * time.Millisecond})

	compiled, err := engine.Compile(&Script{Name: "spin", Content: `for true {}`})
	require.NoError(t, err)

	_, err = engine.Execute(context.Background(), compiled, nil)
	var se *ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrorTypeTimeout, se.Type)
}

func TestTengoEngine_DisallowedImport(t *testing.T) {
	engine := NewTengoEngine(nil)
	_, err := engine.Compile(&Script{Name: "os", Content: `os := import("os")`})
	assert.Error(t, err, "os is not in the allowed packages")
}
