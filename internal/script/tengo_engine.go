package script

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// TengoEngine compiles and runs Tengo scripts.
type TengoEngine struct {
	securityLimits SecurityLimits
	logger         *slog.Logger
}

// NewTengoEngine creates a new Tengo engine with default security limits
func NewTengoEngine(logger *slog.Logger) *TengoEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &TengoEngine{
		securityLimits: GetDefaultSecurityLimits(),
		logger:         logger,
	}
}

// SetSecurityLimits configures resource and security constraints
func (e *TengoEngine) SetSecurityLimits(limits SecurityLimits) {
	e.securityLimits = limits
}

// Compile checks the script and prepares it for repeated execution.
// Declared inputs are bound to their zero values so the compiler knows them.
func (e *TengoEngine) Compile(s *Script) (*CompiledScript, error) {
	startTime := time.Now()

	ts := tengo.NewScript([]byte(s.Content))
	ts.SetImports(e.buildModuleMap())

	names := make([]string, 0, len(s.Inputs))
	for name := range s.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ts.Add(name, s.Inputs[name]); err != nil {
			return nil, NewScriptError(ErrorTypeCompilation, s.Name, "failed to declare input "+name, err)
		}
	}
	if err := ts.Add("log", e.logFunction(s.Name, nil)); err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, s.Name, "failed to add logging function", err)
	}

	compiled, err := ts.Compile()
	if err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, s.Name, "failed to compile Tengo script", err)
	}

	e.logger.Debug("Tengo script compiled successfully",
		"script", s.Name,
		"compilation_time", time.Since(startTime),
	)

	return &CompiledScript{Script: s, Compiled: compiled}, nil
}

// Execute runs a clone of the compiled script with the given input values.
func (e *TengoEngine) Execute(ctx context.Context, cs *CompiledScript, input *ScriptInput) (*ScriptOutput, error) {
	startTime := time.Now()

	base, ok := cs.Compiled.(*tengo.Compiled)
	if !ok {
		return nil, NewScriptError(ErrorTypeExecution, cs.Script.Name, "invalid compiled script type for Tengo engine", nil)
	}
	run := base.Clone()

	var logs []string
	var logsMu sync.Mutex
	if err := run.Set("log", e.logFunction(cs.Script.Name, func(msg string) {
		logsMu.Lock()
		logs = append(logs, msg)
		logsMu.Unlock()
	})); err != nil {
		return nil, NewScriptError(ErrorTypeExecution, cs.Script.Name, "failed to bind logging function", err)
	}

	if input != nil {
		for key, value := range input.Context {
			if err := run.Set(key, value); err != nil {
				return nil, NewScriptError(ErrorTypeExecution, cs.Script.Name, fmt.Sprintf("failed to set input variable %s", key), err)
			}
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.securityLimits.MaxExecutionTime)
	defer cancel()

	// Run in a goroutine so a panicking script becomes an error.
	resultChan := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- fmt.Errorf("script panic: %v", r)
			}
		}()
		resultChan <- run.RunContext(execCtx)
	}()

	select {
	case err := <-resultChan:
		if err != nil {
			if execCtx.Err() != nil {
				return nil, NewScriptError(ErrorTypeTimeout, cs.Script.Name, "script execution timed out", err)
			}
			return nil, NewScriptError(ErrorTypeExecution, cs.Script.Name, "script execution failed", err)
		}
	case <-execCtx.Done():
		return nil, NewScriptError(ErrorTypeTimeout, cs.Script.Name, "script execution timed out", execCtx.Err())
	}

	var result interface{}
	if v := run.Get("result"); v != nil {
		result = v.Value()
	}

	logsMu.Lock()
	defer logsMu.Unlock()
	return &ScriptOutput{
		Result:        result,
		Logs:          logs,
		ExecutionTime: time.Since(startTime),
	}, nil
}

// buildModuleMap creates the allowed modules map based on security limits
func (e *TengoEngine) buildModuleMap() *tengo.ModuleMap {
	modules := tengo.NewModuleMap()
	for _, pkg := range e.securityLimits.AllowedPackages {
		if module, exists := stdlib.BuiltinModules[pkg]; exists {
			modules.AddBuiltinModule(pkg, module)
		}
	}
	return modules
}

// logFunction exposes log(msg) to scripts, forwarding to slog and to sink when set.
func (e *TengoEngine) logFunction(scriptName string, sink func(string)) *tengo.UserFunction {
	return &tengo.UserFunction{
		Name: "log",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			message, ok := tengo.ToString(args[0])
			if !ok {
				message = args[0].String()
			}
			e.logger.Info("Script log", "message", message, "script", scriptName)
			if sink != nil {
				sink(message)
			}
			return tengo.UndefinedValue, nil
		},
	}
}
