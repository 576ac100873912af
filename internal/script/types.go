package script

import (
	"time"
)

// ErrorType categorizes different types of script errors
type ErrorType string

const (
	ErrorTypeCompilation ErrorType = "compilation"
	ErrorTypeExecution   ErrorType = "execution"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeResult      ErrorType = "result"
)

// Script is a Tengo program plus the names of the variables it expects as input.
type Script struct {
	Name    string
	Content string
	// Inputs lists the input variables with the zero value used at compile time.
	Inputs       map[string]interface{}
	LastModified time.Time
}

// ScriptInput provides the values of the declared input variables.
type ScriptInput struct {
	Context map[string]interface{}
}

// ScriptOutput contains the results of script execution
type ScriptOutput struct {
	Result        interface{}
	Logs          []string
	ExecutionTime time.Duration
}

// SecurityLimits defines resource constraints for script execution
type SecurityLimits struct {
	MaxExecutionTime time.Duration
	AllowedPackages  []string
}

// CompiledScript represents a compiled script ready for execution
type CompiledScript struct {
	Script   *Script
	Compiled interface{} // engine-specific compiled representation
}

// ScriptError represents script-related errors with context
type ScriptError struct {
	Type       ErrorType
	ScriptName string
	Message    string
	Cause      error
	Timestamp  time.Time
}

func (e *ScriptError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// NewScriptError creates a new ScriptError with the given parameters
func NewScriptError(errorType ErrorType, scriptName, message string, cause error) *ScriptError {
	return &ScriptError{
		Type:       errorType,
		ScriptName: scriptName,
		Message:    message,
		Cause:      cause,
		Timestamp:  time.Now(),
	}
}
