package entity

import "encoding/json"

// Methods spoken on the daemon transport.
const (
	MethodEval         = "eval"
	MethodAutocomplete = "autocomplete"
	MethodDiagnostics  = "diagnostics"
	MethodLogging      = "logging"
	MethodInitialized  = "initialized"
)

// RemoteException is the daemon's native exception representation.
type RemoteException struct {
	ClassName        string           `json:"ClassName"`
	Message          string           `json:"Message"`
	InnerException   *RemoteException `json:"InnerException"`
	StackTraceString *string          `json:"StackTraceString"`
	AssemblyName     string           `json:"AssemblyName"`
	Source           *string          `json:"Source"`
	HResult          int              `json:"HResult"`
}

// ResultCase tags a daemon result union.
type ResultCase string

const (
	ResultCaseOk    ResultCase = "ok"
	ResultCaseError ResultCase = "error"
)

// EvaluationResult is the success/failure union carried inside an EvalResult.
type EvaluationResult struct {
	Case  ResultCase       `json:"case"`
	Data  string           `json:"data,omitempty"`
	Error *RemoteException `json:"error,omitempty"`
}

// IsOk reports whether the evaluation succeeded.
func (r EvaluationResult) IsOk() bool {
	return r.Case == ResultCaseOk
}

// InitializedParams is the payload of the one-time initialized notification.
type InitializedParams struct {
	Case  ResultCase       `json:"case"`
	Error *RemoteException `json:"error,omitempty"`
}

// EvalRequest is the params object of the eval request.
type EvalRequest struct {
	Code string                 `json:"code"`
	Args map[string]interface{} `json:"args"`
}

// EvalResult is returned by the daemon for each evaluation.
// Metadata is free-form and kept raw.
type EvalResult struct {
	EvaluationResult EvaluationResult `json:"evaluationResult"`
	EvaluatedCode    string           `json:"evaluatedCode"`
	Metadata         json.RawMessage  `json:"metadata,omitempty"`
	Diagnostics      []Diagnostic     `json:"diagnostics"`
}

// DiagnosticSeverity as reported by the daemon.
type DiagnosticSeverity string

const (
	DiagnosticSeverityError   DiagnosticSeverity = "Error"
	DiagnosticSeverityHidden  DiagnosticSeverity = "Hidden"
	DiagnosticSeverityInfo    DiagnosticSeverity = "Info"
	DiagnosticSeverityWarning DiagnosticSeverity = "Warning"
)

// Range uses 1-based lines.
type Range struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// Diagnostic reported by the daemon for a piece of code.
type Diagnostic struct {
	Message     string             `json:"message"`
	Subcategory string             `json:"subcategory"`
	Severity    DiagnosticSeverity `json:"severity"`
	Range       Range              `json:"range"`
}

// CompletionItem is a single completion candidate.
type CompletionItem struct {
	DisplayText     string  `json:"displayText"`
	ReplacementText string  `json:"replacementText"`
	Kind            string  `json:"kind"`
	Description     *string `json:"description"`
}

// LogLevel of a daemon logging notification.
type LogLevel string

const (
	LogLevelError   LogLevel = "Error"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarning LogLevel = "Warning"
)

// LogNotification is the payload of the logging notification.
type LogNotification struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}
