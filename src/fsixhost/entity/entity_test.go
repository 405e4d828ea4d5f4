package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientNameIsVSCodeBased(t *testing.T) {
	testCases := []struct {
		name     string
		client   ClientName
		expected bool
	}{
		{
			name:     "vscode",
			client:   ClientNameVSCode,
			expected: true,
		},
		{
			name:     "cursor",
			client:   ClientNameCursor,
			expected: true,
		},
		{
			name:     "other",
			client:   ClientName("Neovim"),
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.client.IsVSCodeBased())
		})
	}
}

func TestInteractiveIdentity(t *testing.T) {
	assert.Equal(t, Identity("interactive-12"), InteractiveIdentity("12"))
}

func TestSessionEntryIsRunning(t *testing.T) {
	var nilEntry *SessionEntry
	assert.False(t, nilEntry.IsRunning())
	assert.False(t, (&SessionEntry{}).IsRunning())
}

func TestEvalResultDecode(t *testing.T) {
	payload := `{
		"evaluationResult": {"case": "error", "error": {"ClassName": "System.Exception", "Message": "outer", "InnerException": {"ClassName": "System.ArgumentException", "Message": "inner", "InnerException": null, "StackTraceString": null, "AssemblyName": "x", "Source": null, "HResult": 1}, "StackTraceString": "at X", "AssemblyName": "x", "Source": "x", "HResult": 2}},
		"evaluatedCode": "failwith \"outer\"",
		"metadata": {"stdout": "hi\n"},
		"diagnostics": [{"message": "m", "subcategory": "typecheck", "severity": "Warning", "range": {"startLine": 1, "startColumn": 2, "endLine": 1, "endColumn": 5}}]
	}`

	var result EvalResult
	require.NoError(t, json.Unmarshal([]byte(payload), &result))
	assert.False(t, result.EvaluationResult.IsOk())
	require.NotNil(t, result.EvaluationResult.Error)
	require.NotNil(t, result.EvaluationResult.Error.InnerException)
	assert.Equal(t, "inner", result.EvaluationResult.Error.InnerException.Message)
	assert.Nil(t, result.EvaluationResult.Error.InnerException.StackTraceString)
	assert.JSONEq(t, `{"stdout": "hi\n"}`, string(result.Metadata))
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, DiagnosticSeverityWarning, result.Diagnostics[0].Severity)
	assert.Equal(t, 5, result.Diagnostics[0].Range.EndColumn)
}
