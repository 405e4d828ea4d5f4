package mapper

import (
	"encoding/json"
	stderr "errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/tidwall/gjson"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Titles of the install prompt actions.
const (
	InstallTitleGlobal = "Yes (globally)"
	InstallTitleLocal  = "Yes (locally)"
	InstallTitleNo     = "No"
)

// InitLineToArgs splits an init cell into daemon arguments. The leading command token is dropped.
func InitLineToArgs(initLine string) []string {
	fields := strings.Fields(initLine)
	if len(fields) <= 1 {
		return []string{}
	}
	return fields[1:]
}

// ProjectToInitLine returns the init line that loads the given solution or project file.
// An empty path, or "none", loads nothing.
func ProjectToInitLine(projectPath string) string {
	switch ext := strings.ToLower(filepath.Ext(projectPath)); {
	case ext == ".sln" || ext == ".slnx":
		return fmt.Sprintf("fsix --sln %s", projectPath)
	case ext == ".fsproj":
		return fmt.Sprintf("fsix --proj %s", projectPath)
	default:
		return "fsix"
	}
}

// MergeEvalArgs combines cell metadata with call arguments. Call arguments win on key collisions.
func MergeEvalArgs(metadata, args map[string]interface{}, hotReload *bool) map[string]interface{} {
	merged := make(map[string]interface{}, len(metadata)+len(args)+1)
	for k, v := range metadata {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v
	}
	if hotReload != nil {
		merged[entity.HotReloadArg] = *hotReload
	}
	return merged
}

// EvalResultToResponse renders a daemon evaluation result for an editor cell.
func EvalResultToResponse(result *entity.EvalResult) *entity.EvalResponse {
	resp := &entity.EvalResponse{
		Success:       result.EvaluationResult.IsOk(),
		EvaluatedCode: result.EvaluatedCode,
		Output:        []entity.OutputLine{},
		Diagnostics:   result.Diagnostics,
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []entity.Diagnostic{}
	}

	for _, d := range result.Diagnostics {
		resp.Output = append(resp.Output, outputLine(d.Message, d.Severity == entity.DiagnosticSeverityError))
	}

	if stdout := gjson.GetBytes(result.Metadata, "stdout"); stdout.Exists() && stdout.String() != "" {
		resp.Output = append(resp.Output, outputLine(stdout.String(), !resp.Success))
	}

	if resp.Success {
		resp.Value = result.EvaluationResult.Data
	} else {
		resp.Error = RemoteExceptionToError(result.EvaluationResult.Error)
	}

	reloaded := gjson.GetBytes(result.Metadata, "reloadedMethods")
	if reloaded.IsObject() {
		reloaded.ForEach(func(key, _ gjson.Result) bool {
			resp.Reloaded = append(resp.Reloaded, key.String())
			return true
		})
	} else if reloaded.IsArray() {
		for _, method := range reloaded.Array() {
			resp.Reloaded = append(resp.Reloaded, method.String())
		}
	}
	for _, method := range resp.Reloaded {
		resp.Output = append(resp.Output, outputLine(fmt.Sprintf("Method %s was updated", method), false))
	}

	return resp
}

func outputLine(text string, isErr bool) entity.OutputLine {
	if isErr {
		return entity.OutputLine{Stream: entity.OutputStderr, Text: text}
	}
	return entity.OutputLine{Stream: entity.OutputStdout, Text: text}
}

// DiagnosticsToProtocol converts daemon diagnostics into LSP diagnostics with 0-based lines.
func DiagnosticsToProtocol(diagnostics []entity.Diagnostic) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		diagnostic := protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: toLine(d.Range.StartLine), Character: toColumn(d.Range.StartColumn)},
				End:   protocol.Position{Line: toLine(d.Range.EndLine), Character: toColumn(d.Range.EndColumn)},
			},
			Severity: DiagnosticSeverityToProtocol(d.Severity),
			Source:   "fsix",
			Message:  d.Message,
		}
		if d.Subcategory != "" {
			diagnostic.Code = d.Subcategory
		}
		result = append(result, diagnostic)
	}
	return result
}

// DiagnosticSeverityToProtocol maps a daemon severity to its LSP equivalent.
func DiagnosticSeverityToProtocol(severity entity.DiagnosticSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case entity.DiagnosticSeverityError:
		return protocol.DiagnosticSeverityError
	case entity.DiagnosticSeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case entity.DiagnosticSeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func toLine(line int) uint32 {
	if line <= 1 {
		return 0
	}
	return uint32(line - 1)
}

func toColumn(col int) uint32 {
	if col < 0 {
		return 0
	}
	return uint32(col)
}

// LogLevelToMessageType maps a daemon log level to exactly one LSP message type.
func LogLevelToMessageType(level entity.LogLevel) protocol.MessageType {
	switch level {
	case entity.LogLevelError:
		return protocol.MessageTypeError
	case entity.LogLevelWarning:
		return protocol.MessageTypeWarning
	case entity.LogLevelInfo:
		return protocol.MessageTypeInfo
	default:
		return protocol.MessageTypeLog
	}
}

// PositionToCaret converts an LSP position into the absolute UTF-16 offset of the caret and the
// space-separated word immediately before it on its line.
func PositionToCaret(text string, pos protocol.Position) (caret int, word string) {
	lines := strings.SplitAfter(text, "\n")
	for i := 0; i < int(pos.Line) && i < len(lines); i++ {
		caret += utf16Len(lines[i])
	}
	if int(pos.Line) >= len(lines) {
		return caret, ""
	}

	line := strings.TrimRight(lines[pos.Line], "\r\n")
	prefix := utf16Prefix(line, int(pos.Character))
	caret += utf16Len(prefix)

	words := strings.Split(prefix, " ")
	return caret, words[len(words)-1]
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// utf16Prefix returns the longest prefix of s that is at most units UTF-16 code units long.
func utf16Prefix(s string, units int) string {
	count := 0
	for i, r := range s {
		size := utf16.RuneLen(r)
		if size < 0 {
			size = 1
		}
		if count+size > units {
			return s[:i]
		}
		count += size
	}
	return s
}

// InitFailureToInfo converts a handshake failure into its wire form.
func InitFailureToInfo(failure *errors.InitFailure) *entity.InitFailureInfo {
	if failure == nil {
		return nil
	}
	return &entity.InitFailureInfo{
		Reason:    failure.Reason,
		Code:      failure.Code,
		Exception: failure.Exception,
		Message:   failure.Error(),
	}
}

// ErrorToJSONRPCError attaches a host error code and structured data to an error returned to an editor.
// Errors without a host code are returned unchanged.
func ErrorToJSONRPCError(err error) error {
	if err == nil {
		return nil
	}

	var rpcErr *jsonrpc2.Error
	if stderr.As(err, &rpcErr) {
		return err
	}

	var initFailure *errors.InitFailure
	if stderr.As(err, &initFailure) {
		return newJSONRPCError(entity.CodeInitFailed, err, InitFailureToInfo(initFailure))
	}

	var remoteErr *errors.RemoteError
	if stderr.As(err, &remoteErr) {
		return newJSONRPCError(entity.CodeRemoteException, err, remoteErr)
	}

	if errors.IsSessionDead(err) {
		return newJSONRPCError(entity.CodeSessionNotRunning, err, nil)
	}

	if errors.IsIdentityError(err) {
		return newJSONRPCError(entity.CodeIdentity, err, nil)
	}

	return err
}

func newJSONRPCError(code jsonrpc2.Code, err error, data interface{}) *jsonrpc2.Error {
	result := jsonrpc2.NewError(code, err.Error())
	if data == nil {
		return result
	}
	if b, merr := json.Marshal(data); merr == nil {
		raw := json.RawMessage(b)
		result.Data = &raw
	}
	return result
}

// InstallChoiceToActions returns the prompt actions for the daemon install question.
func InstallChoiceToActions() []protocol.MessageActionItem {
	return []protocol.MessageActionItem{
		{Title: InstallTitleGlobal},
		{Title: InstallTitleLocal},
		{Title: InstallTitleNo},
	}
}

// ActionToInstallChoice maps the selected prompt action to an install choice. A dismissed prompt declines.
func ActionToInstallChoice(action *protocol.MessageActionItem) entity.InstallChoice {
	if action == nil {
		return entity.InstallDeclined
	}
	switch action.Title {
	case InstallTitleGlobal:
		return entity.InstallGlobal
	case InstallTitleLocal:
		return entity.InstallLocal
	default:
		return entity.InstallDeclined
	}
}

// SortProjects orders projects by path, keeping the no-project option last.
func SortProjects(projects []entity.Project) []entity.Project {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Path < projects[j].Path
	})
	return append(projects, entity.Project{Path: "none", InitLine: ProjectToInitLine("")})
}
