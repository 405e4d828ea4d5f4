package mapper

import (
	"context"
	"testing"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/factory"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/model"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/goleak"
)

func TestClientToModel(t *testing.T) {
	conn := jsonrpc2.NewConn(nil)
	c := &entity.Client{
		UUID:             factory.UUID(),
		InitializeParams: &protocol.InitializeParams{},
		Conn:             &conn,
		WorkDir:          "/home/user/project",
	}
	m := ClientToModel(c)
	assert.Equal(t, c.UUID, m.UUID)
	assert.Equal(t, c.InitializeParams, m.InitializeParams)
	assert.Equal(t, c.Conn, m.Conn)
	assert.Equal(t, c.WorkDir, m.WorkDir)

	back, err := ModelToClient(m)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestUUIDToClient(t *testing.T) {
	conn := jsonrpc2.NewConn(nil)
	u := factory.UUID()
	c := UUIDToClient(u, &conn)
	assert.Equal(t, u, c.UUID)
	assert.Equal(t, &conn, c.Conn)
}

func TestContextToClientUUID(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		u := factory.UUID()
		ctx := context.WithValue(context.Background(), entity.ClientContextKey, u)
		result, err := ContextToClientUUID(ctx)
		assert.NoError(t, err)
		assert.Equal(t, u, result)
	})

	t.Run("missing", func(t *testing.T) {
		result, err := ContextToClientUUID(context.Background())
		var noClient *errors.NoClientFoundError
		assert.ErrorAs(t, err, &noClient)
		assert.Equal(t, uuid.Nil, result)
	})
}

type stubSession struct {
	entity.Session
}

func TestSessionEntryMapping(t *testing.T) {
	e := &entity.SessionEntry{
		Identity:  "interactive-1",
		Session:   &stubSession{},
		Client:    factory.UUID(),
		InitLine:  "fsix --proj App.fsproj",
		WorkDir:   "/repo",
		StartedAt: time.Unix(1700000000, 0),
	}

	m := SessionEntryToModel(e)
	assert.Equal(t, "interactive-1", m.Identity)
	assert.Equal(t, e.InitLine, m.InitLine)

	back, err := ModelToSessionEntry(m)
	require.NoError(t, err)
	assert.Equal(t, e, back)

	t.Run("unexpected session type", func(t *testing.T) {
		_, err := ModelToSessionEntry(&model.SessionEntry{Identity: "x", Session: "not a session"})
		assert.Error(t, err)
	})

	t.Run("no session", func(t *testing.T) {
		result, err := ModelToSessionEntry(&model.SessionEntry{Identity: "x"})
		require.NoError(t, err)
		assert.Nil(t, result.Session)
	})
}

func TestRequestToAutocompleteParams(t *testing.T) {
	t.Run("explicit caret", func(t *testing.T) {
		req := factory.JSONRPCRequest(entity.MethodCompletions, entity.AutocompleteParams{URI: "file:///a.fsixnb", Text: stringPtr("List.ma"), Caret: 7, Word: "List.ma"})
		result, err := RequestToAutocompleteParams(req)
		require.NoError(t, err)
		assert.Equal(t, 7, result.Caret)
		assert.Equal(t, "List.ma", result.Word)
	})

	t.Run("position", func(t *testing.T) {
		req := factory.JSONRPCRequest(entity.MethodCompletions, map[string]interface{}{
			"uri":      "file:///a.fsixnb",
			"text":     "let a = 1\nSeq.fi",
			"position": protocol.Position{Line: 1, Character: 6},
		})
		result, err := RequestToAutocompleteParams(req)
		require.NoError(t, err)
		assert.Equal(t, 16, result.Caret)
		assert.Equal(t, "Seq.fi", result.Word)
	})

	t.Run("position without text", func(t *testing.T) {
		req := factory.JSONRPCRequest(entity.MethodCompletions, map[string]interface{}{
			"uri":      "file:///a.fsixnb",
			"position": protocol.Position{Line: 1, Character: 6},
		})
		result, err := RequestToAutocompleteParams(req)
		require.NoError(t, err)
		assert.Nil(t, result.Text)
		assert.Zero(t, result.Caret)
	})

	t.Run("invalid params", func(t *testing.T) {
		req := factory.JSONRPCRequest(entity.MethodCompletions, struct{ Text int }{Text: 5})
		_, err := RequestToAutocompleteParams(req)
		assert.Error(t, err)
	})
}

func TestRequestToEvalParams(t *testing.T) {
	hotReload := true
	params := entity.EvalParams{
		URI:       "file:///a.fsixnb",
		Code:      "1+1",
		Metadata:  map[string]interface{}{"fileName": "a.fsx"},
		HotReload: &hotReload,
	}
	result, err := RequestToEvalParams(factory.JSONRPCRequest(entity.MethodEvalCell, params))
	require.NoError(t, err)
	assert.Equal(t, params.Code, result.Code)
	assert.Equal(t, "a.fsx", result.Metadata["fileName"])
	require.NotNil(t, result.HotReload)
	assert.True(t, *result.HotReload)

	_, err = RequestToEvalParams(factory.JSONRPCRequest(entity.MethodEvalCell, struct{ Code int }{Code: 1}))
	assert.Error(t, err)
}

func TestRequestToSessionParams(t *testing.T) {
	start, err := RequestToStartSessionParams(factory.JSONRPCRequest(entity.MethodStartSession, entity.StartSessionParams{URI: "file:///a.fsixnb", InitLine: "fsix"}))
	require.NoError(t, err)
	assert.Equal(t, "fsix", start.InitLine)

	closeParams, err := RequestToCloseSessionParams(factory.JSONRPCRequest(entity.MethodCloseSession, entity.CloseSessionParams{URI: "file:///a.fsixnb"}))
	require.NoError(t, err)
	assert.Equal(t, "file:///a.fsixnb", string(closeParams.URI))

	status, err := RequestToSessionStatusParams(factory.JSONRPCRequest(entity.MethodSessionStatus, entity.SessionStatusParams{URI: "file:///a.fsixnb"}))
	require.NoError(t, err)
	assert.Equal(t, "file:///a.fsixnb", string(status.URI))

	diag, err := RequestToDiagnosticsParams(factory.JSONRPCRequest(entity.MethodDocumentDiagnostics, entity.DiagnosticsParams{URI: "file:///a.fsixnb", Text: stringPtr("x")}))
	require.NoError(t, err)
	require.NotNil(t, diag.Text)
	assert.Equal(t, "x", *diag.Text)

	diag, err = RequestToDiagnosticsParams(factory.JSONRPCRequest(entity.MethodDocumentDiagnostics, map[string]interface{}{"uri": "file:///a.fsixnb", "text": ""}))
	require.NoError(t, err)
	require.NotNil(t, diag.Text)
	assert.Empty(t, *diag.Text)

	diag, err = RequestToDiagnosticsParams(factory.JSONRPCRequest(entity.MethodDocumentDiagnostics, entity.DiagnosticsParams{URI: "file:///a.fsixnb"}))
	require.NoError(t, err)
	assert.Nil(t, diag.Text)

	_, err = RequestToStartSessionParams(factory.JSONRPCRequest(entity.MethodStartSession, struct{ InitLine int }{InitLine: 1}))
	assert.Error(t, err)
}

func TestRequestToListProjectsParams(t *testing.T) {
	result, err := RequestToListProjectsParams(factory.JSONRPCRequest(entity.MethodListProjects, nil))
	require.NoError(t, err)
	assert.Empty(t, result.Root)

	result, err = RequestToListProjectsParams(factory.JSONRPCRequest(entity.MethodListProjects, entity.ListProjectsParams{Root: "/repo"}))
	require.NoError(t, err)
	assert.Equal(t, "/repo", result.Root)
}

func stringPtr(s string) *string {
	return &s
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
