package mapper

import (
	"context"
	"fmt"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/model"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
)

// ClientToModel maps a Client entity to its model equivalent.
func ClientToModel(c *entity.Client) *model.Client {
	return &model.Client{
		UUID:             c.UUID,
		InitializeParams: c.InitializeParams,
		Conn:             c.Conn,
		WorkDir:          c.WorkDir,
	}
}

// ModelToClient maps a model Client to its entity equivalent.
func ModelToClient(c *model.Client) (*entity.Client, error) {
	return &entity.Client{
		UUID:             c.UUID,
		InitializeParams: c.InitializeParams,
		Conn:             c.Conn,
		WorkDir:          c.WorkDir,
	}, nil
}

// UUIDToClient initializes a new Client entity with the assigned uuid and connection.
func UUIDToClient(u uuid.UUID, c *jsonrpc2.Conn) *entity.Client {
	return &entity.Client{
		UUID: u,
		Conn: c,
	}
}

// ContextToClientUUID extracts the client UUID from a context.
func ContextToClientUUID(c context.Context) (uuid.UUID, error) {
	s, ok := c.Value(entity.ClientContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, &errors.NoClientFoundError{}
	}
	return s, nil
}

// SessionEntryToModel maps a SessionEntry entity to its model equivalent.
func SessionEntryToModel(e *entity.SessionEntry) *model.SessionEntry {
	return &model.SessionEntry{
		Identity:  string(e.Identity),
		Session:   e.Session,
		Client:    e.Client,
		InitLine:  e.InitLine,
		WorkDir:   e.WorkDir,
		StartedAt: e.StartedAt,
	}
}

// ModelToSessionEntry maps a model SessionEntry to its entity equivalent.
func ModelToSessionEntry(m *model.SessionEntry) (*entity.SessionEntry, error) {
	var session entity.Session
	if m.Session != nil {
		s, ok := m.Session.(entity.Session)
		if !ok {
			return nil, fmt.Errorf("stored session for %q has unexpected type %T", m.Identity, m.Session)
		}
		session = s
	}
	return &entity.SessionEntry{
		Identity:  entity.Identity(m.Identity),
		Session:   session,
		Client:    m.Client,
		InitLine:  m.InitLine,
		WorkDir:   m.WorkDir,
		StartedAt: m.StartedAt,
	}, nil
}

// RequestToStartSessionParams decodes the params of fsix/startSession.
func RequestToStartSessionParams(req jsonrpc2.Request) (*entity.StartSessionParams, error) {
	return decodeParams[entity.StartSessionParams](req)
}

func RequestToEvalParams(req jsonrpc2.Request) (*entity.EvalParams, error) {
	return decodeParams[entity.EvalParams](req)
}

// RequestToAutocompleteParams decodes completion params. When a position and text are supplied, the caret and word are derived from them.
func RequestToAutocompleteParams(req jsonrpc2.Request) (*entity.AutocompleteParams, error) {
	params, err := decodeParams[entity.AutocompleteParams](req)
	if err != nil {
		return nil, err
	}
	if params.Position != nil && params.Text != nil {
		params.Caret, params.Word = PositionToCaret(*params.Text, *params.Position)
	}
	return params, nil
}

func RequestToDiagnosticsParams(req jsonrpc2.Request) (*entity.DiagnosticsParams, error) {
	return decodeParams[entity.DiagnosticsParams](req)
}

func RequestToCloseSessionParams(req jsonrpc2.Request) (*entity.CloseSessionParams, error) {
	return decodeParams[entity.CloseSessionParams](req)
}

func RequestToSessionStatusParams(req jsonrpc2.Request) (*entity.SessionStatusParams, error) {
	return decodeParams[entity.SessionStatusParams](req)
}

// RequestToListProjectsParams decodes fsix/listProjects params, which may be omitted.
func RequestToListProjectsParams(req jsonrpc2.Request) (*entity.ListProjectsParams, error) {
	if len(req.Params()) == 0 {
		return &entity.ListProjectsParams{}, nil
	}
	return decodeParams[entity.ListProjectsParams](req)
}
