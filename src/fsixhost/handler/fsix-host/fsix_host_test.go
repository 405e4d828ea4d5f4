package fsixhost

import (
	"context"
	"errors"
	"testing"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/controller/fsix-host/fsixhostmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/factory"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/jsonrpcfx/jsonrpc2mock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/jsonrpcfx/jsonrpcfxmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	t.Run("registers connection manager", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		jsonRPCMock := jsonrpcfxmock.NewMockJSONRPCModule(ctrl)
		jsonRPCMock.EXPECT().RegisterConnectionManager(gomock.Any()).Return(nil)

		h, err := New(fsixhostmock.NewMockController(ctrl), jsonRPCMock, tally.NewTestScope("testing", nil))
		require.NoError(t, err)
		assert.Equal(t, int64(0), h.ActiveConnections())
	})

	t.Run("duplicate registration", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		jsonRPCMock := jsonrpcfxmock.NewMockJSONRPCModule(ctrl)
		jsonRPCMock.EXPECT().RegisterConnectionManager(gomock.Any()).Return(errors.New("duplicate"))

		_, err := New(fsixhostmock.NewMockController(ctrl), jsonRPCMock, tally.NewTestScope("testing", nil))
		assert.Error(t, err)
	})
}

func TestNewConnection(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	c := fsixhostmock.NewMockController(ctrl)
	testScope := tally.NewTestScope("testing", make(map[string]string, 0))

	mgr := jsonRPCConnectionManager{
		stats: testScope,
		ctrl:  c,
	}

	var conn jsonrpc2.Conn = jsonrpc2mock.NewMockConn(ctrl)

	t.Run("create success", func(t *testing.T) {
		id := factory.UUID()
		c.EXPECT().InitClient(gomock.Any(), gomock.Any()).Return(id, nil)
		router, err := mgr.NewConnection(ctx, &conn)
		require.NoError(t, err)
		assert.IsType(t, &jsonRPCRouter{}, router)
		assert.Equal(t, id, router.UUID())
		assert.Equal(t, int64(1), mgr.ActiveConnections())
	})

	t.Run("create failure", func(t *testing.T) {
		c.EXPECT().InitClient(gomock.Any(), gomock.Any()).Return(uuid.Nil, errors.New("error"))
		_, err := mgr.NewConnection(ctx, &conn)
		assert.Error(t, err)
		assert.Equal(t, int64(1), mgr.ActiveConnections())

		counter, ok := testScope.Snapshot().Counters()["testing.connection_errors+"]
		require.True(t, ok)
		assert.Equal(t, int64(1), counter.Value())
	})
}

func TestRemoveConnection(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	c := fsixhostmock.NewMockController(ctrl)
	id := factory.UUID()
	c.EXPECT().InitClient(gomock.Any(), gomock.Any()).Return(id, nil)
	c.EXPECT().EndClient(gomock.Any(), id).DoAndReturn(func(ctx context.Context, id uuid.UUID) error {
		resultID, err := mapper.ContextToClientUUID(ctx)
		assert.NoError(t, err)
		assert.Equal(t, id, resultID)
		return nil
	})

	mgr := jsonRPCConnectionManager{
		stats: tally.NewTestScope("testing", nil),
		ctrl:  c,
	}

	var conn jsonrpc2.Conn = jsonrpc2mock.NewMockConn(ctrl)
	router, err := mgr.NewConnection(ctx, &conn)
	require.NoError(t, err)

	mgr.RemoveConnection(ctx, router.UUID())
	assert.Equal(t, int64(0), mgr.ActiveConnections())
}

func stringPtr(s string) *string {
	return &s
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newMockReplier() jsonrpc2.Replier {
	return func(ctx context.Context, result interface{}, err error) error {
		return err
	}
}

// newRecordingReplier captures the error passed to the replier and reports success to the caller.
func newRecordingReplier(got *error) jsonrpc2.Replier {
	return func(ctx context.Context, result interface{}, err error) error {
		*got = err
		return nil
	}
}
