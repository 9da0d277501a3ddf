package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/automata/pkg/adapters/memory"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
	"github.com/aretw0/automata/pkg/registry"
	"github.com/aretw0/automata/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := registry.WithBuiltins()
	reg.Register(dsl.New("votes").
		Initial("IDLE").
		On("IDLE", 1, "YES").
		On("IDLE", 0, "NO").
		Output("YES", "approved").
		SplitBy("list", "").
		MustBuild())
	return NewServer(reg, WithSessions(session.NewManager(memory.NewStore(), reg)))
}

func TestHandleCalculate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleCalculate(ctx, mcp.CallToolRequest{}, CalculateArgs{Machine: "mod3", Input: "1010"})
	require.NoError(t, err)
	assert.Equal(t, "S1", res.State)
	assert.Equal(t, 1, res.Output)

	res, err = s.handleCalculate(ctx, mcp.CallToolRequest{}, CalculateArgs{Machine: "votes", Items: []any{float64(1)}})
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Output)

	_, err = s.handleCalculate(ctx, mcp.CallToolRequest{}, CalculateArgs{Machine: "mod3", Input: "12"})
	assert.ErrorIs(t, err, domain.ErrNoTransition)

	_, err = s.handleCalculate(ctx, mcp.CallToolRequest{}, CalculateArgs{Machine: "trap", Input: "00"})
	assert.ErrorIs(t, err, domain.ErrTrapState)

	_, err = s.handleCalculate(ctx, mcp.CallToolRequest{}, CalculateArgs{Machine: "nope", Input: "1"})
	assert.ErrorIs(t, err, domain.ErrMachineNotFound)
}

func TestHandleValidate(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, MachineArgs{Machine: "parity"})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.NotNil(t, res.Diagnostics)

	// YES and NO have no outgoing rules for 1 and 0.
	res, err = s.handleValidate(context.Background(), mcp.CallToolRequest{}, MachineArgs{Machine: "votes"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Len(t, res.Diagnostics, 4)
}

func TestHandleGraph(t *testing.T) {
	s := newTestServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"machine": "parity"}
	res, err := s.handleGraph(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "graph LR")

	req.Params.Arguments = map[string]any{"machine": "missing"}
	res, err = s.handleGraph(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleFeed(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleFeed(ctx, mcp.CallToolRequest{}, FeedArgs{SessionID: "s1", Machine: "trap", Input: "1"})
	require.NoError(t, err)
	assert.Equal(t, "S0", res.State)

	res, err = s.handleFeed(ctx, mcp.CallToolRequest{}, FeedArgs{SessionID: "s1", Input: "00"})
	require.NoError(t, err)
	assert.Equal(t, "TRAP", res.State)
	assert.Equal(t, 3, res.Steps)
	assert.Contains(t, res.Trap, "trapped")

	_, err = s.handleFeed(ctx, mcp.CallToolRequest{}, FeedArgs{})
	assert.Error(t, err)
}

func TestReadMachines(t *testing.T) {
	s := newTestServer(t)

	contents, err := s.readMachines(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, MachinesURI, text.URI)

	var summaries []machineSummary
	require.NoError(t, json.Unmarshal([]byte(text.Text), &summaries))
	require.Len(t, summaries, 4)
	assert.Equal(t, "mod3", summaries[0].Name)
	assert.Equal(t, "list", summaries[3].Splitter)
}

func TestToolsList(t *testing.T) {
	s := newTestServer(t)

	resp := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, tool := range []string{"calculate", "validate", "graph", "list_machines", "feed"} {
		assert.Contains(t, string(data), `"name":"`+tool+`"`)
	}
}
