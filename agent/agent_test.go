package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/model"
	"github.com/overturehq/overture/tool"
)

func echoTool() *tool.FunctionTool {
	return tool.NewFunctionTool("echo", "Echo the given text",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []any{"text"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)
}

func newTestFactory(llm model.Model, sink core.EventSink, identity *core.Identity) (*Factory, *tool.Registry) {
	registry := tool.NewRegistry()
	registry.RegisterFunc(echoTool())
	f := NewFactory(llm, registry, func(o *FactoryOptions) {
		o.Sink = sink
		o.Identity = identity
	})
	return f, registry
}

func TestSpecializedAgent_PlainResponse(t *testing.T) {
	llm := model.NewMockModel("agent-test")
	llm.QueueResponse(model.Response{Text: "Hello there!", FinishReason: "stop"})
	sink := core.NewCollectorSink()

	f, _ := newTestFactory(llm, sink, nil)
	a, err := f.Register(Config{ID: "chat", Name: "Chat", Description: "General conversation"})
	require.NoError(t, err)

	err = a.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("hi")})
	require.NoError(t, err)

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello there!", msgs[0].Text())
	assert.Equal(t, core.RoleAssistant, msgs[0].Role)
}

func TestSpecializedAgent_ToolCallLoop(t *testing.T) {
	llm := model.NewMockModel("agent-test")
	llm.QueueResponse(model.Response{
		ToolCalls:    []model.ToolCall{{ID: "call-1", Name: "echo", Arguments: `{"text": "ping"}`}},
		FinishReason: "tool_calls",
	})
	llm.QueueResponse(model.Response{Text: "The tool said: ping", FinishReason: "stop"})
	sink := core.NewCollectorSink()

	f, _ := newTestFactory(llm, sink, nil)
	a, err := f.Register(Config{ID: "worker", Name: "Worker", ToolNames: []string{"echo"}})
	require.NoError(t, err)

	err = a.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("use the tool")})
	require.NoError(t, err)

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "The tool said: ping", msgs[0].Text())

	// Second generation saw the tool result in the conversation.
	require.NotNil(t, llm.LastRequest)
	last := llm.LastRequest.Messages
	require.GreaterOrEqual(t, len(last), 3)
	toolTurn := last[len(last)-1]
	assert.Equal(t, model.RoleTool, toolTurn.Role)
	require.Len(t, toolTurn.ToolResults, 1)
	assert.Equal(t, "ping", toolTurn.ToolResults[0].Value)
}

func TestSpecializedAgent_UnknownToolCall(t *testing.T) {
	llm := model.NewMockModel("agent-test")
	llm.QueueResponse(model.Response{
		ToolCalls: []model.ToolCall{{ID: "call-1", Name: "ghost", Arguments: `{}`}},
	})
	llm.QueueResponse(model.Response{Text: "done"})
	sink := core.NewCollectorSink()

	f, _ := newTestFactory(llm, sink, nil)
	a, err := f.Register(Config{ID: "worker", Name: "Worker", ToolNames: []string{"echo"}})
	require.NoError(t, err)

	err = a.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("go")})
	require.NoError(t, err)

	toolTurn := llm.LastRequest.Messages[len(llm.LastRequest.Messages)-1]
	require.Len(t, toolTurn.ToolResults, 1)
	assert.Equal(t, "Tool not found: ghost", toolTurn.ToolResults[0].Error)
}

func TestSpecializedAgent_ToolFailureContinuesLoop(t *testing.T) {
	failing := tool.NewFunctionTool("boom", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("kaput")
		},
	)
	registry := tool.NewRegistry()
	registry.RegisterFunc(failing)

	llm := model.NewMockModel("agent-test")
	llm.QueueResponse(model.Response{
		ToolCalls: []model.ToolCall{{ID: "c1", Name: "boom", Arguments: `{}`}},
	})
	llm.QueueResponse(model.Response{Text: "the tool failed, sorry"})
	sink := core.NewCollectorSink()

	f := NewFactory(llm, registry, func(o *FactoryOptions) { o.Sink = sink })
	a, err := f.Register(Config{ID: "worker", Name: "Worker", ToolNames: []string{"boom"}})
	require.NoError(t, err)

	err = a.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("go")})
	require.NoError(t, err)

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "the tool failed, sorry", msgs[0].Text())
}

func TestSpecializedAgent_GenerationErrorPropagates(t *testing.T) {
	llm := model.NewMockModel("agent-test")
	llm.FailGenerate(errors.New("provider down"))

	f, _ := newTestFactory(llm, core.NewCollectorSink(), nil)
	a, err := f.Register(Config{ID: "chat", Name: "Chat"})
	require.NoError(t, err)

	err = a.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("hi")})
	assert.Error(t, err)
}

func TestSpecializedAgent_MaxStepsEmitsNotice(t *testing.T) {
	llm := model.NewMockModel("agent-test")
	// Every turn requests another tool call; the loop must terminate.
	for i := 0; i < 3; i++ {
		llm.QueueResponse(model.Response{
			ToolCalls: []model.ToolCall{{ID: "c", Name: "echo", Arguments: `{"text": "x"}`}},
		})
	}
	sink := core.NewCollectorSink()

	f, _ := newTestFactory(llm, sink, nil)
	a, err := f.Register(Config{ID: "w", Name: "W", ToolNames: []string{"echo"}, MaxSteps: 3})
	require.NoError(t, err)

	err = a.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("loop")})
	require.NoError(t, err)

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text(), "allowed number of steps")
}

func TestSpecializedAgent_SystemPromptTemplating(t *testing.T) {
	llm := model.NewMockModel("agent-test")
	llm.QueueResponse(model.Response{Text: "ok"})

	f, _ := newTestFactory(llm, core.NewCollectorSink(), nil)
	a, err := f.Register(Config{
		ID:           "chat",
		Name:         "Atlas",
		SystemPrompt: "You are {{.agent_name}}. Be helpful.",
	})
	require.NoError(t, err)

	require.NoError(t, a.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("hi")}))
	assert.Equal(t, "You are Atlas. Be helpful.", llm.LastRequest.Instructions)
}

// -------------------- Factory Tests --------------------

func TestFactory_DuplicateIDRejected(t *testing.T) {
	f, _ := newTestFactory(model.NewMockModel("m"), nil, nil)
	_, err := f.Register(Config{ID: "chat", Name: "Chat"})
	require.NoError(t, err)
	_, err = f.Register(Config{ID: "chat", Name: "Other"})
	assert.Error(t, err)
}

func TestFactory_UnknownToolRejected(t *testing.T) {
	f, _ := newTestFactory(model.NewMockModel("m"), nil, nil)
	_, err := f.Register(Config{ID: "a", Name: "A", ToolNames: []string{"missing"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestFactory_AuthToolsRequireIdentity(t *testing.T) {
	secret := tool.NewFunctionTool("secret", "Needs auth",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(context.Context, map[string]any) (any, error) { return "classified", nil })

	build := func(identity *core.Identity) *SpecializedAgent {
		registry := tool.NewRegistry()
		registry.Register(secret, tool.Metadata{Name: "secret", RequiresAuth: true})
		f := NewFactory(model.NewMockModel("m"), registry, func(o *FactoryOptions) {
			o.Identity = identity
		})
		a, err := f.Register(Config{ID: "a", Name: "A", ToolNames: []string{"secret"}})
		require.NoError(t, err)
		return a
	}

	anon := build(nil)
	assert.Empty(t, anon.tools)

	authed := build(&core.Identity{Subject: "user-1"})
	assert.Contains(t, authed.tools, "secret")
}

func TestFactory_PerAgentModelOverride(t *testing.T) {
	shared := model.NewMockModel("shared")
	private := model.NewMockModel("private")
	private.QueueResponse(model.Response{Text: "from private model"})
	sink := core.NewCollectorSink()

	f, _ := newTestFactory(shared, sink, nil)
	a, err := f.Register(Config{ID: "special", Name: "Special", Model: private})
	require.NoError(t, err)

	require.NoError(t, a.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("hi")}))

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "from private model", msgs[0].Text())
	assert.Nil(t, shared.LastRequest)
}

func TestFactory_RouterAgentDelegates(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.QueueStructured(map[string]any{"selectedAgentId": "coder", "confidence": 0.9})
	llm.QueueResponse(model.Response{Text: "here is some code"})
	sink := core.NewCollectorSink()

	f, _ := newTestFactory(llm, sink, nil)
	_, err := f.Register(Config{ID: "chat", Name: "Chat", Description: "General conversation"})
	require.NoError(t, err)
	_, err = f.Register(Config{ID: "coder", Name: "Coder", Description: "Writes code"})
	require.NoError(t, err)

	ra := f.RouterAgent()
	assert.Equal(t, "router", ra.ID())

	err = ra.ProcessMessages(context.Background(), []core.Message{core.NewUserMessage("write a function")})
	require.NoError(t, err)

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "here is some code", msgs[0].Text())
}

func TestFactory_AgentsInRegistrationOrder(t *testing.T) {
	f, _ := newTestFactory(model.NewMockModel("m"), nil, nil)
	_, err := f.Register(Config{ID: "chat", Name: "Chat"})
	require.NoError(t, err)
	_, err = f.Register(Config{ID: "coder", Name: "Coder"})
	require.NoError(t, err)

	agents := f.SpecializedAgents()
	require.Len(t, agents, 2)
	assert.Equal(t, "chat", agents[0].ID())
	assert.Equal(t, "coder", agents[1].ID())

	got, ok := f.Get("coder")
	require.True(t, ok)
	assert.Equal(t, "Coder", got.Name())
	assert.Equal(t, 2, f.Len())
}
