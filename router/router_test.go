package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/model"
)

// fakeAgent records delegations for assertions.
type fakeAgent struct {
	id     string
	err    error
	called bool
	got    []core.Message
}

func (f *fakeAgent) ID() string             { return f.id }
func (f *fakeAgent) Name() string           { return "Agent " + f.id }
func (f *fakeAgent) Description() string    { return "fake agent " + f.id }
func (f *fakeAgent) Capabilities() []string { return nil }
func (f *fakeAgent) ProcessMessages(_ context.Context, messages []core.Message) error {
	f.called = true
	f.got = messages
	return f.err
}

func conversation(text string) []core.Message {
	return []core.Message{core.NewUserMessage(text)}
}

func TestRoute_DelegatesToSelectedAgent(t *testing.T) {
	chat := &fakeAgent{id: "chat"}
	coder := &fakeAgent{id: "coder"}

	llm := model.NewMockModel("router-test")
	llm.QueueStructured(map[string]any{
		"selectedAgentId": "coder",
		"confidence":      0.92,
		"reasoning":       "programming question",
	})

	New(llm, []core.Agent{chat, coder}).Route(context.Background(), conversation("write a go function"))

	assert.True(t, coder.called)
	assert.False(t, chat.called)
	require.Len(t, coder.got, 1)
	assert.Equal(t, "write a go function", coder.got[0].Text())
}

func TestRoute_SchemaConstrainsAgentIDs(t *testing.T) {
	chat := &fakeAgent{id: "chat"}
	coder := &fakeAgent{id: "coder"}

	llm := model.NewMockModel("router-test")
	llm.QueueStructured(map[string]any{"selectedAgentId": "chat"})

	New(llm, []core.Agent{chat, coder}).Route(context.Background(), conversation("hello"))

	require.NotNil(t, llm.LastStructured)
	props := llm.LastStructured.Schema["properties"].(map[string]any)
	selected := props["selectedAgentId"].(map[string]any)
	assert.ElementsMatch(t, []any{"chat", "coder"}, selected["enum"])
	assert.InDelta(t, routingTemperature, llm.LastStructured.Temperature, 0.001)
}

func TestRoute_SingleAgentSkipsSelection(t *testing.T) {
	only := &fakeAgent{id: "solo"}
	llm := model.NewMockModel("router-test")

	New(llm, []core.Agent{only}).Route(context.Background(), conversation("hi"))

	assert.True(t, only.called)
	assert.Nil(t, llm.LastStructured)
}

func TestRoute_SelectionFailureFallsBackToChat(t *testing.T) {
	chat := &fakeAgent{id: "chat"}
	coder := &fakeAgent{id: "coder"}

	llm := model.NewMockModel("router-test")
	llm.FailStructured(errors.New("provider down"))

	New(llm, []core.Agent{chat, coder}).Route(context.Background(), conversation("anything"))

	assert.True(t, chat.called)
	assert.False(t, coder.called)
}

func TestRoute_NoChatAgentFallsBackToFirst(t *testing.T) {
	research := &fakeAgent{id: "research"}
	coder := &fakeAgent{id: "coder"}

	llm := model.NewMockModel("router-test")
	llm.FailStructured(errors.New("provider down"))

	New(llm, []core.Agent{research, coder}).Route(context.Background(), conversation("anything"))

	assert.True(t, research.called)
	assert.False(t, coder.called)
}

func TestRoute_DelegationFailureEmitsSyntheticMessage(t *testing.T) {
	chat := &fakeAgent{id: "chat", err: errors.New("agent broke")}
	other := &fakeAgent{id: "other"}
	sink := core.NewCollectorSink()

	llm := model.NewMockModel("router-test")
	llm.QueueStructured(map[string]any{"selectedAgentId": "chat"})

	New(llm, []core.Agent{chat, other}, func(o *Options) { o.Sink = sink }).
		Route(context.Background(), conversation("hi"))

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text(), "failed to process the request")
}

func TestRoute_NoAgentsEmitsSyntheticMessage(t *testing.T) {
	sink := core.NewCollectorSink()
	llm := model.NewMockModel("router-test")

	New(llm, nil, func(o *Options) { o.Sink = sink }).
		Route(context.Background(), conversation("hi"))

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text(), "No agents are available")
}

func TestRoute_ConfidenceNeverGates(t *testing.T) {
	chat := &fakeAgent{id: "chat"}
	coder := &fakeAgent{id: "coder"}
	sink := core.NewCollectorSink()

	llm := model.NewMockModel("router-test")
	llm.QueueStructured(map[string]any{
		"selectedAgentId": "coder",
		"confidence":      0.01,
		"reasoning":       "best guess",
	})

	New(llm, []core.Agent{chat, coder}, func(o *Options) { o.Sink = sink }).
		Route(context.Background(), conversation("x"))

	// Low confidence still delegates.
	assert.True(t, coder.called)

	// The decision itself is surfaced to the user before delegation.
	var thinking []string
	for _, ev := range sink.Events() {
		if ev.Type == core.EventThinking {
			thinking = append(thinking, ev.Text)
		}
	}
	require.Len(t, thinking, 1)
	assert.Contains(t, thinking[0], "Routing to Agent coder")
	assert.Contains(t, thinking[0], "0.01")
	assert.Contains(t, thinking[0], "best guess")
}
