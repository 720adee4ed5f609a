package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overturehq/overture/model"
	"github.com/overturehq/overture/tool"
)

func TestCreatePlan_ValidResponse(t *testing.T) {
	llm := model.NewMockModel("planner-test")
	llm.QueueResponse(model.Response{Text: "Here is the plan:\n" + `{
		"goal": "Add two numbers",
		"reasoning": "Single tool call suffices",
		"steps": [
			{
				"id": "s1",
				"description": "Add 2 and 2",
				"toolName": "calculate_sum",
				"toolParameters": {"a": 2, "b": 2},
				"dependsOn": [],
				"expectedOutcome": "The sum 4"
			}
		]
	}`, FinishReason: "stop"})

	p := New(llm)
	plan := p.CreatePlan(context.Background(), "What is 2+2?", nil)

	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "Add two numbers", plan.Goal)
	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, "s1", step.ID)
	assert.Equal(t, "calculate_sum", step.ToolName)
	assert.Equal(t, float64(2), step.ToolParameters["a"])
	assert.Equal(t, "The sum 4", step.ExpectedOutcome)
}

func TestCreatePlan_BackfillsMissingStepFields(t *testing.T) {
	llm := model.NewMockModel("planner-test")
	llm.QueueResponse(model.Response{Text: `{"goal": "g", "steps": [{}]}`})

	plan := New(llm).CreatePlan(context.Background(), "do something", nil)

	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.NotEmpty(t, step.ID)
	assert.Equal(t, "No description provided", step.Description)
	assert.Equal(t, "No expected outcome specified", step.ExpectedOutcome)
	assert.Empty(t, step.ToolName)
	assert.NotNil(t, step.ToolParameters)
	assert.NotNil(t, step.DependsOn)
}

func TestCreatePlan_FallbackOnGarbage(t *testing.T) {
	llm := model.NewMockModel("planner-test")
	llm.QueueResponse(model.Response{Text: "I cannot produce a plan right now."})

	plan := New(llm).CreatePlan(context.Background(), "summarize the report", nil)

	assert.Equal(t, "Process request: summarize the report", plan.Goal)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, FallbackStepID, plan.Steps[0].ID)
	assert.Empty(t, plan.Steps[0].ToolName)
}

func TestCreatePlan_FallbackOnSchemaViolation(t *testing.T) {
	llm := model.NewMockModel("planner-test")
	// Parses as JSON but misses the required steps array.
	llm.QueueResponse(model.Response{Text: `{"goal": "g"}`})

	plan := New(llm).CreatePlan(context.Background(), "check mail", nil)

	assert.Equal(t, "Process request: check mail", plan.Goal)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, FallbackStepID, plan.Steps[0].ID)
}

func TestCreatePlan_FallbackOnModelError(t *testing.T) {
	llm := model.NewMockModel("planner-test")
	llm.FailGenerate(errors.New("provider down"))

	plan := New(llm).CreatePlan(context.Background(), "ping", nil)

	assert.Equal(t, "Process request: ping", plan.Goal)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, FallbackStepID, plan.Steps[0].ID)
}

func TestCreatePlan_PromptIncludesToolsAndContext(t *testing.T) {
	registry := tool.NewRegistry()
	registry.RegisterFunc(tool.NewFunctionTool("calculate_sum", "Calculate the sum of two numbers",
		map[string]any{"type": "object"},
		func(context.Context, map[string]any) (any, error) { return nil, nil }))

	llm := model.NewMockModel("planner-test")
	llm.QueueResponse(model.Response{Text: `{"goal": "g", "steps": []}`})

	p := New(llm, func(o *Options) { o.Registry = registry })
	p.CreatePlan(context.Background(), "add numbers", "prior: user prefers short answers")

	require.NotNil(t, llm.LastRequest)
	assert.Contains(t, llm.LastRequest.Instructions, "calculate_sum")
	assert.Contains(t, llm.LastRequest.Instructions, "prior: user prefers short answers")
}

func TestFallbackPlan_Shape(t *testing.T) {
	plan := FallbackPlan("hello")
	assert.Equal(t, "Process request: hello", plan.Goal)
	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, FallbackStepID, step.ID)
	assert.Empty(t, step.DependsOn)
	assert.NotNil(t, step.ToolParameters)
}
