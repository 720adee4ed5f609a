package reflection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/model"
)

func samplePlan() core.Plan {
	return core.Plan{
		ID:   "plan-1",
		Goal: "Answer the question",
		Steps: []core.PlanStep{
			{ID: "s1", Description: "Look it up", ToolName: "lookup"},
		},
	}
}

func sampleResult() core.ExecutionResult {
	return core.ExecutionResult{
		Success:     true,
		StepResults: []core.StepResult{{StepID: "s1", Value: "42"}},
	}
}

func TestReflect_ValidResponse(t *testing.T) {
	llm := model.NewMockModel("reflector-test")
	llm.QueueResponse(model.Response{Text: `{
		"success": true,
		"insights": ["lookup tool answered directly"],
		"improvements": ["cache the result"],
		"feedback": "Found the answer: 42"
	}`})

	refl := New(llm).Reflect(context.Background(), "what is the answer", samplePlan(), sampleResult())

	assert.True(t, refl.Success)
	assert.Equal(t, []string{"lookup tool answered directly"}, refl.Insights)
	assert.Equal(t, []string{"cache the result"}, refl.Improvements)
	assert.Equal(t, "Found the answer: 42", refl.Feedback)
}

func TestReflect_DefaultsMissingFields(t *testing.T) {
	llm := model.NewMockModel("reflector-test")
	// Only the required field is present; the rest default field-wise.
	llm.QueueResponse(model.Response{Text: `{"success": false}`})

	refl := New(llm).Reflect(context.Background(), "req", samplePlan(), sampleResult())

	assert.False(t, refl.Success)
	assert.Empty(t, refl.Insights)
	assert.Empty(t, refl.Improvements)
	assert.Empty(t, refl.Feedback)
	assert.NotNil(t, refl.Insights)
}

func TestReflect_FallbackOnGarbage(t *testing.T) {
	llm := model.NewMockModel("reflector-test")
	llm.QueueResponse(model.Response{Text: "the execution went fine I think"})

	refl := New(llm).Reflect(context.Background(), "req", samplePlan(), sampleResult())

	assert.False(t, refl.Success)
	assert.Equal(t, []string{"Reflection process failed"}, refl.Insights)
}

func TestReflect_FallbackOnMissingRequiredField(t *testing.T) {
	llm := model.NewMockModel("reflector-test")
	llm.QueueResponse(model.Response{Text: `{"feedback": "looks good"}`})

	refl := New(llm).Reflect(context.Background(), "req", samplePlan(), sampleResult())

	assert.False(t, refl.Success)
	assert.Equal(t, []string{"Reflection process failed"}, refl.Insights)
}

func TestReflect_FallbackOnModelError(t *testing.T) {
	llm := model.NewMockModel("reflector-test")
	llm.FailGenerate(errors.New("provider down"))

	refl := New(llm).Reflect(context.Background(), "req", samplePlan(), sampleResult())

	assert.False(t, refl.Success)
	assert.Equal(t, []string{"Reflection process failed"}, refl.Insights)
}

func TestReflect_PromptCarriesPlanAndResults(t *testing.T) {
	llm := model.NewMockModel("reflector-test")
	llm.QueueResponse(model.Response{Text: `{"success": true}`})

	New(llm).Reflect(context.Background(), "what is the answer", samplePlan(), sampleResult())

	require.NotNil(t, llm.LastRequest)
	assert.Contains(t, llm.LastRequest.Instructions, "what is the answer")
	assert.Contains(t, llm.LastRequest.Instructions, "plan-1")
	assert.Contains(t, llm.LastRequest.Instructions, "42")
}
