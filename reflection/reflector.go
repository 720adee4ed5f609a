// Package reflection evaluates completed executions. The Reflector asks the
// model how well an execution served the original request and reports the
// answer as a core.Reflection. Like planning, reflection never fails
// outward: every failure mode collapses into a deterministic fallback
// reflection so the orchestration cycle always completes.
package reflection

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/logging"
	"github.com/overturehq/overture/model"
	"github.com/overturehq/overture/structured"
)

//go:embed templates/reflector_prompt.md
var reflectorPromptTemplate string

//go:embed schema.json
var reflectionSchema string

var reflectorTmpl = template.Must(template.New("reflector").Parse(reflectorPromptTemplate))

type promptData struct {
	Request string
	Plan    string
	Results string
}

// Options configures a Reflector instance.
type Options struct {
	Logger logging.Logger
}

// Reflector analyzes execution outcomes using a generation capability.
type Reflector struct {
	llm    model.Model
	logger logging.Logger
}

// New creates a Reflector backed by the given model.
func New(llm model.Model, optFns ...func(o *Options)) *Reflector {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reflector{llm: llm, logger: opts.Logger}
}

// Reflect evaluates how well the execution served the original request. It
// never returns an error: model failures and malformed output degrade to
// the fallback reflection, and individual missing fields are defaulted
// field-wise so a partially valid document still contributes what it has.
func (r *Reflector) Reflect(ctx context.Context, request string, plan core.Plan, result core.ExecutionResult) core.Reflection {
	prompt, err := r.buildPrompt(request, plan, result)
	if err != nil {
		r.logger.Warn("reflector.prompt.render_failed", "error", err.Error())
		return FallbackReflection()
	}

	resp, err := r.llm.Generate(ctx, model.Request{
		Instructions: prompt,
		Messages:     []model.ChatMessage{{Role: model.RoleUser, Text: "Evaluate the execution."}},
	})
	if err != nil {
		r.logger.Warn("reflector.generate.failed", "error", err.Error())
		return FallbackReflection()
	}

	reflection, err := decodeReflection(resp.Text)
	if err != nil {
		r.logger.Warn("reflector.decode.failed", "error", err.Error())
		return FallbackReflection()
	}

	r.logger.Info("reflector.reflection.created", "success", reflection.Success)
	return reflection
}

func (r *Reflector) buildPrompt(request string, plan core.Plan, result core.ExecutionResult) (string, error) {
	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode execution result: %w", err)
	}

	var buf bytes.Buffer
	if err := reflectorTmpl.Execute(&buf, promptData{
		Request: request,
		Plan:    string(planJSON),
		Results: string(resultJSON),
	}); err != nil {
		return "", fmt.Errorf("failed to render reflector prompt: %w", err)
	}
	return buf.String(), nil
}

// decodeReflection runs the two-stage decode and materializes a
// core.Reflection. Only "success" is required by the schema; every other
// field is defaulted individually when absent or malformed.
func decodeReflection(text string) (core.Reflection, error) {
	doc, err := structured.Decode(text)
	if err != nil {
		return core.Reflection{}, err
	}
	if err := structured.Validate(doc, reflectionSchema); err != nil {
		return core.Reflection{}, err
	}

	reflection := core.Reflection{
		Insights:     stringSliceField(doc, "insights"),
		Improvements: stringSliceField(doc, "improvements"),
	}
	if success, ok := doc["success"].(bool); ok {
		reflection.Success = success
	}
	if feedback, ok := doc["feedback"].(string); ok {
		reflection.Feedback = feedback
	}

	return reflection, nil
}

func stringSliceField(doc map[string]any, key string) []string {
	out := []string{}
	raw, ok := doc[key].([]any)
	if !ok {
		return out
	}
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// FallbackReflection is the deterministic reflection used whenever
// generation or decoding fails. It reports the cycle as unsuccessful so a
// silent reflection failure is never mistaken for a confirmed success.
func FallbackReflection() core.Reflection {
	return core.Reflection{
		Success:      false,
		Insights:     []string{"Reflection process failed"},
		Improvements: []string{},
		Feedback:     "Unable to evaluate the execution outcome.",
	}
}
