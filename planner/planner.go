// Package planner turns a free-text request plus retrieved context into a
// validated core.Plan. Plan generation never fails outward: any model,
// parse or validation failure degrades to a deterministic single-step
// fallback plan so the orchestrator always has something to execute.
package planner

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
	"github.com/overturehq/overture/tool"
)

//go:embed templates/planner_prompt.md
var plannerPromptTemplate string

//go:embed schema.json
var planSchema string

var plannerTmpl = template.Must(template.New("planner").Parse(plannerPromptTemplate))

// FallbackStepID is the step id carried by every fallback plan.
const FallbackStepID = "fallback-step"

// Sentinel values backfilled into steps the model left incomplete.
const (
	defaultDescription = "No description provided"
	defaultOutcome     = "No expected outcome specified"
)

type promptData struct {
	Tools   []tool.Metadata
	Context string
}

// Options configures a Planner instance.
type Options struct {
	// Registry, when set, exposes the available tool inventory to the
	// planning prompt so generated steps can bind to real tool names.
	Registry *tool.Registry
	Logger   logging.Logger
}

// Planner generates plans from requests using a generation capability.
type Planner struct {
	llm      model.Model
	registry *tool.Registry
	logger   logging.Logger
}

// New creates a Planner backed by the given model.
func New(llm model.Model, optFns ...func(o *Options)) *Planner {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{llm: llm, registry: opts.Registry, logger: opts.Logger}
}

// CreatePlan generates a plan for the request. It never returns an error:
// ParseError and ValidationError from the decoding stage, and any model
// failure, are recovered locally via the deterministic fallback plan. The
// returned plan is structurally valid (every step carries a non-empty id)
// but not semantically verified.
func (p *Planner) CreatePlan(ctx context.Context, request string, planContext any) core.Plan {
	prompt, err := p.buildPrompt(request, planContext)
	if err != nil {
		p.logger.Warn("planner.prompt.render_failed", "error", err.Error())
		return FallbackPlan(request)
	}

	resp, err := p.llm.Generate(ctx, model.Request{
		Instructions: prompt,
		Messages:     []model.ChatMessage{{Role: model.RoleUser, Text: request}},
	})
	if err != nil {
		p.logger.Warn("planner.generate.failed", "error", err.Error())
		return FallbackPlan(request)
	}

	plan, err := decodePlan(resp.Text)
	if err != nil {
		// ParseError / ValidationError are recovered here, never surfaced.
		p.logger.Warn("planner.decode.failed", "error", err.Error())
		return FallbackPlan(request)
	}

	p.logger.Info("planner.plan.created", "plan_id", plan.ID, "steps", len(plan.Steps))
	return plan
}

func (p *Planner) buildPrompt(request string, planContext any) (string, error) {
	data := promptData{}
	if p.registry != nil {
		data.Tools = p.registry.AllMetadata()
	}
	if planContext != nil {
		if s, ok := planContext.(string); ok {
			data.Context = s
		} else if encoded, err := json.Marshal(planContext); err == nil {
			data.Context = string(encoded)
		}
	}

	var buf bytes.Buffer
	if err := plannerTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render planner prompt: %w", err)
	}
	return buf.String(), nil
}

// decodePlan runs the two-stage decode (balanced-span extraction + strict
// schema validation) and materializes a core.Plan, backfilling every field
// the model omitted. The returned error is always a tagged
// *structured.ParseError or *structured.ValidationError.
func decodePlan(text string) (core.Plan, error) {
	doc, err := structured.Decode(text)
	if err != nil {
		return core.Plan{}, err
	}
	if err := structured.Validate(doc, planSchema); err != nil {
		return core.Plan{}, err
	}

	plan := core.Plan{
		ID:   core.NewID(),
		Goal: stringField(doc, "goal", ""),
	}
	plan.Reasoning = stringField(doc, "reasoning", "")

	rawSteps, _ := doc["steps"].([]any)
	plan.Steps = make([]core.PlanStep, 0, len(rawSteps))
	for _, raw := range rawSteps {
		stepDoc, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		plan.Steps = append(plan.Steps, materializeStep(stepDoc))
	}

	return plan, nil
}

// materializeStep builds a PlanStep from a decoded step document, defaulting
// each missing or malformed field individually.
func materializeStep(doc map[string]any) core.PlanStep {
	step := core.PlanStep{
		ID:              stringField(doc, "id", ""),
		Description:     stringField(doc, "description", defaultDescription),
		ToolName:        stringField(doc, "toolName", ""),
		ExpectedOutcome: stringField(doc, "expectedOutcome", defaultOutcome),
	}
	if step.ID == "" {
		step.ID = core.NewID()
	}

	if params, ok := doc["toolParameters"].(map[string]any); ok {
		step.ToolParameters = params
	} else {
		step.ToolParameters = map[string]any{}
	}

	step.DependsOn = []string{}
	if deps, ok := doc["dependsOn"].([]any); ok {
		for _, d := range deps {
			if id, ok := d.(string); ok {
				step.DependsOn = append(step.DependsOn, id)
			}
		}
	}

	return step
}

func stringField(doc map[string]any, key, fallback string) string {
	if v, ok := doc[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// FallbackPlan is the deterministic single-step plan used whenever
// generation or decoding fails. The single step carries no tool binding, so
// executing it always succeeds trivially.
func FallbackPlan(request string) core.Plan {
	return core.Plan{
		ID:        core.NewID(),
		Goal:      "Process request: " + request,
		Reasoning: "Plan generation was unavailable; processing the request as a single step.",
		Steps: []core.PlanStep{
			{
				ID:              FallbackStepID,
				Description:     "Process the user request directly",
				ToolParameters:  map[string]any{},
				DependsOn:       []string{},
				ExpectedOutcome: "A direct response to the user request",
			},
		},
	}
}
