// Package gateway adapts the generative service to the two capabilities the
// exam core consumes: producing phase content and grading freeform answers.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hdnguyen/bandexam/internal/llm"
	"github.com/hdnguyen/bandexam/internal/model"
)

// Gateway wraps an LLM provider with the exam's prompts and validation.
type Gateway struct {
	provider llm.Provider
	timeout  time.Duration
}

// New creates a Gateway. timeout bounds each collaborator call; a timeout
// surfaces as an error to the caller, never as a hang.
func New(provider llm.Provider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{provider: provider, timeout: timeout}
}

// GenerateContent produces the exam content for one phase at the given
// level. Generation is mandatory: any failure is returned to the caller.
func (g *Gateway) GenerateContent(ctx context.Context, level model.Level, phase model.Phase) (*model.PhaseContent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var (
		prompt string
		schema *llm.Schema
	)
	switch phase {
	case model.PhaseListeningSpeaking:
		prompt = listeningSpeakingPrompt(level)
		schema = listeningSpeakingSchema
	case model.PhaseReadingWriting:
		prompt = readingWritingPrompt(level)
		schema = readingWritingSchema
	default:
		return nil, fmt.Errorf("unknown phase type: %q", phase)
	}

	start := time.Now()
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      generationSystemInstruction,
		Prompt:      prompt,
		Schema:      schema,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s content: %w", phase, err)
	}
	slog.Info("content generated",
		"phase", phase, "level", level,
		"model", g.provider.ModelID(), "elapsed", time.Since(start))

	if err := probeContent(phase, resp.Content); err != nil {
		return nil, err
	}

	var content model.PhaseContent
	if err := json.Unmarshal(resp.Content, &content); err != nil {
		return nil, fmt.Errorf("decode %s content: %w", phase, err)
	}
	return &content, nil
}

// GradeFreeform sends a grading or analysis prompt and returns the raw
// structured JSON scores. Callers own the fallback policy on error.
func (g *Gateway) GradeFreeform(ctx context.Context, prompt, instruction string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      instruction,
		Prompt:      prompt,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("grade freeform: %w", err)
	}
	if !gjson.ValidBytes(resp.Content) {
		return nil, &llm.ErrInvalidResponse{
			Content: resp.Content,
			Err:     fmt.Errorf("grading output is not valid JSON"),
		}
	}
	return resp.Content, nil
}

// probeContent spot-checks generated content beyond what the schema can
// express: every question group must exist and carry answerable items.
func probeContent(phase model.Phase, raw json.RawMessage) error {
	checks := map[model.Phase][]string{
		model.PhaseListeningSpeaking: {"listening.sections", "speaking.part1", "speaking.part2.topic", "speaking.part3"},
		model.PhaseReadingWriting:    {"reading.passages", "writing.task2.question"},
	}
	for _, path := range checks[phase] {
		if !gjson.GetBytes(raw, path).Exists() {
			return &llm.ErrInvalidResponse{
				Content: raw,
				Err:     fmt.Errorf("generated content missing %q", path),
			}
		}
	}

	// Objective groups need at least one question with a correct answer.
	groupPath := "listening.sections"
	if phase == model.PhaseReadingWriting {
		groupPath = "reading.passages"
	}
	groups := gjson.GetBytes(raw, groupPath).Array()
	if len(groups) == 0 {
		return &llm.ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("generated content has no %s", groupPath),
		}
	}
	for _, group := range groups {
		if len(group.Get("questions").Array()) == 0 {
			return &llm.ErrInvalidResponse{
				Content: raw,
				Err:     fmt.Errorf("generated %s group %s has no questions", groupPath, group.Get("id").Raw),
			}
		}
	}
	return nil
}
