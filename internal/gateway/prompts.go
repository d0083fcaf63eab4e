package gateway

import (
	"fmt"
	"strings"

	"github.com/hdnguyen/bandexam/internal/llm"
	"github.com/hdnguyen/bandexam/internal/model"
)

const generationSystemInstruction = `You are an experienced English language examiner who designs ` +
	`band-calibrated mock exams. Produce original content matched to the requested difficulty. ` +
	`Respond with JSON only, exactly matching the requested structure.`

func listeningSpeakingPrompt(level model.Level) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a listening and speaking mock exam for a %s learner targeting band %s.\n\n", level, level.TargetBand())
	b.WriteString(`LISTENING: exactly 4 sections, 5 questions each (20 questions total).
Section 1: everyday social conversation (fill_blank form completion).
Section 2: monologue on a general topic (multiple_choice).
Section 3: academic discussion between students (multiple_choice and matching).
Section 4: academic lecture (fill_blank, short_answer).
Every section needs an integer "id" (1..4), a "title", brief "instructions",
an "audio_transcript" of 150-250 words, and "questions".
Every question needs an integer "id" (1..5 within its section), "type", "question",
"correct_answer", and "options" when type is multiple_choice or matching.
For matching questions encode correct_answer as comma-separated pairs, e.g. "A:iii, B:i, C:ii".

SPEAKING:
part1: 4 short prompts about familiar topics, each with integer "id" and "question".
part2: one cue card with "topic" and a "task_card" listing 3-4 points to cover.
part3: 4 discussion prompts related to the part2 topic, each with integer "id" and "question".
`)
	return b.String()
}

func readingWritingPrompt(level model.Level) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a reading and writing mock exam for a %s learner targeting band %s.\n\n", level, level.TargetBand())
	b.WriteString(`READING: exactly 2 passages, 5 questions each (10 questions total).
Passage 1: 250-350 words on a general-interest topic (tf_ng and multiple_choice questions).
Passage 2: 300-400 words on an academic topic (matching_headings, short_answer, fill_blank).
Every passage needs an integer "id" (1, 2), a "title", the passage text in "content",
and "questions". Every question needs an integer "id" (1..5 within its passage), "type",
"question", "correct_answer", and "options" when the type requires choices.

WRITING:
task1: describe a chart or process in at least 150 words; include "instructions",
a textual "chart_description" of the visual data, and "word_limit": 150.
task2: an essay prompt of at least 250 words; include "question" and "word_limit": 250.
`)
	return b.String()
}

// Content schemas constrain the generated structure so malformed output is
// rejected before it reaches a session.
var listeningSpeakingSchema = &llm.Schema{
	Name: "listening_speaking_content",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"listening", "speaking"},
		"properties": map[string]any{
			"listening": map[string]any{
				"type":     "object",
				"required": []any{"sections"},
				"properties": map[string]any{
					"sections": map[string]any{
						"type":     "array",
						"minItems": 4,
						"maxItems": 4,
						"items": map[string]any{
							"type":     "object",
							"required": []any{"id", "title", "audio_transcript", "questions"},
							"properties": map[string]any{
								"id":               map[string]any{"type": "integer"},
								"title":            map[string]any{"type": "string"},
								"instructions":     map[string]any{"type": "string"},
								"audio_transcript": map[string]any{"type": "string"},
								"questions":        questionArraySchema(5),
							},
						},
					},
				},
			},
			"speaking": map[string]any{
				"type":     "object",
				"required": []any{"part1", "part2", "part3"},
				"properties": map[string]any{
					"part1": promptArraySchema(),
					"part2": map[string]any{
						"type":     "object",
						"required": []any{"topic", "task_card"},
						"properties": map[string]any{
							"topic":     map[string]any{"type": "string"},
							"task_card": map[string]any{"type": "string"},
						},
					},
					"part3": promptArraySchema(),
				},
			},
		},
	},
}

var readingWritingSchema = &llm.Schema{
	Name: "reading_writing_content",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"reading", "writing"},
		"properties": map[string]any{
			"reading": map[string]any{
				"type":     "object",
				"required": []any{"passages"},
				"properties": map[string]any{
					"passages": map[string]any{
						"type":     "array",
						"minItems": 2,
						"maxItems": 2,
						"items": map[string]any{
							"type":     "object",
							"required": []any{"id", "title", "content", "questions"},
							"properties": map[string]any{
								"id":        map[string]any{"type": "integer"},
								"title":     map[string]any{"type": "string"},
								"content":   map[string]any{"type": "string"},
								"questions": questionArraySchema(5),
							},
						},
					},
				},
			},
			"writing": map[string]any{
				"type":     "object",
				"required": []any{"task1", "task2"},
				"properties": map[string]any{
					"task1": writingTaskSchema(),
					"task2": writingTaskSchema(),
				},
			},
		},
	},
}

func questionArraySchema(count int) map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": count,
		"maxItems": count,
		"items": map[string]any{
			"type":     "object",
			"required": []any{"id", "type", "question", "correct_answer"},
			"properties": map[string]any{
				"id": map[string]any{"type": "integer"},
				"type": map[string]any{
					"type": "string",
					"enum": []any{"multiple_choice", "fill_blank", "matching", "short_answer", "tf_ng", "matching_headings"},
				},
				"question":       map[string]any{"type": "string"},
				"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"correct_answer": map[string]any{"type": "string"},
			},
		},
	}
}

func promptArraySchema() map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": 4,
		"maxItems": 4,
		"items": map[string]any{
			"type":     "object",
			"required": []any{"id", "question"},
			"properties": map[string]any{
				"id":       map[string]any{"type": "integer"},
				"question": map[string]any{"type": "string"},
			},
		},
	}
}

func writingTaskSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"properties": map[string]any{
			"instructions":      map[string]any{"type": "string"},
			"chart_description": map[string]any{"type": "string"},
			"question":          map[string]any{"type": "string"},
			"word_limit":        map[string]any{"type": "integer"},
		},
	}
}
