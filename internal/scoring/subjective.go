package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hdnguyen/bandexam/internal/i18n"
	"github.com/hdnguyen/bandexam/internal/model"
)

// Grader is the freeform grading capability of the generative collaborator.
// It receives a prompt plus a system instruction and returns structured
// JSON scores. Failures are expected and handled by the caller's fallback
// policy, never propagated to the candidate.
type Grader interface {
	GradeFreeform(ctx context.Context, prompt, instruction string) (json.RawMessage, error)
}

// Word budgets keep grading prompts inside the collaborator's input limit.
const (
	speakingPart1AnswerWords = 50
	speakingPart2AnswerWords = 200
	speakingPart3AnswerWords = 80
	writingTask1AnswerWords  = 100
	writingTask2AnswerWords  = 120
	questionTextChars        = 100
	taskCardChars            = 200
	promptsPerPart           = 4
)

// neutralBand is the fixed fallback applied when grading fails.
const neutralBand = 5.0

var speakingCriteria = []string{
	"fluency_coherence", "lexical_resource", "grammatical_range", "pronunciation",
}

var writingCriteria = []string{
	"task_response", "coherence_cohesion", "lexical_resource", "grammatical_range",
}

// truncateWords cuts text to a maximum word count, appending an ellipsis
// when anything was dropped.
func truncateWords(text string, maxWords int) string {
	if text == "" {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

func truncateChars(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

// ScoreSpeaking grades the speaking skill via the freeform grader. With no
// non-empty answers it short-circuits to an all-zero record without calling
// the collaborator; on grader failure it returns the neutral fallback.
func ScoreSpeaking(ctx context.Context, grader Grader, content *model.SpeakingContent, answers map[string]string) *model.SubjectiveScore {
	if !anySpeakingAnswer(content, answers) {
		return zeroScore(ctx, speakingCriteria)
	}

	prompt := buildSpeakingPrompt(content, answers)
	instruction := "You are a language proficiency examiner. Evaluate speaking using 4 criteria: " +
		"Fluency and Coherence, Lexical Resource, Grammatical Range and Accuracy, Pronunciation.\n\n" +
		"Test format: Part 1 (3-4 intro questions), Part 2 (1 cue card with topic and bullet points), " +
		"Part 3 (3-4 analytical questions).\nReturn JSON only."

	raw, err := grader.GradeFreeform(ctx, prompt, instruction)
	if err != nil {
		slog.Warn("speaking grading failed, applying neutral fallback", "error", err)
		return fallbackScore(ctx, speakingCriteria)
	}
	return scoreFromJSON(raw, speakingCriteria)
}

// ScoreWriting grades the writing skill. Task 1 is optional in content;
// when both tasks are graded the overall band is the rounded mean of the
// two task bands.
func ScoreWriting(ctx context.Context, grader Grader, content *model.WritingContent, answers map[string]string) *model.SubjectiveScore {
	hasTask1 := content.Task1 != nil
	task1Answer := ""
	if hasTask1 {
		task1Answer = strings.TrimSpace(model.WritingKey(1).Lookup(answers))
	}
	task2Answer := strings.TrimSpace(model.WritingKey(2).Lookup(answers))

	if task2Answer == "" && task1Answer == "" {
		return zeroScore(ctx, writingCriteria)
	}

	prompt := buildWritingPrompt(content, task1Answer, task2Answer)
	instruction := "You are a language proficiency examiner. Evaluate writing using 4 criteria: " +
		"Task Achievement/Response, Coherence and Cohesion, Lexical Resource, Grammatical Range and Accuracy.\n\n" +
		"Return JSON only."

	raw, err := grader.GradeFreeform(ctx, prompt, instruction)
	if err != nil {
		slog.Warn("writing grading failed, applying neutral fallback", "error", err)
		return fallbackScore(ctx, writingCriteria)
	}

	score := scoreFromJSON(raw, writingCriteria)
	task1Band := gjson.GetBytes(raw, "task1_band")
	task2Band := gjson.GetBytes(raw, "task2_band")
	if task1Band.Exists() && task1Band.Float() > 0 && task2Band.Exists() && task2Band.Float() > 0 {
		score.Criteria["task1_band"] = Round1(task1Band.Float())
		score.Criteria["task2_band"] = Round1(task2Band.Float())
		score.OverallBand = Round1((task1Band.Float() + task2Band.Float()) / 2)
	}
	return score
}

func anySpeakingAnswer(content *model.SpeakingContent, answers map[string]string) bool {
	var keys []model.AnswerKey
	for _, p := range content.Part1 {
		keys = append(keys, model.SpeakingKey(1, p.ID))
	}
	if content.Part2.Topic != "" || content.Part2.TaskCard != "" {
		keys = append(keys, model.SpeakingKey(2, 0))
	}
	for _, p := range content.Part3 {
		keys = append(keys, model.SpeakingKey(3, p.ID))
	}
	for _, k := range keys {
		if strings.TrimSpace(k.Lookup(answers)) != "" {
			return true
		}
	}
	return false
}

func buildSpeakingPrompt(content *model.SpeakingContent, answers map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Evaluate this speaking performance:\n\n")

	sb.WriteString("Part 1 (intro questions):\n")
	writePromptAnswers(&sb, content.Part1, 1, answers, speakingPart1AnswerWords)

	part2Answer := truncateWords(model.SpeakingKey(2, 0).Lookup(answers), speakingPart2AnswerWords)
	fmt.Fprintf(&sb, "\nPart 2 (Cue card - topic: %s):\n%s\nAnswer: %s\n",
		content.Part2.Topic, truncateChars(content.Part2.TaskCard, taskCardChars*2), part2Answer)

	sb.WriteString("\nPart 3 (analytical questions):\n")
	writePromptAnswers(&sb, content.Part3, 3, answers, speakingPart3AnswerWords)

	sb.WriteString("\nEvaluate using the 4 criteria (0-9.0 bands). Return JSON only:\n")
	sb.WriteString(`{"fluency_coherence":7.0,"lexical_resource":7.0,"grammatical_range":7.0,"pronunciation":7.0,"overall_band":7.0,"feedback":"Brief feedback"}`)
	return sb.String()
}

func writePromptAnswers(sb *strings.Builder, prompts []model.SpeakingPrompt, part int64, answers map[string]string, answerWords int) {
	n := len(prompts)
	if n > promptsPerPart {
		n = promptsPerPart
	}
	for _, p := range prompts[:n] {
		answer := truncateWords(model.SpeakingKey(part, p.ID).Lookup(answers), answerWords)
		fmt.Fprintf(sb, "Q%d: %s\nA: %s\n", p.ID, truncateChars(p.Question, questionTextChars), answer)
	}
}

func buildWritingPrompt(content *model.WritingContent, task1Answer, task2Answer string) string {
	var sb strings.Builder
	sb.WriteString("Evaluate this writing performance:\n\n")

	task2 := content.Task2
	task2Limit := 120
	task2Question := ""
	if task2 != nil {
		task2Question = task2.Question
		if task2.WordLimit > 0 {
			task2Limit = task2.WordLimit
		}
	}

	if content.Task1 != nil && task1Answer != "" {
		task1Limit := 80
		if content.Task1.WordLimit > 0 {
			task1Limit = content.Task1.WordLimit
		}
		fmt.Fprintf(&sb, "Task 1 (Chart/Graph description - target: %d words):\nInstructions: %s\nAnswer: %s\n\n",
			task1Limit, content.Task1.Instructions, truncateWords(task1Answer, writingTask1AnswerWords))
		fmt.Fprintf(&sb, "Task 2 (Essay - target: %d words):\nQuestion: %s\nAnswer: %s\n\n",
			task2Limit, task2Question, truncateWords(task2Answer, writingTask2AnswerWords))
		sb.WriteString("Evaluate using the 4 criteria (0-9.0 bands). Return JSON only:\n")
		sb.WriteString(`{"task_response":7.0,"coherence_cohesion":7.0,"lexical_resource":7.0,"grammatical_range":7.0,"task1_band":7.0,"task2_band":7.0,"overall_band":7.0,"feedback":"Brief feedback"}`)
		return sb.String()
	}

	fmt.Fprintf(&sb, "Task 2 (Essay - target: %d words):\nQuestion: %s\nAnswer: %s\n\n",
		task2Limit, task2Question, truncateWords(task2Answer, writingTask2AnswerWords))
	sb.WriteString("Evaluate using the 4 criteria (0-9.0 bands). Return JSON only:\n")
	sb.WriteString(`{"task_response":7.0,"coherence_cohesion":7.0,"lexical_resource":7.0,"grammatical_range":7.0,"overall_band":7.0,"feedback":"Brief feedback"}`)
	return sb.String()
}

// scoreFromJSON extracts criterion bands from grader output, defaulting
// any missing field to the neutral band.
func scoreFromJSON(raw json.RawMessage, criteria []string) *model.SubjectiveScore {
	score := &model.SubjectiveScore{Criteria: make(map[string]float64, len(criteria))}
	for _, c := range criteria {
		v := gjson.GetBytes(raw, c)
		if v.Exists() {
			score.Criteria[c] = Round1(v.Float())
		} else {
			score.Criteria[c] = neutralBand
		}
	}
	if v := gjson.GetBytes(raw, "overall_band"); v.Exists() {
		score.OverallBand = Round1(v.Float())
	} else {
		score.OverallBand = neutralBand
	}
	score.Feedback = gjson.GetBytes(raw, "feedback").String()
	return score
}

func zeroScore(ctx context.Context, criteria []string) *model.SubjectiveScore {
	score := &model.SubjectiveScore{Criteria: make(map[string]float64, len(criteria))}
	for _, c := range criteria {
		score.Criteria[c] = 0.0
	}
	score.OverallBand = 0.0
	score.Feedback = i18n.T(ctx, "feedback.no_answers")
	return score
}

func fallbackScore(ctx context.Context, criteria []string) *model.SubjectiveScore {
	score := &model.SubjectiveScore{Criteria: make(map[string]float64, len(criteria))}
	for _, c := range criteria {
		score.Criteria[c] = neutralBand
	}
	score.OverallBand = neutralBand
	score.Feedback = i18n.T(ctx, "feedback.grading_unavailable")
	return score
}
