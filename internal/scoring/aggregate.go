package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hdnguyen/bandexam/internal/model"
)

// ScorePhase grades one submitted phase: the objective skill through the
// matcher and band converter, the subjective skill through the grader.
func ScorePhase(ctx context.Context, grader Grader, phaseType model.Phase, content *model.PhaseContent, answers map[string]string) *model.PhaseScores {
	scores := &model.PhaseScores{}
	switch phaseType {
	case model.PhaseListeningSpeaking:
		if content.Listening != nil {
			scores.Listening = ScoreListening(content.Listening, answers)
		}
		if content.Speaking != nil {
			scores.Speaking = ScoreSpeaking(ctx, grader, content.Speaking, answers)
		}
	case model.PhaseReadingWriting:
		if content.Reading != nil {
			scores.Reading = ScoreReading(content.Reading, answers)
		}
		if content.Writing != nil {
			scores.Writing = ScoreWriting(ctx, grader, content.Writing, answers)
		}
	}
	return scores
}

// Aggregate combines the two phase score sets into the final four-skill
// result. Each skill's band comes from whichever phase covered it; the
// overall band is the rounded mean of the four.
func Aggregate(phase1, phase2 *model.PhaseScores, phase1Type, phase2Type model.Phase) *model.FinalResults {
	final := &model.FinalResults{}
	applyPhase(final, phase1, phase1Type)
	applyPhase(final, phase2, phase2Type)
	final.Overall = Round1((final.Listening + final.Reading + final.Writing + final.Speaking) / 4)
	return final
}

func applyPhase(final *model.FinalResults, scores *model.PhaseScores, phaseType model.Phase) {
	if scores == nil {
		return
	}
	switch phaseType {
	case model.PhaseListeningSpeaking:
		if scores.Listening != nil {
			final.Listening = scores.Listening.Band
		}
		if scores.Speaking != nil {
			final.Speaking = scores.Speaking.OverallBand
		}
	case model.PhaseReadingWriting:
		if scores.Reading != nil {
			final.Reading = scores.Reading.Band
		}
		if scores.Writing != nil {
			final.Writing = scores.Writing.OverallBand
		}
	}
}

// AnalysisInput carries everything the narrative analysis prompts draw on.
type AnalysisInput struct {
	Phase1Scores  *model.PhaseScores
	Phase2Scores  *model.PhaseScores
	Phase1Type    model.Phase
	Phase2Type    model.Phase
	Phase1Answers map[string]string
	Phase2Answers map[string]string
	Final         *model.FinalResults
}

const (
	sampleAnswerWords = 15
	sampleMaxChars    = 80
)

// GenerateAnalysis produces the optional narrative analysis: a
// rubric-aligned half and a supplementary linguistic half, each generated
// by its own collaborator call. A failure in either call degrades that
// half to empty without aborting the other.
func GenerateAnalysis(ctx context.Context, grader Grader, in AnalysisInput) *model.Analysis {
	instruction := "You are a language proficiency examiner analyzing a candidate's performance. Return JSON only."
	analysis := &model.Analysis{}

	if raw, err := grader.GradeFreeform(ctx, buildRubricAnalysisPrompt(in), instruction); err != nil {
		slog.Warn("rubric analysis generation failed", "error", err)
	} else if section := gjson.GetBytes(raw, "rubric_analysis"); section.Exists() {
		analysis.Rubric = []byte(section.Raw)
	}

	if raw, err := grader.GradeFreeform(ctx, buildSupplementaryAnalysisPrompt(in), instruction); err != nil {
		slog.Warn("supplementary analysis generation failed", "error", err)
	} else if section := gjson.GetBytes(raw, "supplementary_analysis"); section.Exists() {
		analysis.Supplementary = []byte(section.Raw)
	}

	return analysis
}

func buildRubricAnalysisPrompt(in AnalysisInput) string {
	var sb strings.Builder
	sb.WriteString("Rubric-aligned analysis of this exam:\n\n")
	writeScoreLine(&sb, in.Final)
	fmt.Fprintf(&sb, "Data: L:%s R:%s W:%s S:%s\n",
		orNA(objectiveSummary(in, model.SkillListening)),
		orNA(objectiveSummary(in, model.SkillReading)),
		orNA(subjectiveSummary(in, model.SkillWriting)),
		orNA(subjectiveSummary(in, model.SkillSpeaking)))
	fmt.Fprintf(&sb, "Samples: W:%s S:%s\n\n",
		orNA(writingSamples(in)), orNA(speakingSample(in)))
	sb.WriteString("Analyze per skill: strengths, weaknesses, and per-criterion assessment for writing and speaking.\n")
	sb.WriteString(`Return JSON only: {"rubric_analysis":{"listening":{"strengths":[],"weaknesses":[]},"reading":{"strengths":[],"weaknesses":[]},"writing":{"per_criterion":{},"overall_assessment":""},"speaking":{"per_criterion":{},"overall_assessment":""}}}`)
	return sb.String()
}

func buildSupplementaryAnalysisPrompt(in AnalysisInput) string {
	var sb strings.Builder
	sb.WriteString("Supplementary linguistic analysis of this exam:\n\n")
	writeScoreLine(&sb, in.Final)
	fmt.Fprintf(&sb, "Data: W:%s S:%s\n",
		orNA(subjectiveSummary(in, model.SkillWriting)),
		orNA(subjectiveSummary(in, model.SkillSpeaking)))
	fmt.Fprintf(&sb, "Samples: W:%s S:%s\n\n",
		orNA(writingSamples(in)), orNA(speakingSample(in)))
	sb.WriteString("Analyze: response reflexes, information processing, mother-tongue influence, grammar and structure errors, pronunciation clarity, vocabulary level and naturalness.\n")
	sb.WriteString(`Return JSON only: {"supplementary_analysis":{"reflex_level":"","reception_ability":"","mother_tongue_influence":{},"grammar":{},"pronunciation":{},"vocabulary":{}}}`)
	return sb.String()
}

func writeScoreLine(sb *strings.Builder, final *model.FinalResults) {
	if final == nil {
		return
	}
	fmt.Fprintf(sb, "Scores: L=%.1f R=%.1f W=%.1f S=%.1f O=%.1f\n",
		final.Listening, final.Reading, final.Writing, final.Speaking, final.Overall)
}

// objectiveSummary renders compact "P1:raw/total=band" fragments for the
// phases that covered the given objective skill.
func objectiveSummary(in AnalysisInput, skill model.Skill) string {
	var sb strings.Builder
	appendOne := func(label string, scores *model.PhaseScores) {
		if scores == nil {
			return
		}
		var s *model.ObjectiveScore
		if skill == model.SkillListening {
			s = scores.Listening
		} else {
			s = scores.Reading
		}
		if s == nil {
			return
		}
		fmt.Fprintf(&sb, "%s:%d/%d=%.1f ", label, s.RawScore, s.TotalQuestions, s.Band)
	}
	appendOne("P1", in.Phase1Scores)
	appendOne("P2", in.Phase2Scores)
	return strings.TrimSpace(sb.String())
}

func subjectiveSummary(in AnalysisInput, skill model.Skill) string {
	var sb strings.Builder
	appendOne := func(label string, scores *model.PhaseScores) {
		if scores == nil {
			return
		}
		var s *model.SubjectiveScore
		if skill == model.SkillSpeaking {
			s = scores.Speaking
		} else {
			s = scores.Writing
		}
		if s == nil {
			return
		}
		fmt.Fprintf(&sb, "%s:", label)
		for _, c := range sortedCriteria(s.Criteria) {
			fmt.Fprintf(&sb, "%s=%.1f ", criterionAbbrev(c), s.Criteria[c])
		}
		fmt.Fprintf(&sb, "O=%.1f ", s.OverallBand)
	}
	appendOne("P1", in.Phase1Scores)
	appendOne("P2", in.Phase2Scores)
	return truncateChars(strings.TrimSpace(sb.String()), sampleMaxChars)
}

func sortedCriteria(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable order keeps prompts deterministic.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func criterionAbbrev(c string) string {
	parts := strings.Split(c, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p != "" {
			sb.WriteByte(p[0] - 'a' + 'A')
		}
	}
	return sb.String()
}

// writingSamples takes a short sample of each phase's essay answer.
func writingSamples(in AnalysisInput) string {
	var sb strings.Builder
	if a := model.WritingKey(2).Lookup(in.Phase1Answers); strings.TrimSpace(a) != "" {
		fmt.Fprintf(&sb, "W1:%s ", truncateWords(a, sampleAnswerWords))
	}
	if a := model.WritingKey(2).Lookup(in.Phase2Answers); strings.TrimSpace(a) != "" {
		fmt.Fprintf(&sb, "W2:%s", truncateWords(a, sampleAnswerWords))
	}
	return truncateChars(strings.TrimSpace(sb.String()), sampleMaxChars)
}

// speakingSample returns one speaking answer sample, preferring phase 1.
func speakingSample(in AnalysisInput) string {
	for _, phase := range []struct {
		label   string
		answers map[string]string
	}{
		{"S1", in.Phase1Answers},
		{"S2", in.Phase2Answers},
	} {
		for key, val := range phase.answers {
			if strings.HasPrefix(key, "speaking_") && strings.TrimSpace(val) != "" {
				return truncateChars(phase.label+":"+truncateWords(val, sampleAnswerWords), sampleMaxChars)
			}
		}
	}
	return ""
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
