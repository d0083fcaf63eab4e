package model

import "fmt"

// Skill names the four scored skills.
type Skill string

const (
	SkillListening Skill = "listening"
	SkillReading   Skill = "reading"
	SkillSpeaking  Skill = "speaking"
	SkillWriting   Skill = "writing"
)

// AnswerKey is the structured composite key for one submitted answer.
// Submitted answers arrive as a string-keyed map at the API boundary; the
// scorer builds AnswerKeys from the content structure and looks answers up
// by the canonical wire form, so key parsing never leaks into scoring logic.
//
// Wire forms:
//
//	listening_s<section>_q<question>      objective listening item
//	reading_p<passage>_q<question>        objective reading item
//	listening_s1_q2_B                     sub-item B of a matching question
//	speaking_part1_<id>, speaking_part2, speaking_part3_<id>
//	writing_task1, writing_task2
type AnswerKey struct {
	Skill    Skill
	Group    int64  // section or passage id; speaking part number
	Question int64  // question or prompt id
	Item     string // matching sub-item label, empty otherwise
}

// ListeningKey builds the key for a listening question, optionally narrowed
// to a matching sub-item.
func ListeningKey(sectionID, questionID int64, item string) AnswerKey {
	return AnswerKey{Skill: SkillListening, Group: sectionID, Question: questionID, Item: item}
}

// ReadingKey builds the key for a reading question.
func ReadingKey(passageID, questionID int64, item string) AnswerKey {
	return AnswerKey{Skill: SkillReading, Group: passageID, Question: questionID, Item: item}
}

// SpeakingKey builds the key for a speaking prompt. Part 2 has a single
// response, so its key carries no prompt id.
func SpeakingKey(part int64, promptID int64) AnswerKey {
	return AnswerKey{Skill: SkillSpeaking, Group: part, Question: promptID}
}

// WritingKey builds the key for a writing task.
func WritingKey(task int64) AnswerKey {
	return AnswerKey{Skill: SkillWriting, Group: task}
}

// String returns the canonical wire form used in submitted answer maps.
func (k AnswerKey) String() string {
	switch k.Skill {
	case SkillListening:
		s := fmt.Sprintf("listening_s%d_q%d", k.Group, k.Question)
		if k.Item != "" {
			s += "_" + k.Item
		}
		return s
	case SkillReading:
		s := fmt.Sprintf("reading_p%d_q%d", k.Group, k.Question)
		if k.Item != "" {
			s += "_" + k.Item
		}
		return s
	case SkillSpeaking:
		if k.Group == 2 {
			return "speaking_part2"
		}
		return fmt.Sprintf("speaking_part%d_%d", k.Group, k.Question)
	case SkillWriting:
		return fmt.Sprintf("writing_task%d", k.Group)
	}
	return ""
}

// Lookup returns the submitted answer for this key, or "" if absent.
func (k AnswerKey) Lookup(answers map[string]string) string {
	return answers[k.String()]
}
