package model

// QuestionType is the closed set of objective question shapes the scorer
// understands. Unknown types fall back to plain text comparison.
type QuestionType string

const (
	QuestionMultipleChoice  QuestionType = "multiple_choice"
	QuestionFillBlank       QuestionType = "fill_blank"
	QuestionMatching        QuestionType = "matching"
	QuestionShortAnswer     QuestionType = "short_answer"
	QuestionTrueFalseNG     QuestionType = "tf_ng"
	QuestionMatchingHeading QuestionType = "matching_headings"
)

// Question is a single objective item with a canonical correct answer.
// For matching questions the correct answer encodes item pairs such as
// "A:i, B:ii" and each pair is scored as its own sub-item.
type Question struct {
	ID            int64        `json:"id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
}

// ListeningSection groups listening questions around one audio transcript.
type ListeningSection struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Instructions    string     `json:"instructions"`
	AudioTranscript string     `json:"audio_transcript"`
	Questions       []Question `json:"questions"`
}

// ListeningContent is the full listening skill content for a phase.
type ListeningContent struct {
	Sections []ListeningSection `json:"sections"`
}

// ReadingPassage groups reading questions around one passage text.
type ReadingPassage struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Questions []Question `json:"questions"`
}

// ReadingContent is the full reading skill content for a phase.
type ReadingContent struct {
	Passages []ReadingPassage `json:"passages"`
}

// SpeakingPrompt is a single free-response speaking question.
type SpeakingPrompt struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
}

// CueCard is the part-2 long-turn speaking task.
type CueCard struct {
	Topic    string `json:"topic"`
	TaskCard string `json:"task_card"`
}

// SpeakingContent is the three-part speaking skill content.
type SpeakingContent struct {
	Part1 []SpeakingPrompt `json:"part1"`
	Part2 CueCard          `json:"part2"`
	Part3 []SpeakingPrompt `json:"part3"`
}

// WritingTask describes one writing prompt. Task 1 carries a textual chart
// description so candidates can write without an image.
type WritingTask struct {
	Instructions     string `json:"instructions,omitempty"`
	ChartDescription string `json:"chart_description,omitempty"`
	Question         string `json:"question,omitempty"`
	WordLimit        int    `json:"word_limit"`
}

// WritingContent holds the writing tasks for a phase. Task1 is optional;
// older generated content may contain only the essay task.
type WritingContent struct {
	Task1 *WritingTask `json:"task1,omitempty"`
	Task2 *WritingTask `json:"task2,omitempty"`
}

// PhaseContent is the generated exam content for one phase. Exactly one
// skill-group pair is populated depending on the phase type.
type PhaseContent struct {
	Listening *ListeningContent `json:"listening,omitempty"`
	Speaking  *SpeakingContent  `json:"speaking,omitempty"`
	Reading   *ReadingContent   `json:"reading,omitempty"`
	Writing   *WritingContent   `json:"writing,omitempty"`
}
