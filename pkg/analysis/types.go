// Package analysis turns extracted study material into typed results:
// study guides, quizzes and content analyses. The model's reply is an
// untrusted external artifact, so the parsers in this package are total
// functions that always produce a usable value.
package analysis

// StudyGuide is a generated study guide for one or more source files.
type StudyGuide struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	KeyPoints     []string `json:"keyPoints"`
	Summary       string   `json:"summary"`
	SourceFileIDs []string `json:"sourceFileIds,omitempty"`
}

// QuizQuestion is a single multiple-choice question. CorrectIndex always
// refers to a valid position in Options; an ungraded question would break
// the quiz flow downstream, so parsing never leaves it unresolved.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Quiz is an ordered set of questions generated from source material.
type Quiz struct {
	Title         string         `json:"title"`
	Questions     []QuizQuestion `json:"questions"`
	SourceFileIDs []string       `json:"sourceFileIds,omitempty"`
}

// AnalysisResult is the model's assessment of one uploaded file.
type AnalysisResult struct {
	FileID      string   `json:"fileId,omitempty"`
	UserID      string   `json:"userId,omitempty"`
	Subject     string   `json:"subject"`
	Topics      []string `json:"topics"`
	Summary     string   `json:"summary"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
