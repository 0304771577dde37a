package analysis

import (
	"reflect"
	"testing"
)

func TestParseStudyGuide_StrictJSON(t *testing.T) {
	raw := `{"title":"T","content":"C","keyPoints":["A","B"],"summary":"S"}`
	guide := ParseStudyGuide(raw)

	if guide == nil {
		t.Fatal("expected non-nil guide")
	}
	if guide.Title != "T" || guide.Content != "C" || guide.Summary != "S" {
		t.Errorf("unexpected guide: %+v", guide)
	}
	if !reflect.DeepEqual(guide.KeyPoints, []string{"A", "B"}) {
		t.Errorf("expected key points [A B], got %v", guide.KeyPoints)
	}
}

func TestParseStudyGuide_FencedJSONWithProse(t *testing.T) {
	raw := "Here is your study guide:\n```json\n{\"title\":\"Biology 101\",\"content\":\"Cells\",\"keyPoints\":[\"Mitosis\"],\"summary\":\"Basics\"}\n```\nLet me know if you need more."
	guide := ParseStudyGuide(raw)

	if guide.Title != "Biology 101" {
		t.Errorf("expected title from fenced block, got %q", guide.Title)
	}
	if len(guide.KeyPoints) != 1 || guide.KeyPoints[0] != "Mitosis" {
		t.Errorf("unexpected key points: %v", guide.KeyPoints)
	}
}

func TestParseStudyGuide_FreeformText(t *testing.T) {
	raw := `# Photosynthesis
Plants convert light into chemical energy.

Key Points:
- Light reactions happen in the thylakoid
- The Calvin cycle fixes carbon

Summary: Light in, sugar out.`

	guide := ParseStudyGuide(raw)
	if guide.Title != "Photosynthesis" {
		t.Errorf("expected title Photosynthesis, got %q", guide.Title)
	}
	if len(guide.KeyPoints) != 2 {
		t.Fatalf("expected 2 key points, got %v", guide.KeyPoints)
	}
	if guide.KeyPoints[0] != "Light reactions happen in the thylakoid" {
		t.Errorf("unexpected first key point: %q", guide.KeyPoints[0])
	}
	if guide.Summary != "Light in, sugar out." {
		t.Errorf("unexpected summary: %q", guide.Summary)
	}
}

func TestParseStudyGuide_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\n"} {
		guide := ParseStudyGuide(raw)
		if guide == nil {
			t.Fatal("expected non-nil guide for empty input")
		}
		if guide.Title == "" {
			t.Error("expected a default title")
		}
		if guide.KeyPoints == nil {
			t.Error("expected non-nil key points")
		}
	}
}

func TestParseQuiz_StrictJSON(t *testing.T) {
	raw := `{"title":"Quiz","questions":[{"question":"2+2?","options":["3","4"],"correctIndex":1,"explanation":"basic"}]}`
	quiz := ParseQuiz(raw)

	if len(quiz.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(quiz.Questions))
	}
	q := quiz.Questions[0]
	if q.CorrectIndex != 1 || q.Explanation != "basic" {
		t.Errorf("unexpected question: %+v", q)
	}
}

func TestParseQuiz_AnswerLetterJSON(t *testing.T) {
	raw := `{"questions":[{"question":"Capital of France?","options":["Berlin","Paris","Rome"],"answer":"B"}]}`
	quiz := ParseQuiz(raw)

	if len(quiz.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(quiz.Questions))
	}
	if quiz.Questions[0].CorrectIndex != 1 {
		t.Errorf("expected answer B to resolve to index 1, got %d", quiz.Questions[0].CorrectIndex)
	}
}

func TestParseQuiz_FreeformText(t *testing.T) {
	raw := `Chemistry Quiz

1. What is H2O?
A) Hydrogen
B) Water
C) Helium
Answer: B
Explanation: Two hydrogen, one oxygen.

2. What is NaCl?
A) Salt
B) Sugar
Answer: A`

	quiz := ParseQuiz(raw)
	if quiz.Title != "Chemistry Quiz" {
		t.Errorf("expected title Chemistry Quiz, got %q", quiz.Title)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(quiz.Questions))
	}

	first := quiz.Questions[0]
	if len(first.Options) != 3 {
		t.Fatalf("expected 3 options, got %v", first.Options)
	}
	if first.CorrectIndex != 1 {
		t.Errorf("expected index 1, got %d", first.CorrectIndex)
	}
	if first.Explanation != "Two hydrogen, one oxygen." {
		t.Errorf("unexpected explanation: %q", first.Explanation)
	}

	second := quiz.Questions[1]
	if second.CorrectIndex != 0 {
		t.Errorf("expected index 0, got %d", second.CorrectIndex)
	}
}

func TestParseQuiz_UnmatchableAnswerKeepsQuestion(t *testing.T) {
	raw := `1. Pick one
A) Alpha
B) Beta
Answer: Gamma`

	quiz := ParseQuiz(raw)
	if len(quiz.Questions) != 1 {
		t.Fatalf("expected the question to be kept, got %d", len(quiz.Questions))
	}
	if quiz.Questions[0].CorrectIndex != 0 {
		t.Errorf("expected fallback to first option, got %d", quiz.Questions[0].CorrectIndex)
	}
}

func TestParseQuiz_Idempotent(t *testing.T) {
	raw := `1. Q?
A) one
B) two
Answer: 2`

	first := ParseQuiz(raw)
	second := ParseQuiz(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical output: %+v vs %+v", first, second)
	}
	if first.Questions[0].CorrectIndex != 1 {
		t.Errorf("expected 1-based numeric answer to resolve to index 1, got %d", first.Questions[0].CorrectIndex)
	}
}

func TestParseQuiz_EmptyInput(t *testing.T) {
	quiz := ParseQuiz("")
	if quiz == nil {
		t.Fatal("expected non-nil quiz")
	}
	if quiz.Questions == nil {
		t.Error("expected non-nil question list")
	}
}

func TestParseFileAnalysis_StrictJSON(t *testing.T) {
	raw := `{"subject":"History","topics":["WW2","Cold War"],"summary":"20th century","difficulty":"intermediate"}`
	result := ParseFileAnalysis(raw)

	if result.Subject != "History" || result.Difficulty != "intermediate" {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.Topics) != 2 {
		t.Errorf("expected 2 topics, got %v", result.Topics)
	}
}

func TestParseFileAnalysis_FreeformText(t *testing.T) {
	raw := `Subject: Linear Algebra
Difficulty: advanced
Topics:
- Eigenvalues
- Matrix decomposition
Summary: Covers the spectral theorem.
Suggestions:
1. Review determinants first`

	result := ParseFileAnalysis(raw)
	if result.Subject != "Linear Algebra" {
		t.Errorf("unexpected subject: %q", result.Subject)
	}
	if len(result.Topics) != 2 {
		t.Errorf("expected 2 topics, got %v", result.Topics)
	}
	if len(result.Suggestions) != 1 || result.Suggestions[0] != "Review determinants first" {
		t.Errorf("unexpected suggestions: %v", result.Suggestions)
	}
	if result.Summary != "Covers the spectral theorem." {
		t.Errorf("unexpected summary: %q", result.Summary)
	}
}

func TestParseFileAnalysis_EmptyInput(t *testing.T) {
	result := ParseFileAnalysis("")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result.Topics == nil {
		t.Error("expected non-nil topics")
	}
}

func TestResolveAnswer(t *testing.T) {
	options := []string{"Alpha", "Beta", "Gamma"}
	tests := []struct {
		answer string
		want   int
	}{
		{"A", 0},
		{"b", 1},
		{"(C)", 2},
		{"2", 1},
		{"Beta", 1},
		{"beta", 1},
		{"Gam", 2},
		{"nonsense", 0},
		{"", 0},
		{"Z", 0},
		{"9", 0},
	}
	for _, tt := range tests {
		if got := resolveAnswer(tt.answer, options); got != tt.want {
			t.Errorf("resolveAnswer(%q) = %d, want %d", tt.answer, got, tt.want)
		}
	}
}
