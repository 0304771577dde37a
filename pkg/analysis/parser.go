package analysis

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// The parsers below follow a structured-first strategy: strict JSON
// decoding (including JSON embedded in fenced markers or surrounding
// prose), then line-oriented heuristics, then a minimal valid default.
// They never return nil and never fail; parse ambiguity is an expected
// condition with free-text model output, not an error.

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	numberedRe    = regexp.MustCompile(`^(?:Q(?:uestion)?\s*)?(\d+)[.):]\s*(.+)$`)
	letteredRe    = regexp.MustCompile(`^[(\[]?([A-Ha-h])[.)\]:]\s*(.+)$`)
	answerRe      = regexp.MustCompile(`(?i)^(?:correct\s+)?answer\s*[:=]?\s*(.+)$`)
	explanationRe = regexp.MustCompile(`(?i)^explanation\s*[:=]?\s*(.*)$`)
	bulletRe      = regexp.MustCompile(`^[-*•]\s*(.+)$`)
)

// ParseStudyGuide converts raw model output into a StudyGuide.
func ParseStudyGuide(raw string) *StudyGuide {
	if block := extractJSON(raw, '{', '}'); block != "" {
		var guide StudyGuide
		if err := json.Unmarshal([]byte(block), &guide); err == nil && (guide.Title != "" || guide.Content != "") {
			if guide.Title == "" {
				guide.Title = "Study Guide"
			}
			if guide.KeyPoints == nil {
				guide.KeyPoints = []string{}
			}
			return &guide
		}
	}
	return parseStudyGuideText(raw)
}

// ParseQuiz converts raw model output into a Quiz.
func ParseQuiz(raw string) *Quiz {
	if block := extractJSON(raw, '{', '}'); block != "" {
		if quiz := decodeQuizJSON(block); quiz != nil {
			return quiz
		}
	}
	// Some models reply with a bare array of questions.
	if block := extractJSON(raw, '[', ']'); block != "" {
		if quiz := decodeQuizJSON(`{"questions":` + block + `}`); quiz != nil {
			return quiz
		}
	}
	return parseQuizText(raw)
}

// ParseFileAnalysis converts raw model output into an AnalysisResult.
func ParseFileAnalysis(raw string) *AnalysisResult {
	if block := extractJSON(raw, '{', '}'); block != "" {
		var result AnalysisResult
		if err := json.Unmarshal([]byte(block), &result); err == nil && (result.Subject != "" || result.Summary != "" || len(result.Topics) > 0) {
			if result.Topics == nil {
				result.Topics = []string{}
			}
			return &result
		}
	}
	return parseAnalysisText(raw)
}

// extractJSON pulls a candidate JSON payload out of raw text. Fenced
// blocks win; otherwise the outermost open/close pair is taken, which
// tolerates prose before and after the payload.
func extractJSON(raw string, open, end byte) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		inner := strings.TrimSpace(m[1])
		if inner != "" && (inner[0] == open || inner[0] == '{' || inner[0] == '[') {
			return inner
		}
	}
	start := strings.IndexByte(raw, open)
	stop := strings.LastIndexByte(raw, end)
	if start == -1 || stop == -1 || start >= stop {
		return ""
	}
	return raw[start : stop+1]
}

// quizQuestionJSON tolerates the answer shapes models actually emit:
// an index, a 1-based number, an option letter, or the option text.
type quizQuestionJSON struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex"`
	Answer       string   `json:"answer"`
	Explanation  string   `json:"explanation"`
}

func decodeQuizJSON(block string) *Quiz {
	var decoded struct {
		Title     string             `json:"title"`
		Questions []quizQuestionJSON `json:"questions"`
	}
	if err := json.Unmarshal([]byte(block), &decoded); err != nil || len(decoded.Questions) == 0 {
		return nil
	}

	quiz := &Quiz{Title: decoded.Title, Questions: make([]QuizQuestion, 0, len(decoded.Questions))}
	if quiz.Title == "" {
		quiz.Title = "Quiz"
	}
	for _, q := range decoded.Questions {
		if q.Question == "" {
			continue
		}
		question := QuizQuestion{
			Question:    q.Question,
			Options:     q.Options,
			Explanation: q.Explanation,
		}
		if question.Options == nil {
			question.Options = []string{}
		}
		if q.CorrectIndex != nil && *q.CorrectIndex >= 0 && *q.CorrectIndex < len(question.Options) {
			question.CorrectIndex = *q.CorrectIndex
		} else {
			question.CorrectIndex = resolveAnswer(q.Answer, question.Options)
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	if len(quiz.Questions) == 0 {
		return nil
	}
	return quiz
}

// resolveAnswer maps a stated answer to an option index. When no match
// can be made the first option is used; a question must always carry a
// concrete correct index.
func resolveAnswer(answer string, options []string) int {
	answer = strings.TrimSpace(answer)
	if answer == "" || len(options) == 0 {
		return 0
	}

	// Option letter, possibly decorated: "B", "b)", "(C)".
	trimmed := strings.Trim(answer, "()[].: ")
	if len(trimmed) == 1 {
		c := trimmed[0]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c >= 'a' && c <= 'z' {
			if idx := int(c - 'a'); idx < len(options) {
				return idx
			}
		}
	}

	// 1-based position ("3" meaning the third option).
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1
		}
		return 0
	}

	// Match against the option text itself.
	lowered := strings.ToLower(trimmed)
	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == lowered {
			return i
		}
	}
	for i, opt := range options {
		if strings.Contains(strings.ToLower(opt), lowered) {
			return i
		}
	}
	return 0
}

func parseStudyGuideText(raw string) *StudyGuide {
	guide := &StudyGuide{
		Title:     "Study Guide",
		KeyPoints: []string{},
	}
	lines := strings.Split(raw, "\n")

	var content []string
	var summary []string
	section := "content"
	titleSeen := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !titleSeen {
			guide.Title = strings.TrimSpace(strings.TrimPrefix(stripMarker(line), "Title:"))
			titleSeen = true
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "key points") || strings.HasPrefix(lower, "key takeaways"):
			section = "keypoints"
			continue
		case strings.HasPrefix(lower, "summary"):
			section = "summary"
			if rest := strings.TrimSpace(line[len("summary"):]); rest != "" {
				summary = append(summary, strings.TrimPrefix(rest, ":"))
			}
			continue
		}

		switch section {
		case "keypoints":
			if m := bulletRe.FindStringSubmatch(line); m != nil {
				guide.KeyPoints = append(guide.KeyPoints, m[1])
			} else if m := numberedRe.FindStringSubmatch(line); m != nil {
				guide.KeyPoints = append(guide.KeyPoints, m[2])
			} else {
				guide.KeyPoints = append(guide.KeyPoints, line)
			}
		case "summary":
			summary = append(summary, line)
		default:
			content = append(content, line)
		}
	}

	if guide.Title == "" {
		guide.Title = "Study Guide"
	}
	guide.Content = strings.Join(content, "\n")
	guide.Summary = strings.TrimSpace(strings.Join(summary, " "))
	return guide
}

func parseQuizText(raw string) *Quiz {
	quiz := &Quiz{Title: "Quiz", Questions: []QuizQuestion{}}
	lines := strings.Split(raw, "\n")

	var current *QuizQuestion
	var pendingAnswer string
	titleSeen := false

	flush := func() {
		if current == nil {
			return
		}
		if current.Options == nil {
			current.Options = []string{}
		}
		current.CorrectIndex = resolveAnswer(pendingAnswer, current.Options)
		quiz.Questions = append(quiz.Questions, *current)
		current = nil
		pendingAnswer = ""
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &QuizQuestion{Question: strings.TrimSpace(m[2])}
			titleSeen = true
			continue
		}
		if current != nil {
			if m := letteredRe.FindStringSubmatch(line); m != nil {
				current.Options = append(current.Options, strings.TrimSpace(m[2]))
				continue
			}
			if m := answerRe.FindStringSubmatch(line); m != nil {
				pendingAnswer = strings.TrimSpace(m[1])
				continue
			}
			if m := explanationRe.FindStringSubmatch(line); m != nil {
				current.Explanation = strings.TrimSpace(m[1])
				continue
			}
			// Continuation of the question text before options start.
			if len(current.Options) == 0 {
				current.Question += " " + line
			}
			continue
		}
		if !titleSeen {
			quiz.Title = stripMarker(line)
			titleSeen = true
		}
	}
	flush()

	if quiz.Title == "" {
		quiz.Title = "Quiz"
	}
	return quiz
}

func parseAnalysisText(raw string) *AnalysisResult {
	result := &AnalysisResult{Topics: []string{}}
	lines := strings.Split(raw, "\n")

	var summary []string
	section := "summary"

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "subject:"):
			result.Subject = strings.TrimSpace(line[len("subject:"):])
			continue
		case strings.HasPrefix(lower, "difficulty:"):
			result.Difficulty = strings.TrimSpace(line[len("difficulty:"):])
			continue
		case strings.HasPrefix(lower, "topics"):
			section = "topics"
			continue
		case strings.HasPrefix(lower, "suggestions") || strings.HasPrefix(lower, "recommendations"):
			section = "suggestions"
			continue
		case strings.HasPrefix(lower, "summary"):
			section = "summary"
			if rest := strings.TrimSpace(line[len("summary"):]); rest != "" {
				summary = append(summary, strings.TrimPrefix(rest, ":"))
			}
			continue
		}

		item := line
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			item = m[1]
		} else if m := numberedRe.FindStringSubmatch(line); m != nil {
			item = m[2]
		}

		switch section {
		case "topics":
			result.Topics = append(result.Topics, item)
		case "suggestions":
			result.Suggestions = append(result.Suggestions, item)
		default:
			summary = append(summary, line)
		}
	}

	result.Summary = strings.TrimSpace(strings.Join(summary, " "))
	return result
}

// stripMarker removes markdown heading and bold decoration from a line.
func stripMarker(line string) string {
	line = strings.TrimLeft(line, "# ")
	line = strings.Trim(line, "*_ ")
	return strings.TrimSpace(line)
}
