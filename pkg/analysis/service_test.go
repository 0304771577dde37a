package analysis

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/llms"
)

// mockProvider returns a canned reply and counts invocations.
type mockProvider struct {
	calls int32
	reply string
	err   error
}

func (m *mockProvider) Name() string      { return "mock" }
func (m *mockProvider) ModelName() string { return "mock-model" }
func (m *mockProvider) Close() error      { return nil }

func (m *mockProvider) Generate(_ context.Context, _ llms.Request) (*llms.Response, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	return &llms.Response{Text: m.reply, InputTokens: 10, OutputTokens: 20}, nil
}

func newTestService(provider llms.Provider) *Service {
	cfg := config.Default()
	return NewService(provider, cfg)
}

func TestGenerateStudyGuide_ParsesModelReply(t *testing.T) {
	provider := &mockProvider{reply: `{"title":"T","content":"C","keyPoints":["A","B"],"summary":"S"}`}
	svc := newTestService(provider)

	guide, err := svc.GenerateStudyGuide(context.Background(), GenerateInput{
		UserID: "user1",
		Prompt: "make a guide",
	})
	require.NoError(t, err)
	assert.Equal(t, "T", guide.Title)
	assert.Equal(t, []string{"A", "B"}, guide.KeyPoints)
}

func TestGenerateStudyGuide_ContractErrors(t *testing.T) {
	svc := newTestService(&mockProvider{reply: "{}"})

	_, err := svc.GenerateStudyGuide(context.Background(), GenerateInput{UserID: "user1"})
	require.Error(t, err)

	_, err = svc.GenerateStudyGuide(context.Background(), GenerateInput{Prompt: "p"})
	require.Error(t, err)

	_, err = svc.GenerateStudyGuide(context.Background(), GenerateInput{UserID: "  ", Prompt: "p"})
	require.Error(t, err)
}

func TestGenerateStudyGuide_CachedAcrossIdenticalCalls(t *testing.T) {
	provider := &mockProvider{reply: `{"title":"T","content":"C"}`}
	svc := newTestService(provider)

	in := GenerateInput{UserID: "user1", Prompt: "same prompt"}
	_, err := svc.GenerateStudyGuide(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.GenerateStudyGuide(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))

	other := GenerateInput{UserID: "user1", Prompt: "different prompt"}
	_, err = svc.GenerateStudyGuide(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&provider.calls))
}

func TestGenerateQuiz_MalformedReplyStillReturnsQuiz(t *testing.T) {
	provider := &mockProvider{reply: "I couldn't come up with anything structured, sorry."}
	svc := newTestService(provider)

	quiz, err := svc.GenerateQuiz(context.Background(), GenerateInput{
		UserID: "user1",
		Prompt: "quiz me",
	})
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.NotEmpty(t, quiz.Title)
}

func TestGenerateFileAnalysis_RequiresSourceMaterial(t *testing.T) {
	svc := newTestService(&mockProvider{reply: "{}"})

	_, err := svc.GenerateFileAnalysis(context.Background(), GenerateInput{UserID: "user1"})
	require.Error(t, err)
}

func TestGenerateFileAnalysis_StampsUserID(t *testing.T) {
	provider := &mockProvider{reply: `{"subject":"Math","topics":["algebra"],"summary":"s"}`}
	svc := newTestService(provider)

	result, err := svc.GenerateFileAnalysis(context.Background(), GenerateInput{
		UserID:      "user1",
		SourceTexts: []string{"some extracted text"},
	})
	require.NoError(t, err)
	assert.Equal(t, "user1", result.UserID)
	assert.Equal(t, "Math", result.Subject)
}

func TestGenerateConversationalResponse_ReturnsRawText(t *testing.T) {
	provider := &mockProvider{reply: "Plain conversational answer."}
	svc := newTestService(provider)

	reply, err := svc.GenerateConversationalResponse(context.Background(), GenerateInput{
		UserID:  "user1",
		Prompt:  "explain entropy",
		History: []llms.Message{{Role: llms.RoleUser, Content: "hi"}, {Role: llms.RoleAssistant, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Plain conversational answer.", reply)
}

func TestGenerate_ProviderErrorPropagates(t *testing.T) {
	provider := &mockProvider{err: assert.AnError}
	svc := newTestService(provider)

	_, err := svc.GenerateStudyGuide(context.Background(), GenerateInput{
		UserID: "user1",
		Prompt: "make a guide",
	})
	require.Error(t, err)
	assert.Equal(t, 0, svc.Cache().Len())
}
