package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"handbook-rag/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stubs ---

type stubRetrieve struct {
	output *RetrieveContextOutput
	calls  int
}

func (s *stubRetrieve) Execute(ctx context.Context, input RetrieveContextInput) *RetrieveContextOutput {
	s.calls++
	return s.output
}

func (s *stubRetrieve) FormatContext(candidates []domain.ScoredCandidate) string {
	if len(candidates) == 0 {
		return ""
	}
	return "[1] " + candidates[0].Text
}

type stubLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.LLMResponse{Text: s.response, Done: true}, nil
}

func (s *stubLLM) Version() string { return "test-model" }

type stubConversations struct {
	mu       sync.Mutex
	saved    []*domain.ChatMessage
	recent   []domain.ChatMessage
	saveErr  error
	loadErr  error
	loadHits int
}

func (s *stubConversations) SaveMessage(ctx context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, msg)
	return nil
}

func (s *stubConversations) RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadHits++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.recent, nil
}

func newAnswerFixture(retrieve *stubRetrieve, llmClient *stubLLM, conversations domain.ConversationRepository) AnswerUsecase {
	retrier := NewGenerationRetrier(3, time.Second, discardLogger())
	retrier.backoffUnit = time.Millisecond
	return NewAnswerUsecase(
		retrieve,
		NewHandbookPromptBuilder(""),
		llmClient,
		retrier,
		conversations,
		512, 5, 16, time.Minute,
		discardLogger(),
	)
}

// --- tests ---

func TestAnswer_HappyPathWithContext(t *testing.T) {
	retrieve := &stubRetrieve{output: &RetrieveContextOutput{
		Candidates: []domain.ScoredCandidate{{Text: "Diabetes raises blood sugar."}},
	}}
	llmClient := &stubLLM{response: "Grounded answer."}
	conversations := &stubConversations{}

	output, err := newAnswerFixture(retrieve, llmClient, conversations).Execute(context.Background(), AnswerInput{
		Message: "What is diabetes?",
	})

	require.NoError(t, err)
	assert.Equal(t, "Grounded answer.", output.Answer)
	assert.True(t, output.UsingRAG)
	assert.False(t, output.FallbackMode)
	assert.Equal(t, "[1] Diabetes raises blood sugar.", output.ContextText)
	assert.NotEmpty(t, output.SessionID)
	assert.Equal(t, 2, output.HistoryLength, "user turn plus model turn")
	assert.Len(t, conversations.saved, 2)
	assert.Equal(t, domain.RoleUser, conversations.saved[0].Role)
	assert.Equal(t, domain.RoleModel, conversations.saved[1].Role)
}

func TestAnswer_EmptyMessageRejected(t *testing.T) {
	uc := newAnswerFixture(&stubRetrieve{output: &RetrieveContextOutput{}}, &stubLLM{response: "x"}, &stubConversations{})

	_, err := uc.Execute(context.Background(), AnswerInput{Message: "   "})

	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAnswer_RAGDisabledSkipsRetrieval(t *testing.T) {
	retrieve := &stubRetrieve{output: &RetrieveContextOutput{
		Candidates: []domain.ScoredCandidate{{Text: "unused"}},
	}}
	llmClient := &stubLLM{response: "No-context answer."}

	useRAG := false
	output, err := newAnswerFixture(retrieve, llmClient, &stubConversations{}).Execute(context.Background(), AnswerInput{
		Message: "hello",
		UseRAG:  &useRAG,
	})

	require.NoError(t, err)
	assert.False(t, output.UsingRAG)
	assert.Empty(t, output.ContextText)
	assert.Equal(t, 0, retrieve.calls)
}

func TestAnswer_StaticFallbackOnExhaustion(t *testing.T) {
	retrieve := &stubRetrieve{output: &RetrieveContextOutput{}}
	llmClient := &stubLLM{err: errors.New("backend down")}

	output, err := newAnswerFixture(retrieve, llmClient, &stubConversations{}).Execute(context.Background(), AnswerInput{
		Message: "Tell me about diabetes symptoms",
	})

	require.NoError(t, err)
	assert.True(t, output.FallbackMode)
	assert.Equal(t, 3, llmClient.calls, "all attempts consumed before degrading")
	assert.Contains(t, output.Answer, "Diabetes", "topic-matched canned response")
}

func TestAnswer_StaticFallbackTopics(t *testing.T) {
	responder := NewStaticResponder()

	assert.Contains(t, responder.Respond("leukemia warning signs"), "Leukemia")
	assert.Contains(t, responder.Respond("random question"), "General Medical Advice")
}

func TestAnswer_EmptyGenerationCountsAsFailure(t *testing.T) {
	retrieve := &stubRetrieve{output: &RetrieveContextOutput{}}
	llmClient := &stubLLM{response: "   "}

	output, err := newAnswerFixture(retrieve, llmClient, &stubConversations{}).Execute(context.Background(), AnswerInput{
		Message: "anything at all",
	})

	require.NoError(t, err)
	assert.True(t, output.FallbackMode)
	assert.Equal(t, 3, llmClient.calls)
}

func TestAnswer_SessionContinuationUsesCache(t *testing.T) {
	retrieve := &stubRetrieve{output: &RetrieveContextOutput{}}
	llmClient := &stubLLM{response: "answer"}
	conversations := &stubConversations{}
	uc := newAnswerFixture(retrieve, llmClient, conversations)

	first, err := uc.Execute(context.Background(), AnswerInput{Message: "first question"})
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), AnswerInput{
		Message:   "second question",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 4, second.HistoryLength)
	assert.Equal(t, 1, conversations.loadHits, "repository consulted only on the first cache miss")
}

func TestAnswer_InvalidSessionIDStartsNewSession(t *testing.T) {
	uc := newAnswerFixture(&stubRetrieve{output: &RetrieveContextOutput{}}, &stubLLM{response: "answer"}, &stubConversations{})

	output, err := uc.Execute(context.Background(), AnswerInput{
		Message:   "hi there friend",
		SessionID: "not-a-uuid",
	})

	require.NoError(t, err)
	_, parseErr := uuid.Parse(output.SessionID)
	assert.NoError(t, parseErr)
	assert.NotEqual(t, "not-a-uuid", output.SessionID)
}

func TestAnswer_RepositoryFailuresAreAbsorbed(t *testing.T) {
	conversations := &stubConversations{
		saveErr: errors.New("db down"),
		loadErr: errors.New("db down"),
	}
	uc := newAnswerFixture(&stubRetrieve{output: &RetrieveContextOutput{}}, &stubLLM{response: "answer"}, conversations)

	output, err := uc.Execute(context.Background(), AnswerInput{Message: "hello world today"})

	require.NoError(t, err, "history persistence is advisory")
	assert.Equal(t, "answer", output.Answer)
}
