package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"handbook-rag/internal/domain"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultHistoryLimit = 20
	defaultCacheSize    = 256
	defaultCacheTTL     = 30 * time.Minute
)

// AnswerInput is one chat turn. An empty SessionID starts a new session.
type AnswerInput struct {
	Message   string
	SessionID string
	TopK      int
	UseRAG    *bool // nil means enabled
}

// AnswerOutput is the normalized chat response.
type AnswerOutput struct {
	Answer        string
	SessionID     string
	HistoryLength int
	UsingRAG      bool
	FallbackMode  bool // static canned text was substituted
	ContextText   string
	UsedFallback  bool // retrieval degraded to the keyword-only path
	Sources       []domain.ScoredCandidate
}

// AnswerUsecase generates a grounded chat answer: retrieve context, build
// the prompt, call generation under retry, degrade to static text on
// exhaustion.
type AnswerUsecase interface {
	Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error)
}

type answerUsecase struct {
	retrieve      RetrieveContextUsecase
	promptBuilder PromptBuilder
	llmClient     domain.LLMClient
	retrier       *GenerationRetrier
	static        *StaticResponder
	conversations domain.ConversationRepository
	historyCache  *expirable.LRU[string, []domain.ChatMessage]
	maxTokens     int
	topK          int
	logger        *slog.Logger
}

// NewAnswerUsecase wires the chat answer pipeline. cacheSize/cacheTTL size
// the in-memory history cache in front of the conversation repository.
func NewAnswerUsecase(
	retrieve RetrieveContextUsecase,
	promptBuilder PromptBuilder,
	llmClient domain.LLMClient,
	retrier *GenerationRetrier,
	conversations domain.ConversationRepository,
	maxTokens, topK, cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) AnswerUsecase {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	return &answerUsecase{
		retrieve:      retrieve,
		promptBuilder: promptBuilder,
		llmClient:     llmClient,
		retrier:       retrier,
		static:        NewStaticResponder(),
		conversations: conversations,
		historyCache:  expirable.NewLRU[string, []domain.ChatMessage](cacheSize, nil, cacheTTL),
		maxTokens:     maxTokens,
		topK:          topK,
		logger:        logger,
	}
}

func (u *answerUsecase) Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrEmptyMessage
	}

	sessionID := u.resolveSession(input.SessionID)
	history := u.loadHistory(ctx, sessionID)
	u.appendMessage(ctx, sessionID, &history, domain.RoleUser, input.Message)

	useRAG := input.UseRAG == nil || *input.UseRAG

	var (
		contextText  string
		usedFallback bool
		sources      []domain.ScoredCandidate
	)
	if useRAG {
		topK := input.TopK
		if topK <= 0 {
			topK = u.topK
		}
		retrieved := u.retrieve.Execute(ctx, RetrieveContextInput{Query: input.Message, TopK: topK})
		contextText = u.retrieve.FormatContext(retrieved.Candidates)
		usedFallback = retrieved.UsedFallback
		sources = retrieved.Candidates
	}

	prompt := u.promptBuilder.Build(PromptInput{
		Question:     input.Message,
		ContextBlock: contextText,
	})

	answer, fallbackMode := u.generate(ctx, prompt, input.Message)

	u.appendMessage(ctx, sessionID, &history, domain.RoleModel, answer)

	return &AnswerOutput{
		Answer:        answer,
		SessionID:     sessionID.String(),
		HistoryLength: len(history),
		UsingRAG:      useRAG,
		FallbackMode:  fallbackMode,
		ContextText:   contextText,
		UsedFallback:  usedFallback,
		Sources:       sources,
	}, nil
}

// generate calls the backend under retry and substitutes a canned response
// once attempts are exhausted. Generation has no safe default inside the
// retry wrapper; the substitution happens here, at the caller.
func (u *answerUsecase) generate(ctx context.Context, prompt, message string) (string, bool) {
	text, err := u.retrier.CallWithRetry(ctx, func(attemptCtx context.Context) (string, error) {
		resp, genErr := u.llmClient.Generate(attemptCtx, prompt, u.maxTokens)
		if genErr != nil {
			return "", genErr
		}
		if resp == nil || strings.TrimSpace(resp.Text) == "" {
			return "", ErrEmptyGeneration
		}
		return resp.Text, nil
	})
	if err != nil {
		u.logger.Warn("generation_exhausted_using_static_fallback",
			slog.String("error", err.Error()))
		return u.static.Respond(message), true
	}
	return strings.TrimSpace(text), false
}

func (u *answerUsecase) resolveSession(raw string) uuid.UUID {
	if raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id
		}
		u.logger.Warn("invalid_session_id_starting_new_session",
			slog.String("session_id", raw))
	}
	return uuid.New()
}

// loadHistory serves history from the LRU cache, falling back to the
// repository. History is advisory; failures are logged and absorbed.
func (u *answerUsecase) loadHistory(ctx context.Context, sessionID uuid.UUID) []domain.ChatMessage {
	if cached, ok := u.historyCache.Get(sessionID.String()); ok {
		return cached
	}
	if u.conversations == nil {
		return nil
	}
	history, err := u.conversations.RecentMessages(ctx, sessionID, defaultHistoryLimit)
	if err != nil {
		u.logger.Warn("failed_to_load_history",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return nil
	}
	return history
}

func (u *answerUsecase) appendMessage(ctx context.Context, sessionID uuid.UUID, history *[]domain.ChatMessage, role, content string) {
	msg := domain.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	*history = append(*history, msg)
	u.historyCache.Add(sessionID.String(), *history)

	if u.conversations == nil {
		return
	}
	if err := u.conversations.SaveMessage(ctx, &msg); err != nil {
		u.logger.Warn("failed_to_save_message",
			slog.String("session_id", sessionID.String()),
			slog.String("role", role),
			slog.String("error", err.Error()))
	}
}
