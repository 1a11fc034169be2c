package handbook_http

import (
	"errors"
	"net/http"
	"time"

	"handbook-rag/internal/domain"
	"handbook-rag/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	retrieveUsecase usecase.RetrieveContextUsecase
	answerUsecase   usecase.AnswerUsecase
	jobRepo         domain.IndexJobRepository
}

func NewHandler(
	retrieveUsecase usecase.RetrieveContextUsecase,
	answerUsecase usecase.AnswerUsecase,
	jobRepo domain.IndexJobRepository,
) *Handler {
	return &Handler{
		retrieveUsecase: retrieveUsecase,
		answerUsecase:   answerUsecase,
		jobRepo:         jobRepo,
	}
}

// RegisterRoutes attaches the public and internal endpoints.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/chat", h.Chat)
	e.POST("/v1/retrieve", h.Retrieve)
	e.POST("/internal/index/backfill", h.Backfill)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
	UseRAG    *bool  `json:"use_rag,omitempty"`
}

type chatResponse struct {
	Response       string `json:"response"`
	SessionID      string `json:"session_id"`
	HistoryLength  int    `json:"history_length"`
	UsingRAG       bool   `json:"using_rag"`
	FallbackMode   bool   `json:"fallback_mode"`
	ResponseLength int    `json:"response_length"`
}

// Chat answers one conversational turn.
// (POST /v1/chat)
func (h *Handler) Chat(ctx echo.Context) error {
	var req chatRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	output, err := h.answerUsecase.Execute(ctx.Request().Context(), usecase.AnswerInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		TopK:      req.TopK,
		UseRAG:    req.UseRAG,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyMessage) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, chatResponse{
		Response:       output.Answer,
		SessionID:      output.SessionID,
		HistoryLength:  output.HistoryLength,
		UsingRAG:       output.UsingRAG,
		FallbackMode:   output.FallbackMode,
		ResponseLength: len(output.Answer),
	})
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type retrieveCandidate struct {
	ID               string  `json:"id"`
	Text             string  `json:"text"`
	VectorScore      float64 `json:"vector_score"`
	KeywordScore     float64 `json:"keyword_score"`
	MedicalTermBoost float64 `json:"medical_term_boost"`
	LengthScore      float64 `json:"length_score"`
	CombinedScore    float64 `json:"combined_score"`
}

type retrieveResponse struct {
	Candidates   []retrieveCandidate `json:"candidates"`
	Context      string              `json:"context"`
	UsedFallback bool                `json:"used_fallback"`
	RetrievalID  string              `json:"retrieval_id"`
}

// Retrieve returns ranked passages without generation.
// (POST /v1/retrieve)
func (h *Handler) Retrieve(ctx echo.Context) error {
	var req retrieveRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	output := h.retrieveUsecase.Execute(ctx.Request().Context(), usecase.RetrieveContextInput{
		Query: req.Query,
		TopK:  req.TopK,
	})

	candidates := make([]retrieveCandidate, 0, len(output.Candidates))
	for _, c := range output.Candidates {
		candidates = append(candidates, retrieveCandidate{
			ID:               c.ID,
			Text:             c.Text,
			VectorScore:      c.VectorScore,
			KeywordScore:     c.KeywordScore,
			MedicalTermBoost: c.MedicalTermBoost,
			LengthScore:      c.LengthScore,
			CombinedScore:    c.CombinedScore,
		})
	}

	return ctx.JSON(http.StatusOK, retrieveResponse{
		Candidates:   candidates,
		Context:      h.retrieveUsecase.FormatContext(output.Candidates),
		UsedFallback: output.UsedFallback,
		RetrievalID:  output.RetrievalID,
	})
}

type backfillRequest struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// Backfill enqueues a handbook section for indexing.
// (POST /internal/index/backfill)
func (h *Handler) Backfill(ctx echo.Context) error {
	var req backfillRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.SectionID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing section_id"})
	}
	if req.Title == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing title"})
	}
	if req.Body == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing body"})
	}

	job := &domain.IndexJob{
		ID:      uuid.New(),
		JobType: domain.JobTypeIndexSection,
		Payload: map[string]interface{}{
			"section_id": req.SectionID,
			"title":      req.Title,
			"body":       req.Body,
		},
		Status:    domain.JobStatusNew,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := h.jobRepo.Enqueue(ctx.Request().Context(), job); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusAccepted, map[string]string{"job_id": job.ID.String(), "status": "queued"})
}
