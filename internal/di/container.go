package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"handbook-rag/internal/adapter/embedding"
	"handbook-rag/internal/adapter/llm"
	"handbook-rag/internal/adapter/repository"
	"handbook-rag/internal/adapter/vectorindex"
	"handbook-rag/internal/domain"
	"handbook-rag/internal/infra/config"
	"handbook-rag/internal/infra/httpclient"
	"handbook-rag/internal/usecase"
	"handbook-rag/internal/usecase/retrieval"
	"handbook-rag/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Repositories
	DocRepo          domain.HandbookDocumentRepository
	JobRepo          domain.IndexJobRepository
	ConversationRepo domain.ConversationRepository

	// Usecases
	IndexUsecase    usecase.IndexPassageUsecase
	RetrieveUsecase usecase.RetrieveContextUsecase
	AnswerUsecase   usecase.AnswerUsecase

	// Worker
	Worker *worker.JobWorker
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	// Repositories
	docRepo := repository.NewHandbookDocumentRepository(pool)
	jobRepo := repository.NewIndexJobRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout) * time.Second)
	indexHTTP := httpclient.NewPooledClient(time.Duration(cfg.Index.Timeout) * time.Second)
	generationHTTP := httpclient.NewPooledClient(time.Duration(cfg.Generation.Timeout) * time.Second)

	// Encoder: HTTP feature extraction wrapped with random-vector degradation
	encoder := embedding.NewDegradableEncoder(
		embedding.NewHTTPEncoder(cfg.Embedder.URL, cfg.Embedder.Model, cfg.Embedder.APIKey, embedderHTTP),
		log,
	)

	// Vector index backend
	var index domain.VectorIndex
	switch cfg.Index.Backend {
	case "pgvector":
		index = repository.NewPgvectorIndex(pool)
		log.Info("vector_index_backend_selected", slog.String("backend", "pgvector"))
	default:
		index = vectorindex.NewHTTPClient(cfg.Index.URL, cfg.Index.APIKey, indexHTTP)
		log.Info("vector_index_backend_selected",
			slog.String("backend", "http"),
			slog.String("url", cfg.Index.URL))
	}

	// Generation client
	generator := llm.NewGenerator(cfg.Generation.URL, cfg.Generation.Model, generationHTTP)

	// Domain services
	hasher := domain.NewSourceHashPolicy()
	chunker := domain.NewChunker()

	// Index usecase
	indexUsecase := usecase.NewIndexPassageUsecase(
		docRepo, txManager, chunker, hasher, encoder, index, log,
	)

	// Retrieve usecase with configured ranking weights
	weights := retrieval.RankWeights{
		Vector:       cfg.RAG.WeightVector,
		Keyword:      cfg.RAG.WeightKeyword,
		MedicalBoost: cfg.RAG.WeightMedical,
		Length:       cfg.RAG.WeightLength,
	}
	retrieveUsecase := usecase.NewRetrieveContextUsecase(index, encoder, weights, log)

	// Answer usecase
	promptBuilder := usecase.NewHandbookPromptBuilder("")
	retrier := usecase.NewGenerationRetrier(
		cfg.Retry.MaxAttempts,
		time.Duration(cfg.Retry.AttemptTimeout)*time.Second,
		log,
	)
	answerUsecase := usecase.NewAnswerUsecase(
		retrieveUsecase, promptBuilder, generator, retrier, conversationRepo,
		cfg.RAG.MaxTokens, cfg.RAG.TopK,
		cfg.Cache.Size, time.Duration(cfg.Cache.TTL)*time.Minute,
		log,
	)

	// Worker
	jobWorker := worker.NewJobWorker(jobRepo, indexUsecase, log)

	return &ApplicationComponents{
		DocRepo:          docRepo,
		JobRepo:          jobRepo,
		ConversationRepo: conversationRepo,
		IndexUsecase:     indexUsecase,
		RetrieveUsecase:  retrieveUsecase,
		AnswerUsecase:    answerUsecase,
		Worker:           jobWorker,
	}
}
