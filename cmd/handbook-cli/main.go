package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Global flags
	serverURL string
	verbose   bool

	// Ask command flags
	sessionID string
	noRAG     bool

	// Retrieve command flags
	topK int

	// Index command flags
	inputFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "handbook-cli",
	Short:   "Query and manage the medical handbook retrieval service",
	Version: version,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve ranked handbook passages for a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrieve,
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the handbook assistant a question",
	Long: `Ask the handbook assistant a question.

Pass --session to continue an existing conversation:

  handbook-cli ask "What are the symptoms of diabetes?"
  handbook-cli ask --session <id> "What about treatment?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Enqueue handbook sections from a JSON file for indexing",
	Long: `Enqueue handbook sections for indexing.

The input file is a JSON array of sections:

  [{"section_id": "diabetes-overview", "title": "Diabetes", "body": "..."}]`,
	RunE: runIndex,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9020", "service base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	askCmd.Flags().StringVar(&sessionID, "session", "", "session ID to continue a conversation")
	askCmd.Flags().BoolVar(&noRAG, "no-rag", false, "answer without handbook retrieval")

	retrieveCmd.Flags().IntVar(&topK, "top-k", 5, "number of passages to return")

	indexCmd.Flags().StringVar(&inputFile, "file", "", "JSON file with sections to index (required)")
	_ = indexCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(indexCmd)
}

func newClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}

func postJSON(client *http.Client, path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := client.Post(serverURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(body))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type retrieveResult struct {
	Candidates []struct {
		ID            string  `json:"id"`
		Text          string  `json:"text"`
		CombinedScore float64 `json:"combined_score"`
		VectorScore   float64 `json:"vector_score"`
		KeywordScore  float64 `json:"keyword_score"`
	} `json:"candidates"`
	UsedFallback bool   `json:"used_fallback"`
	RetrievalID  string `json:"retrieval_id"`
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	client := newClient()

	var result retrieveResult
	err := postJSON(client, "/v1/retrieve", map[string]interface{}{
		"query": args[0],
		"top_k": topK,
	}, &result)
	if err != nil {
		return err
	}

	if result.UsedFallback {
		color.Yellow("keyword-only fallback was used")
	}
	if len(result.Candidates) == 0 {
		fmt.Println("No passages found.")
		return nil
	}

	scoreColor := color.New(color.FgGreen)
	idColor := color.New(color.FgCyan)
	for i, c := range result.Candidates {
		fmt.Printf("[%d] ", i+1)
		idColor.Printf("%s ", c.ID)
		scoreColor.Printf("score=%.4f\n", c.CombinedScore)
		if verbose {
			fmt.Printf("    vector=%.4f keyword=%.4f\n", c.VectorScore, c.KeywordScore)
		}
		fmt.Printf("    %s\n\n", c.Text)
	}
	return nil
}

type chatResult struct {
	Response      string `json:"response"`
	SessionID     string `json:"session_id"`
	HistoryLength int    `json:"history_length"`
	UsingRAG      bool   `json:"using_rag"`
	FallbackMode  bool   `json:"fallback_mode"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	client := newClient()

	payload := map[string]interface{}{
		"message": args[0],
	}
	if sessionID != "" {
		payload["session_id"] = sessionID
	}
	if noRAG {
		useRAG := false
		payload["use_rag"] = useRAG
	}

	var result chatResult
	if err := postJSON(client, "/v1/chat", payload, &result); err != nil {
		return err
	}

	if result.FallbackMode {
		color.Yellow("generation unavailable, showing a canned response")
	}
	fmt.Println(result.Response)
	fmt.Println()
	color.New(color.Faint).Printf("session=%s history=%d rag=%t\n",
		result.SessionID, result.HistoryLength, result.UsingRAG)
	return nil
}

type sectionInput struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	var sections []sectionInput
	if err := json.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("parse input file: %w", err)
	}
	if len(sections) == 0 {
		return fmt.Errorf("no sections in %s", inputFile)
	}

	client := newClient()
	success := 0
	failed := 0

	for _, s := range sections {
		var result map[string]string
		err := postJSON(client, "/internal/index/backfill", s, &result)
		if err != nil {
			color.Red("failed %s: %v", s.SectionID, err)
			failed++
			continue
		}
		if verbose {
			fmt.Printf("queued %s job=%s\n", s.SectionID, result["job_id"])
		}
		success++
	}

	color.Green("Enqueued %d sections (%d failed)", success, failed)
	if failed > 0 {
		return fmt.Errorf("%d sections failed", failed)
	}
	return nil
}
