// Package advisor suggests categories for uncategorized transactions using
// Gemini. Suggestions are advisory only: nothing is written to the ledger
// until the user confirms one through the categorization service.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/hausledger/backend/internal/model"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.0-flash"

// Confidence grades how sure the model is about a suggestion.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Suggestion proposes a category for one transaction.
type Suggestion struct {
	TransactionID uuid.UUID  `json:"transactionId"`
	CategoryID    uuid.UUID  `json:"categoryId"`
	Confidence    Confidence `json:"confidence"`
}

// Suggester proposes categories for uncategorized transactions.
type Suggester interface {
	Suggest(ctx context.Context, txs []*model.Transaction, categories []*model.Category) ([]Suggestion, error)
}

// GeminiSuggester asks Gemini to map merchant names onto the user's
// category taxonomy.
type GeminiSuggester struct {
	client *genai.Client
	model  string
}

// NewGeminiSuggester creates a suggester backed by the Gemini API. The API
// key comes from the environment via the client config.
func NewGeminiSuggester(ctx context.Context, apiKey, modelName string) (*GeminiSuggester, error) {
	if modelName == "" {
		modelName = DefaultModelName
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiSuggester{client: client, model: modelName}, nil
}

// Suggest returns at most one suggestion per transaction. Transactions the
// model cannot place are omitted rather than guessed at.
func (g *GeminiSuggester) Suggest(ctx context.Context, txs []*model.Transaction, categories []*model.Category) ([]Suggestion, error) {
	if len(txs) == 0 || len(categories) == 0 {
		return nil, nil
	}

	prompt := buildPrompt(txs, categories)
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var parsed []struct {
		TransactionID string `json:"transactionId"`
		CategoryID    string `json:"categoryId"`
		Confidence    string `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal suggestions: %w", err)
	}

	txIDs := make(map[uuid.UUID]struct{}, len(txs))
	for _, tx := range txs {
		txIDs[tx.ID] = struct{}{}
	}
	catIDs := make(map[uuid.UUID]struct{}, len(categories))
	for _, c := range categories {
		catIDs[c.ID] = struct{}{}
	}

	var suggestions []Suggestion
	for _, p := range parsed {
		txID, err := uuid.Parse(p.TransactionID)
		if err != nil {
			continue
		}
		catID, err := uuid.Parse(p.CategoryID)
		if err != nil {
			continue
		}
		// Drop hallucinated ids.
		if _, ok := txIDs[txID]; !ok {
			continue
		}
		if _, ok := catIDs[catID]; !ok {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			TransactionID: txID,
			CategoryID:    catID,
			Confidence:    parseConfidence(p.Confidence),
		})
	}
	return suggestions, nil
}

func buildPrompt(txs []*model.Transaction, categories []*model.Category) string {
	var b strings.Builder
	b.WriteString("You are a personal-finance categorization assistant.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Assign each transaction below to the best-fitting category.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no extra text).\n")
	b.WriteString("- Output a JSON array of objects with fields:\n")
	b.WriteString("  \"transactionId\": string (copied verbatim)\n")
	b.WriteString("  \"categoryId\": string (one of the category ids below)\n")
	b.WriteString("  \"confidence\": \"high\", \"medium\" or \"low\"\n")
	b.WriteString("- Omit transactions you cannot place with at least low confidence.\n")
	b.WriteString("- Return ONLY valid raw JSON, beginning with \"[\" and ending with \"]\".\n")
	b.WriteString("- Do NOT wrap the response in code fences.\n\n")

	b.WriteString("Categories:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %s\n", c.ID, c.Name)
	}

	b.WriteString("\nTransactions:\n")
	for _, tx := range txs {
		fmt.Fprintf(&b, "- %s: %s %s %.2f\n", tx.ID, tx.Date.Format("2006-01-02"), tx.Merchant, tx.Amount)
	}
	return b.String()
}

func parseConfidence(s string) Confidence {
	switch Confidence(strings.ToLower(s)) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// cleanModelJSON strips Markdown fences and surrounding junk the model
// sometimes emits despite instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

// NoopSuggester is used when no API key is configured. It always returns
// no suggestions.
type NoopSuggester struct{}

func (NoopSuggester) Suggest(context.Context, []*model.Transaction, []*model.Category) ([]Suggestion, error) {
	return nil, nil
}
