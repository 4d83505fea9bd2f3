// Package gemini implements the insight analyzer directly against a
// Gemini model, as an alternative to the remote analysis endpoint. The
// model is asked for strict JSON matching the Insight record.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"paydash/internal/core"
)

const DefaultModelName = "gemini-2.0-flash"

type Analyzer struct {
	model string
}

// New creates a Gemini-backed analyzer. Credentials come from the
// environment (GEMINI_API_KEY or application default credentials).
func New(model string) *Analyzer {
	if model == "" {
		model = DefaultModelName
	}
	return &Analyzer{model: model}
}

// AnalyzeMonth builds a spending-analysis prompt from the month's
// transactions and parses the model's strict-JSON reply into an Insight.
func (a *Analyzer) AnalyzeMonth(ctx context.Context, month string, txs []core.Transaction) (core.Insight, error) {
	prompt, err := buildPrompt(month, txs)
	if err != nil {
		return core.Insight{}, fmt.Errorf("build prompt: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return core.Insight{}, fmt.Errorf("create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return core.Insight{}, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return core.Insight{}, fmt.Errorf("empty response from model")
	}

	clean := cleanModelJSON(rawText)

	var insight core.Insight
	if err := json.Unmarshal([]byte(clean), &insight); err != nil {
		return core.Insight{}, fmt.Errorf("unmarshal insight JSON: %w\nraw response: %s", err, rawText)
	}
	insight.Month = month
	if err := insight.Validate(); err != nil {
		return core.Insight{}, fmt.Errorf("model returned invalid insight: %w", err)
	}
	return insight, nil
}

func buildPrompt(month string, txs []core.Transaction) (string, error) {
	summary := core.SummarizeMonth(txs, month)
	txJSON, err := json.Marshal(txs)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are a personal-finance analyst reviewing one month of payment transactions.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Analyze the transactions for " + month + " and produce spending insights.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object.\n\n")
	b.WriteString("The object must have these fields:\n")
	b.WriteString("- \"summary\": string, a short plain-language overview of the month\n")
	b.WriteString("- \"trends\": array of {\"type\": \"increase\"|\"decrease\"|\"stable\", \"category\": string, \"change\": string like \"+23%\", \"description\": string}\n")
	b.WriteString("- \"recommendations\": array of {\"title\": string, \"description\": string, \"priority\": \"high\"|\"medium\"|\"low\"}\n")
	b.WriteString("- \"budgetHealth\": {\"score\": integer 0-100, \"status\": string, \"description\": string}\n\n")
	fmt.Fprintf(&b, "Month total: %s across %d transactions.\n", summary.Total, summary.Transactions)
	b.WriteString("Transactions (JSON):\n")
	b.Write(txJSON)
	b.WriteString("\n\nReturn ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")
	return b.String(), nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost object if junk remains around it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
