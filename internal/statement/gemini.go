package statement

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const transcribePrompt = "You are transcribing a bank statement PDF.\n\n" +
	"Task:\n" +
	"- Output every transaction row of the statement as one line of plain text.\n" +
	"- Keep the column order: date, description, amount, Dr or Cr marker if shown, running balance if shown.\n" +
	"- Write dates exactly as printed. Do not convert, total or reorder anything.\n" +
	"- Omit headers, footers, page numbers and summary boxes.\n\n" +
	"Return ONLY the lines. Do NOT use Markdown or code fences.\n"

// ContentGenerator is the part of the genai client the extractor needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor asks a Gemini model to transcribe statements whose PDFs
// carry no usable text layer, such as scans.
type GeminiExtractor struct {
	models ContentGenerator
	model  string
}

// NewGeminiExtractor builds an extractor from the default genai client
// configuration (GOOGLE_API_KEY or Vertex AI environment).
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return NewGeminiExtractorWithGenerator(client.Models, model), nil
}

// NewGeminiExtractorWithGenerator wires an existing generator, mainly for tests.
func NewGeminiExtractorWithGenerator(models ContentGenerator, model string) *GeminiExtractor {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiExtractor{models: models, model: model}
}

// ExtractText implements TextExtractor.
func (g *GeminiExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: MimePDF,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GeminiExtractor: generate content: %w", err)
	}
	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("GeminiExtractor: empty response from model")
	}
	return stripFences(raw), nil
}

// stripFences removes a Markdown code fence the model may add despite the
// prompt.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return ""
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
