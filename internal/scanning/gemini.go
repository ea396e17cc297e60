package scanning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiTimeout = 30 * time.Second

// Gemini implements the Scanner interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	prompt string
}

// NewGemini creates a new Gemini Scanner instance
func NewGemini(apiKey string, modelName string, categories []string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
		prompt: BuildPrompt(categories),
	}, nil
}

// Scan sends the stored receipt image to Gemini and returns the raw text
// completion.
func (g *Gemini) Scan(imagePath string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), geminiTimeout)
	defer cancel()

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", &ScanError{Provider: "gemini", Err: fmt.Errorf("reading image: %w", err)}
	}

	// genai.ImageData expects just the format suffix (e.g. "jpeg"), not a
	// full MIME type.
	parts := []genai.Part{
		genai.ImageData(imageFormat(imagePath), data),
		genai.Text(g.prompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", &ScanError{Provider: "gemini", Err: fmt.Errorf("generating content: %w", err)}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &ScanError{Provider: "gemini", Err: fmt.Errorf("no response from gemini")}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return responseText.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// imageFormat maps a stored file's extension to the format suffix genai
// expects. The artifact store only holds jpg and png files.
func imageFormat(imagePath string) string {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".png":
		return "png"
	default:
		return "jpeg"
	}
}
