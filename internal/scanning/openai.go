package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const openAITimeout = 60 * time.Second

// OpenAI implements the Scanner interface using the OpenAI chat completions
// API with an inlined base64 image.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	prompt  string
	client  *http.Client
}

// NewOpenAI creates a new OpenAI Scanner instance
func NewOpenAI(apiKey string, baseURL string, modelName string, categories []string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if modelName == "" {
		modelName = "gpt-4o"
	}

	return &OpenAI{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   modelName,
		prompt:  BuildPrompt(categories),
		client: &http.Client{
			Timeout: openAITimeout,
		},
	}, nil
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Scan base64-encodes the stored receipt image, inlines it in a chat
// completion request, and returns the first choice's text content.
func (o *OpenAI) Scan(imagePath string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openAITimeout)
	defer cancel()

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", &ScanError{Provider: "openai", Err: fmt.Errorf("reading image: %w", err)}
	}

	imageBase64 := base64.StdEncoding.EncodeToString(data)
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType(imagePath), imageBase64)

	reqBody := chatCompletionRequest{
		Model:     o.model,
		MaxTokens: 500,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: o.prompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: dataURI}},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ScanError{Provider: "openai", Err: fmt.Errorf("marshaling request: %w", err)}
	}

	url := strings.TrimRight(o.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &ScanError{Provider: "openai", Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &ScanError{Provider: "openai", Err: fmt.Errorf("calling openai API: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &ScanError{Provider: "openai", Err: fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(body))}
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &ScanError{Provider: "openai", Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(chatResp.Choices) == 0 {
		return "", &ScanError{Provider: "openai", Err: fmt.Errorf("no choices in openai response")}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Close closes the OpenAI client (no-op for HTTP client)
func (o *OpenAI) Close() error {
	return nil
}

// mimeType maps a stored file's extension to its MIME type, defaulting to
// JPEG when the extension is unknown.
func mimeType(imagePath string) string {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/jpeg"
	}
}
