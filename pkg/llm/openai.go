package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"podcast-rag-go/internal/config"
)

type openAICompatibleClient struct {
	cfg    config.LLMConfig
	gen    GenerationParams
	client *http.Client
}

// NewOpenAICompatibleClient creates a streaming chat client for OpenAI-compatible endpoints (DeepSeek, OpenAI, vLLM).
func NewOpenAICompatibleClient(cfg config.LLMConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		gen:    ParamsFromConfig(cfg.Generation),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *openAICompatibleClient) ModelName() string { return c.cfg.Model }

func (c *openAICompatibleClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Stream(ctx, prompt, nil)
}

// Stream calls the chat completions API with stream=true and reads the SSE response.
func (c *openAICompatibleClient) Stream(ctx context.Context, prompt string, w ChunkWriter) (string, error) {
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Stream:      true,
		Temperature: c.gen.Temperature,
		TopP:        c.gen.TopP,
		MaxTokens:   c.gen.MaxTokens,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var answer strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read from stream: %w", err)
		}
		if data, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "data: "); ok {
			if strings.TrimSpace(data) == "[DONE]" {
				break
			}
			var chunk chatResponse
			if jsonErr := json.Unmarshal([]byte(data), &chunk); jsonErr == nil && len(chunk.Choices) > 0 {
				content := chunk.Choices[0].Delta.Content
				if content != "" {
					answer.WriteString(content)
					if w != nil {
						if werr := w.WriteChunk(content); werr != nil {
							return "", fmt.Errorf("failed to write chunk: %w", werr)
						}
					}
				}
			}
		}
		if err == io.EOF {
			break
		}
	}
	return answer.String(), nil
}
