package style

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-avatar/internal/state"
)

// LLMGenerator expands the base descriptor into a richer style prompt
// via a completion endpoint. When the endpoint misbehaves, the base
// descriptor is returned so a style update never fails hard.
type LLMGenerator struct {
	apiURL string
	model  string
	base   *DescriptorGenerator
	client *http.Client
}

// NewLLMGenerator creates a generator backed by a completion endpoint
func NewLLMGenerator(apiURL, model string) *LLMGenerator {
	return &LLMGenerator{
		apiURL: apiURL,
		model:  model,
		base:   NewDescriptorGenerator(),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GenerateStyleContext asks the model to embellish the descriptor prompt.
func (g *LLMGenerator) GenerateStyleContext(st state.ExpressiveState) ([]byte, error) {
	raw, err := g.base.GenerateStyleContext(st)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}

	prompt, err := g.complete(context.Background(), d.Prompt)
	if err != nil {
		// Degrade to the pure descriptor rather than failing the channel.
		return raw, nil
	}
	d.Prompt = prompt
	return json.Marshal(d)
}

func (g *LLMGenerator) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      g.model,
		"prompt":     "Describe a visual style for: " + prompt,
		"max_tokens": 80,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no completions returned")
	}
	return result.Choices[0].Text, nil
}
