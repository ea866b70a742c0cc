package api

import (
	"context"
	"fmt"
)

// aiModeSingleItemQA is the question-answering mode for one file.
const aiModeSingleItemQA = "single_item_qa"

// AIItem identifies a piece of content an AI request is grounded on.
type AIItem struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// aiRequest is the payload for the AI endpoints. Mode is only set for
// ask requests; text generation takes prompt and items alone.
type aiRequest struct {
	Mode   string   `json:"mode,omitempty"`
	Prompt string   `json:"prompt"`
	Items  []AIItem `json:"items"`
}

// AIResponse is the answer produced by an AI endpoint.
type AIResponse struct {
	Answer           string `json:"answer"`
	CreatedAt        string `json:"created_at,omitempty"`
	CompletionReason string `json:"completion_reason,omitempty"`
}

// AskAI asks a question about a single file.
func (c *Client) AskAI(ctx context.Context, prompt, fileID string) (*AIResponse, error) {
	return c.aiPost(ctx, "/ai/ask", aiRequest{
		Mode:   aiModeSingleItemQA,
		Prompt: prompt,
		Items:  []AIItem{{ID: fileID, Type: "file"}},
	})
}

// GenerateText generates text grounded on a single file, used for
// summaries and information extraction.
func (c *Client) GenerateText(ctx context.Context, prompt, fileID string) (*AIResponse, error) {
	return c.aiPost(ctx, "/ai/text_gen", aiRequest{
		Prompt: prompt,
		Items:  []AIItem{{ID: fileID, Type: "file"}},
	})
}

func (c *Client) aiPost(ctx context.Context, endpoint string, body aiRequest) (*AIResponse, error) {
	var result AIResponse
	r, err := c.restClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(endpoint)

	if err != nil {
		return nil, fmt.Errorf("ai request failed: %w", err)
	}

	if r.IsError() {
		return nil, parseErrorResponse(r.StatusCode(), r.Header(), r.Body())
	}

	return &result, nil
}
