package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/time/rate"

	"github.com/promptune/promptune/config"
	"github.com/promptune/promptune/utils"
)

// Client is the production Invoker for OpenAI-compatible
// chat-completions endpoints. It owns retries, per-call timeouts,
// optional rate limiting and response-shape enforcement; the tuning
// roles see none of that.
type Client struct {
	cfg      *config.Config
	client   *http.Client
	logger   utils.Logger
	limiter  *rate.Limiter
	encoding *tiktoken.Tiktoken
}

func NewClient(cfg *config.Config, logger utils.Logger) (*Client, error) {
	encoding, err := tiktoken.EncodingForModel(cfg.Model)
	if err != nil {
		logger.Warn("Failed to get encoding for model, defaulting to gpt-4o", "model", cfg.Model, "error", err)
		encoding, err = tiktoken.EncodingForModel("gpt-4o")
		if err != nil {
			return nil, fmt.Errorf("failed to get default encoding: %w", err)
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimitInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateLimitInterval), 1)
	}

	return &Client{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		limiter:  limiter,
		encoding: encoding,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Invoke implements Invoker with the configured retry policy. The last
// failure is wrapped and returned when all attempts are exhausted.
func (c *Client) Invoke(ctx context.Context, req Request, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		c.logger.Debug("Invoking model", "role", req.Role, "attempt", attempt+1)

		lastErr = c.attemptInvoke(ctx, req, out)
		if lastErr == nil {
			return nil
		}

		c.logger.Warn("Invocation attempt failed", "role", req.Role, "error", lastErr, "attempt", attempt+1)

		if attempt < c.cfg.MaxRetries {
			c.logger.Debug("Retrying", "delay", c.cfg.RetryDelay)
			if err := c.wait(ctx); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("invocation failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.cfg.RetryDelay):
		return nil
	}
}

func (c *Client) attemptInvoke(ctx context.Context, req Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return NewInvokeError(ErrorTypeRequest, "rate limiter wait failed", err)
		}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	reqBody, err := c.prepareRequest(req, out)
	if err != nil {
		return NewInvokeError(ErrorTypeRequest, "failed to prepare request", err)
	}
	c.logger.Debug("Request body", "role", req.Role, "body", string(reqBody))

	if c.encoding != nil {
		promptTokens := c.encoding.Encode(req.SystemPrompt+req.Input, nil, nil)
		c.logger.Debug("Estimated prompt tokens", "role", req.Role, "tokens", len(promptTokens))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return NewInvokeError(ErrorTypeRequest, "failed to create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey := c.cfg.APIKey(); apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for k, v := range c.cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return NewInvokeError(ErrorTypeRequest, "failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewInvokeError(ErrorTypeResponse, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("API error", "role", req.Role, "status", resp.StatusCode, "body", string(body))
		return NewInvokeError(ErrorTypeAPI, fmt.Sprintf("API error: status code %d", resp.StatusCode), nil)
	}

	return c.parseResponse(req, body, out)
}

func (c *Client) prepareRequest(req Request, out any) ([]byte, error) {
	schema, err := GenerateJSONSchema(out)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	return json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Input},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   string(req.Role) + "_output",
				Strict: true,
				Schema: schema,
			},
		},
	})
}

func (c *Client) parseResponse(req Request, body []byte, out any) error {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return NewInvokeError(ErrorTypeResponse, "failed to parse response", err)
	}
	if len(parsed.Choices) == 0 {
		return NewInvokeError(ErrorTypeResponse, "response contains no choices", nil)
	}

	content := cleanJSONResponse(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return NewInvokeError(ErrorTypeResponse, "result does not match output shape", err)
	}

	if err := Validate(out); err != nil {
		return NewInvokeError(ErrorTypeValidation, "result failed shape validation", err)
	}

	c.logger.Debug("Invocation succeeded", "role", req.Role)
	return nil
}

// cleanJSONResponse strips markdown fences some models wrap around
// JSON output and trims to the outermost object.
func cleanJSONResponse(response string) string {
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "{") {
		return response
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start != -1 && end != -1 && end > start {
		return response[start : end+1]
	}

	return response
}
