package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// Config holds entity-extractor API settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls a chat-completions style extraction API and normalizes its
// reply into an ExtractionResult. API failures and timeouts become error
// markers inside the result, never Go errors.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	schema *jsonschema.Schema
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		schema: mustCompileFieldsSchema(),
	}
}

const extractionPrompt = `Extract the following information from this ZUVP (Special Use of Public Space) application:
- Applicant name (žadatel)
- Company ID (IČO) if applicable
- Contact details (phone, email, address)
- Purpose of use (účel užívání)
- Specific location (address/plot number)
- Duration (start and end date)
- Area in square meters if mentioned

Return as JSON format. If the document is not a ZUVP application, reply "not a ZUVP application".`

// Extract sends the submission to the extraction model. The mediaKind
// decides between a vision payload and a plain text prompt.
func (c *Client) Extract(ctx context.Context, data []byte, mediaKind string) (entity.ExtractionResult, error) {
	payload := c.buildPayload(data, mediaKind)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, status, err := c.send(ctx, payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Timeouts are an extraction outcome, not a crash.
			return entity.ExtractionResult{Err: "extraction timed out"}, nil
		}
		if status > 0 {
			return entity.ExtractionResult{Err: fmt.Sprintf("extractor API status %d", status)}, nil
		}
		return entity.ExtractionResult{}, err
	}

	content, err := chatContent(raw)
	if err != nil {
		return entity.ExtractionResult{Err: fmt.Sprintf("malformed extractor reply: %v", err)}, nil
	}
	return c.parseContent(content), nil
}

func (c *Client) buildPayload(data []byte, mediaKind string) map[string]any {
	switch mediaKind {
	case constants.IMAGE, constants.PDF:
		mime := "image/png"
		if mediaKind == constants.PDF {
			mime = "application/pdf"
		}
		url := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
		return map[string]any{
			"model": c.cfg.Model,
			"messages": []any{map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": extractionPrompt},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": url}},
				},
			}},
			"max_tokens": 1000,
		}
	default:
		return map[string]any{
			"model": c.cfg.Model,
			"messages": []any{map[string]any{
				"role":    "user",
				"content": extractionPrompt + "\n\nText:\n" + string(data),
			}},
			"max_tokens": 1000,
		}
	}
}

// send posts JSON to the chat-completions endpoint and returns the raw
// response body and status code.
func (c *Client) send(ctx context.Context, body any) ([]byte, int, error) {
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("extract.http.request", "url", url, "content_length", len(bs))

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		c.logger.Error("extract.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("extract.http.body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	c.logger.Info("extract.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

// parseContent turns the model reply into structured fields when it is a
// JSON object passing the schema gate, otherwise keeps it as raw text for
// the validator's recognition phase.
func (c *Client) parseContent(content string) entity.ExtractionResult {
	cleaned := stripFences(content)

	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return entity.ExtractionResult{RawResponse: content}
	}
	if err := c.schema.Validate(v); err != nil {
		c.logger.Warn("extract.schema.rejected", "error", err)
		return entity.ExtractionResult{RawResponse: content}
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return entity.ExtractionResult{RawResponse: content}
	}
	return entity.ExtractionResult{Fields: fields}
}

// stripFences removes a ```json ... ``` wrapper if the model added one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// chatContent pulls choices[0].message.content out of the API reply.
func chatContent(raw []byte) (string, error) {
	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	if len(reply.Choices) == 0 {
		return "", errors.New("reply has no choices")
	}
	return reply.Choices[0].Message.Content, nil
}

// mustCompileFieldsSchema builds the permissive gate for extractor output:
// a non-empty JSON object whose values are scalars or one nested object
// (the duration shape). Anything else is kept as raw text.
func mustCompileFieldsSchema() *jsonschema.Schema {
	schemaMap := map[string]any{
		"type":          "object",
		"minProperties": 1,
		"additionalProperties": map[string]any{
			"type": []any{"string", "number", "boolean", "object", "null"},
		},
	}
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	schema, err := compiler.Compile("extraction.json")
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}
