// Package genaisvc talks to the Gemini models: quiz generation, answer evaluation and syllabus parsing.
package genaisvc

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
	"github.com/trezcool/studydesk/core/quiz"
)

var (
	// errors
	ErrNotConfigured = errors.New("the AI service is not configured")
	ErrEmptyReply    = errors.New("the model returned no content")
)

// contentGenerator is implemented by *genai.GenerativeModel.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	client  *genai.Client
	model   contentGenerator
	limiter *rate.Limiter
	logger  core.Logger
	tz      string
}

var (
	_ quiz.Generator     = (*Client)(nil)
	_ calendar.Extractor = (*Client)(nil)
)

// NewClient connects to Gemini. Without an API key, every call fails with ErrNotConfigured.
func NewClient(ctx context.Context, conf *core.Config, logger core.Logger) (*Client, error) {
	c := &Client{limiter: newLimiter(conf.AI.RequestsPerSecond), logger: logger, tz: conf.Calendar.TimeZone}
	if conf.AI.GeminiAPIKey == "" {
		logger.Warn("genai: no Gemini API key, AI features are disabled")
		return c, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.AI.GeminiAPIKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating Gemini client")
	}
	c.client = client
	c.model = client.GenerativeModel(conf.AI.Model)
	return c, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate returns the text the model replies to prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, genai.Text(prompt))
}

func (c *Client) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	if c.model == nil {
		return "", ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "waiting for the rate limiter")
	}

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}
	text := replyText(resp)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// replyText joins the text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
