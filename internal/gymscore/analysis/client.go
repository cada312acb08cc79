package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymscore/internal/telemetry/tracing"
)

var (
	ErrAnalysisUnavailable = errors.New("physique analysis unavailable")
	ErrEmptyImage          = errors.New("empty image")
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.0-flash"

	cacheTTLSeconds = 24 * 60 * 60
)

const judgePrompt = `You are an expert fitness coach and physique judge.
Given a user's physique photo, analyze and rate the following muscle groups on a scale from 1 to 10 (no zeros):
- Chest
- Legs
- Arms
- Back

If a muscle group is not clearly visible in the photo, do NOT assign a zero. Instead, use your best judgment to estimate its score based on the visible muscle groups, overall proportions, and typical physique balance. Complete the picture as a human judge would, inferring likely development from the available evidence.

Return your answer strictly in this JSON format:
{
  "chest": <score 1-10>,
  "legs": <score 1-10>,
  "arms": <score 1-10>,
  "back": <score 1-10>
}
Reply with only the JSON object, and nothing else.`

type AnalyzeRequest struct {
	Image    []byte
	MimeType string
}

// Analyzer turns a physique photo into free-form model text. Callers parse
// the text themselves; the model is not trusted to follow the format.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (string, error)
}

type ClientParams struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	CacheSizeMB int
	// HTTPClient defaults to an otelhttp traced client.
	HTTPClient *http.Client
}

type Client struct {
	api   openai.Client
	model string
	cache *freecache.Cache
}

var _ Analyzer = (*Client)(nil)

func NewClient(params ClientParams) *Client {
	if params.BaseURL == "" {
		params.BaseURL = DefaultBaseURL
	}
	if params.Model == "" {
		params.Model = DefaultModel
	}
	if params.CacheSizeMB <= 0 {
		params.CacheSizeMB = 8
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
		option.WithBaseURL(params.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(params.MaxRetries),
	}
	if params.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(params.Timeout))
	}

	return &Client{
		api:   openai.NewClient(opts...),
		model: params.Model,
		cache: freecache.NewCache(params.CacheSizeMB * 1024 * 1024),
	}
}

func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analysis.gymscore.analyze")
	span.SetAttributes(attribute.Int("imageSize", len(req.Image)))
	span.SetAttributes(attribute.String("mimeType", req.MimeType))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if len(req.Image) == 0 {
		return "", ErrEmptyImage
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	key := cacheKey(mimeType, req.Image)
	if cached, err := c.cache.Get(key); err == nil {
		span.SetAttributes(attribute.Bool("cached", true))
		return string(cached), nil
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Image)
	chat, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
				openai.TextContentPart(judgePrompt),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: ratingsSchemaParam,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err)
	}

	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrAnalysisUnavailable)
	}

	// an empty answer is still an answer; the parser decides it holds no ratings
	text := strings.TrimSpace(chat.Choices[0].Message.Content)
	if text == "" {
		log.Warnf("analysis: model %s returned an empty answer", c.model)
		return "", nil
	}

	if err := c.cache.Set(key, []byte(text), cacheTTLSeconds); err != nil {
		log.Warnf("failed to cache analysis result: %s", err)
	}

	return text, nil
}

func cacheKey(mimeType string, image []byte) []byte {
	h := sha256.New()
	h.Write([]byte(mimeType))
	h.Write([]byte{0})
	h.Write(image)
	return h.Sum(nil)
}
