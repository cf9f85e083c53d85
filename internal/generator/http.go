package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"greenhouse/internal/config"
	"greenhouse/internal/logging"
)

// HTTPClient calls a hosted image-generation API and writes the returned
// image to the configured images directory.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	model      string
	imagesDir  string
	logger     *slog.Logger
}

// HTTPOptions configures NewHTTPClient. HTTPClient may be supplied to inject
// a transport in tests; when nil a client with the configured timeout is used.
type HTTPOptions struct {
	BaseURL    string
	APIKey     string
	Model      string
	ImagesDir  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewHTTPClient builds a provider client from explicit options.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HTTPClient{
		httpClient: client,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      strings.TrimSpace(opts.APIKey),
		model:      opts.Model,
		imagesDir:  opts.ImagesDir,
		logger:     logger,
	}
}

// NewFromConfig builds a provider client from the generator section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *HTTPClient {
	return NewHTTPClient(HTTPOptions{
		BaseURL:   cfg.Generator.BaseURL,
		APIKey:    cfg.Generator.APIKey,
		Model:     cfg.Generator.Model,
		ImagesDir: cfg.Paths.ImagesDir,
		Timeout:   time.Duration(cfg.Generator.TimeoutSeconds) * time.Second,
		Logger:    logger,
	})
}

type generateRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Format      string `json:"response_format"`
}

type generateResponse struct {
	Data []struct {
		B64 string `json:"b64_json"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate submits the prompt, decodes the base64 image in the response, and
// writes it under the images directory. The returned path is absolute.
func (c *HTTPClient) Generate(ctx context.Context, prompt string, aspect AspectRatio) (string, error) {
	if c == nil {
		return "", errors.New("generator client not configured")
	}
	if c.token == "" {
		return "", errors.New("generator: API key is missing")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("generator: prompt required")
	}

	body, err := json.Marshal(generateRequest{
		Model:       c.model,
		Prompt:      prompt,
		AspectRatio: string(aspect),
		Format:      "b64_json",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generator request: %w", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", fmt.Errorf("generator: http %d", resp.StatusCode)
		}
		return "", fmt.Errorf("generator response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Error.Message != "" {
			return "", fmt.Errorf("generator error: %s (%s)", out.Error.Message, out.Error.Code)
		}
		return "", fmt.Errorf("generator: http %d", resp.StatusCode)
	}
	if len(out.Data) == 0 || out.Data[0].B64 == "" {
		return "", errors.New("generator: empty response")
	}

	raw, err := base64.StdEncoding.DecodeString(out.Data[0].B64)
	if err != nil {
		return "", fmt.Errorf("generator: decode image: %w", err)
	}
	path, err := c.writeImage(raw)
	if err != nil {
		return "", err
	}
	c.logger.Debug("image generated",
		logging.String("path", path),
		logging.Int("bytes", len(raw)),
		logging.Duration("elapsed", time.Since(started)))
	return path, nil
}

func (c *HTTPClient) writeImage(data []byte) (string, error) {
	if c.imagesDir == "" {
		return "", errors.New("generator: images directory not configured")
	}
	if err := os.MkdirAll(c.imagesDir, 0o755); err != nil {
		return "", fmt.Errorf("create images directory: %w", err)
	}
	path := filepath.Join(c.imagesDir, uuid.NewString()+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
