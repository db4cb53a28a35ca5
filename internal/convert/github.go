package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultGitHubAPI is the public GitHub REST endpoint
const DefaultGitHubAPI = "https://api.github.com"

// GitHub converts markdown through the GitHub /markdown endpoint
type GitHub struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGitHub creates a GitHub converter. A zero timeout means 30 seconds.
// GITHUB_TOKEN is sent when set to lift the anonymous rate limit.
func NewGitHub(baseURL string, timeout time.Duration) *GitHub {
	if baseURL == "" {
		baseURL = DefaultGitHubAPI
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GitHub{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   os.Getenv("GITHUB_TOKEN"),
		client:  &http.Client{Timeout: timeout},
	}
}

type markdownRequest struct {
	Text    string `json:"text"`
	Mode    string `json:"mode"`
	Context string `json:"context"`
}

// Convert posts markdown and returns the HTML body verbatim
func (g *GitHub) Convert(ctx context.Context, markdown string) (string, error) {
	jsonBody, err := json.Marshal(markdownRequest{Text: markdown, Mode: "markdown"})
	if err != nil {
		return "", &Error{Converter: "github", Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/markdown", bytes.NewReader(jsonBody))
	if err != nil {
		return "", &Error{Converter: "github", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "devlog/1.0")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &Error{Converter: "github", Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Converter: "github", Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Converter: "github",
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("api error: %s", strings.TrimSpace(string(body))),
		}
	}

	return string(body), nil
}
