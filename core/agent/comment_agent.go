package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vidshare/logger"
)

// CommentAgentConfig contains configuration for the comment agent.
type CommentAgentConfig struct {
	APIBaseURL string
	APIKey     string
	Model      string
	MaxTokens  int
}

// CommentAgent generates listener-style comments through an OpenAI-compatible
// chat completions endpoint. The HTTP client is injected so tests can point
// it at a local server.
type CommentAgent struct {
	config     *CommentAgentConfig
	httpClient *http.Client
}

// NewCommentAgent creates a new comment agent with a default client.
func NewCommentAgent(config *CommentAgentConfig) *CommentAgent {
	return &CommentAgent{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewCommentAgentWithClient creates a comment agent using the given client.
func NewCommentAgentWithClient(config *CommentAgentConfig, client *http.Client) *CommentAgent {
	return &CommentAgent{config: config, httpClient: client}
}

const commentSystemPrompt = "You are a music fan writing comments on a music platform. " +
	"Write authentic, engaging comments that sound like real music listeners. " +
	"Keep comments conversational and specific to the music."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *CommentAgent) complete(ctx context.Context, userContent string) (string, error) {
	reqBody := chatRequest{
		Model: a.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: commentSystemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens: a.config.MaxTokens,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// GenerateTrackComment produces a listener comment for a track. An empty
// customPrompt falls back to a generic fan-reaction prompt.
func (a *CommentAgent) GenerateTrackComment(ctx context.Context, trackName, artistName, tags, customPrompt string) (string, error) {
	if customPrompt == "" {
		customPrompt = fmt.Sprintf("What would a music fan think about %s by %s?", trackName, artistName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a realistic music fan comment for the track %q by %s.\n", trackName, artistName)
	b.WriteString("The comment should sound like it's from a real music listener who just discovered or enjoyed this track.\n")
	b.WriteString("Make it conversational, authentic, and engaging. Include specific details about the music.\n")
	if tags != "" {
		fmt.Fprintf(&b, "Track tags: %s\n", tags)
	}
	fmt.Fprintf(&b, "Specific focus: %s", customPrompt)

	comment, err := a.complete(ctx, b.String())
	if err != nil {
		logger.Error("Track comment generation failed",
			logger.String("track", trackName),
			logger.ErrorField(err))
		return "", err
	}
	return comment, nil
}

// GenerateArtistComment produces a listener comment about an artist. Bio text
// is truncated so the context stays small.
func (a *CommentAgent) GenerateArtistComment(ctx context.Context, artistName, bio string, trackCount int, customPrompt string) (string, error) {
	if customPrompt == "" {
		customPrompt = fmt.Sprintf("What would a music fan think about %s as an artist?", artistName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a realistic music fan comment about the artist %q.\n", artistName)
	b.WriteString("The comment should sound like it's from a real music listener who appreciates this artist's work.\n")
	b.WriteString("Make it conversational, authentic, and engaging. Include specific details about the artist's music or style.\n")
	if bio != "" {
		if len(bio) > 200 {
			bio = bio[:200] + "..."
		}
		fmt.Fprintf(&b, "Artist bio: %s\n", bio)
	}
	if trackCount > 0 {
		fmt.Fprintf(&b, "Artist has %d tracks available.\n", trackCount)
	}
	fmt.Fprintf(&b, "Specific focus: %s", customPrompt)

	comment, err := a.complete(ctx, b.String())
	if err != nil {
		logger.Error("Artist comment generation failed",
			logger.String("artist", artistName),
			logger.ErrorField(err))
		return "", err
	}
	return comment, nil
}

// DefaultPrompts lists the canned prompt templates offered to the UI.
func DefaultPrompts() map[string]string {
	return map[string]string{
		"general":    "What would a music fan think about {artist_name} - {track_name}?",
		"positive":   "Write an enthusiastic comment about {artist_name} - {track_name}",
		"critical":   "Write a thoughtful, slightly critical comment about {artist_name} - {track_name}",
		"discovery":  "Write a comment from someone who just discovered {artist_name} - {track_name}",
		"nostalgic":  "Write a nostalgic comment about {artist_name} - {track_name}",
		"technical":  "Write a comment focusing on the technical aspects of {artist_name} - {track_name}",
		"emotional":  "Write an emotional comment about {artist_name} - {track_name}",
		"comparison": "Write a comment comparing {artist_name} - {track_name} to other music",
		"custom":     "Custom prompt...",
	}
}
