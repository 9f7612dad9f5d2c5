package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// ChatGPT represents a client for the OpenAI ChatGPT API
type ChatGPT struct {
	apiKey      string
	apiURL      string
	maxTokens   int
	temperature float64
}

// New creates a new ChatGPT client
func New() (*ChatGPT, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	return &ChatGPT{
		apiKey:      apiKey,
		apiURL:      "https://api.openai.com/v1/chat/completions",
		maxTokens:   80,
		temperature: 0.9,
	}, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SarcasticQuip generates a one-line sarcastic reaction to a graded review,
// matching the product's sarcastic review mode.
func (c *ChatGPT) SarcasticQuip(topicTitle string, grade models.Grade) (string, error) {
	prompt := fmt.Sprintf(
		"A learner just reviewed the topic '%s' and rated their recall as '%s'. "+
			"Reply with exactly one short sarcastic but encouraging sentence reacting to that. "+
			"No quotes, no emoji.",
		topicTitle, grade,
	)

	messages := []Message{
		{Role: "system", Content: "You are a sarcastic study buddy in a spaced-repetition app. You tease learners about their review grades but always keep it light."},
		{Role: "user", Content: prompt},
	}

	request := ChatRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	quip := response.Choices[0].Message.Content
	return strings.TrimSpace(quip), nil
}

// Canned fallback lines used when the API is unavailable or not configured.
var cannedQuips = map[models.Grade][]string{
	models.GradeAgain: {
		"Bold strategy, forgetting everything. Let's try tomorrow.",
		"Your brain filed that one under 'optional', apparently.",
	},
	models.GradeHard: {
		"You got there. Eventually. Like a scenic route.",
		"Correct, but I could hear the gears grinding from here.",
	},
	models.GradeGood: {
		"Solid. Almost like studying works or something.",
		"Not bad. The flashcard gods are mildly impressed.",
	},
	models.GradeEasy: {
		"Show-off. Save some recall for the rest of us.",
		"Too easy? Fine, see you in a few weeks then.",
	},
}

// SarcasticQuipWithFallback generates a quip, falling back to a canned line
// when the API fails or the client is nil.
func (c *ChatGPT) SarcasticQuipWithFallback(topicTitle string, grade models.Grade) string {
	if c != nil {
		if quip, err := c.SarcasticQuip(topicTitle, grade); err == nil {
			return quip
		} else {
			log.Printf("Error generating quip for '%s': %v", topicTitle, err)
		}
	}

	lines := cannedQuips[grade]
	if len(lines) == 0 {
		return "Noted."
	}
	return lines[rand.Intn(len(lines))]
}
