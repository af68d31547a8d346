package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tickd/tickd/config"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"go.uber.org/zap"
)

const DEFAULT_BASE_URL string = "https://generativelanguage.googleapis.com"

// Classification is the structured result inferred from ticket text.
type Classification struct {
	Summary       string               `json:"summary"`
	Priority      model.TicketPriority `json:"priority"`
	HelpfulNotes  string               `json:"helpfulNotes"`
	RelatedSkills []string             `json:"relatedSkills"`
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseUrl    string
}

func NewClient(conf config.OracleConfig) *Client {
	baseUrl := conf.BaseUrl
	if baseUrl == "" {
		baseUrl = DEFAULT_BASE_URL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     conf.ApiKey,
		model:      conf.Model,
		baseUrl:    baseUrl,
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Classify asks the model for a strict-JSON triage of the ticket.
// Any API or parse failure degrades to nil so classification never
// blocks routing; the caller substitutes defaults.
func (c *Client) Classify(title string, description string) *Classification {
	prompt := buildPrompt(title, description)
	raw, err := c.generate(prompt)
	if err != nil {
		logger.Error("classification oracle call failed", zap.Error(err))
		return nil
	}
	result := parseClassification(raw)
	if result == nil {
		logger.Warn("could not parse classification oracle response", zap.String("raw", raw))
	}
	return result
}

func (c *Client) generate(prompt string) (string, error) {
	reqBody := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseUrl, c.model, c.apiKey)
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}
	var genResp generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", err
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("oracle returned no candidates")
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

var fencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// parseClassification tolerates model output wrapped in markdown code
// fences. Priority values outside the known set normalize to medium.
func parseClassification(raw string) *Classification {
	jsonString := strings.TrimSpace(raw)
	if match := fencePattern.FindStringSubmatch(raw); match != nil {
		jsonString = match[1]
	}
	var result Classification
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return nil
	}
	if !model.IsValidPriority(result.Priority) {
		result.Priority = model.TICKET_PRIORITY_MEDIUM
	}
	return &result
}

func buildPrompt(title string, description string) string {
	return fmt.Sprintf(`You are a ticket triage agent. Only return a strict JSON object with no extra text, headers, or markdown.

Analyze the following support ticket and provide a JSON object with:

- summary: A short 1-2 sentence summary of the issue.
- priority: One of "low", "medium", or "high".
- helpfulNotes: A detailed technical explanation that a moderator can use to solve this issue. Include useful external links or resources if possible.
- relatedSkills: An array of relevant skills required to solve the issue (e.g., ["React", "MongoDB"]).

Respond ONLY in this JSON format and do not include any other text or markdown in the answer:

{
"summary": "Short summary of the ticket",
"priority": "high",
"helpfulNotes": "Here are useful tips...",
"relatedSkills": ["React", "Node.js"]
}

---

Ticket information:

- Title: %s
- Description: %s`, title, description)
}
