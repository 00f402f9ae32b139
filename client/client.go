// Package client provides the HTTP client for the facil AI backend.
// The backend generates agenda drafts from a meeting brief and refines
// them through a chat conversation; this package wraps those two calls
// with timeouts, JSON codecs, and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/logging"
)

// DefaultTimeout bounds one backend request. Agenda generation is an LLM
// call on the far side, so this is deliberately generous.
const DefaultTimeout = 60 * time.Second

// Client talks to the facil AI backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
}

// New creates a backend client. A zero timeout falls back to
// DefaultTimeout; a nil logger discards.
func New(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// AgendaForm is the meeting brief submitted for agenda generation.
type AgendaForm struct {
	Title           string   `json:"title"`
	Purpose         string   `json:"purpose"`
	Context         *string  `json:"context,omitempty"`
	MeetingDuration string   `json:"meeting_duration"`
	TypeOfMeeting   *string  `json:"type_of_meeting,omitempty"`
	Participants    []string `json:"participants,omitempty"`
}

// TimePlanPoint is one generated time-plan row with explicit boundaries.
type TimePlanPoint struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Content string `json:"content"`
}

// ParticipantInsight is an AI-generated note about one participant.
type ParticipantInsight struct {
	Participant string `json:"participant"`
	Insight     string `json:"insight"`
}

// AgendaDraft is the backend's generated agenda, before acceptance.
type AgendaDraft struct {
	Checklist            []string             `json:"checklist"`
	TimePlan             []TimePlanPoint      `json:"time_plan"`
	PreparationTips      []string             `json:"preparation_tips"`
	ParticipantsInsights []ParticipantInsight `json:"participants_insights"`
}

// ChatMessage is one turn of the agenda refinement conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateAgenda asks the backend to generate an agenda draft from a brief.
func (c *Client) CreateAgenda(ctx context.Context, form AgendaForm) (*AgendaDraft, error) {
	if form.Title == "" {
		return nil, fmt.Errorf("agenda title is required: %w", fcerrors.ErrValidation)
	}

	var draft AgendaDraft
	if err := c.postJSON(ctx, "/api/agenda/", form, &draft); err != nil {
		return nil, err
	}
	c.log.Debug("agenda draft generated",
		logging.F("checklist_items", len(draft.Checklist)),
		logging.F("time_plan_rows", len(draft.TimePlan)))
	return &draft, nil
}

// chatRequest mirrors the backend chat payload: the conversation so far
// plus the draft under discussion.
type chatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Agenda   *AgendaDraft  `json:"agenda"`
}

// ChatAgenda sends the refinement conversation and the current draft, and
// returns the revised draft.
func (c *Client) ChatAgenda(ctx context.Context, messages []ChatMessage, current *AgendaDraft) (*AgendaDraft, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("chat requires at least one message: %w", fcerrors.ErrValidation)
	}

	var draft AgendaDraft
	if err := c.postJSON(ctx, "/api/agenda/chat", chatRequest{Messages: messages, Agenda: current}, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// postJSON runs one POST round trip with JSON in both directions.
func (c *Client) postJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug("backend request", logging.F("url", url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fcerrors.NewTransportError("backend "+endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		err := fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
		if resp.StatusCode >= 500 {
			return fcerrors.NewTransportError("backend "+endpoint, err)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
