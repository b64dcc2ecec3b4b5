// Package api is the typed client for the Talkify quiz and chat backend.
//
// A [Client] owns the conversation state of one quiz run: the answered
// question/answer pairs, the backend-assigned session identifier, and the
// current step counter. Every quiz request replays the full conversation
// history, so the backend can reconstruct the session even after a failover
// to the other base URL mid-quiz.
package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/talkify-cu/talkify/internal/endpoint"
	"github.com/talkify-cu/talkify/internal/observe"
)

const (
	// apiPrefix is prepended to every versioned route. The health probe lives
	// at the server root instead.
	apiPrefix = "/api/v1"

	// defaultTotalSteps seeds the progress estimate before the backend
	// reports its own plan.
	defaultTotalSteps = 15

	// progressCap keeps the reported percentage below done until the quiz
	// actually completes.
	progressCap = 90
)

// Option is a functional option for [NewClient].
type Option func(*Client)

// WithTotalSteps overrides the initial total-steps estimate used for
// progress reporting. Zero or negative values are ignored.
func WithTotalSteps(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.totalSteps = n
		}
	}
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client is the stateful backend client for one quiz/chat user. It is safe
// for concurrent use, though a quiz is inherently sequential.
type Client struct {
	resolver *endpoint.Resolver
	metrics  *observe.Metrics

	// userID identifies this client instance across chat sessions.
	userID string

	mu          sync.Mutex
	sessionID   string
	history     []QAPair
	currentStep int
	totalSteps  int
}

// NewClient creates a [Client] that routes all requests through resolver.
func NewClient(resolver *endpoint.Resolver, opts ...Option) *Client {
	c := &Client{
		resolver:    resolver,
		userID:      uuid.NewString(),
		currentStep: 1,
		totalSteps:  defaultTotalSteps,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Health probes the backend's root health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.resolver.Get(ctx, "/health")
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, c.serverError(resp)
	}
	var status HealthStatus
	if err := resp.Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartQuiz resets the conversation state and fetches the first question.
// The returned welcome line greets userName, or a generic "User" when empty.
func (c *Client) StartQuiz(ctx context.Context, userName string) (string, *NextQuestionResponse, error) {
	c.mu.Lock()
	c.history = nil
	c.sessionID = ""
	c.currentStep = 1
	c.mu.Unlock()

	if userName == "" {
		userName = "User"
	}
	welcome := fmt.Sprintf(
		"Welcome to Talkify! %s, I'm here to help you discover the perfect career path. Let's start with a few questions to understand your interests and goals.",
		userName)

	first, err := c.NextQuestion(ctx)
	if err != nil {
		return "", nil, err
	}
	c.metrics.SessionsStarted.Add(ctx, 1)
	return welcome, first, nil
}

// NextQuestion asks the backend for the next question, replaying the full
// conversation history. The backend signals quiz completion with a 400 whose
// detail matches [IsQuizComplete]; callers should then fetch the
// recommendation.
func (c *Client) NextQuestion(ctx context.Context) (*NextQuestionResponse, error) {
	c.mu.Lock()
	req := nextQuestionRequest{
		ConversationHistory: c.history,
		UserID:              c.sessionID,
	}
	c.mu.Unlock()

	resp, err := c.resolver.PostJSON(ctx, apiPrefix+"/next-question", req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, c.serverError(resp)
	}

	var next NextQuestionResponse
	if err := resp.Decode(&next); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if next.SessionID != "" {
		c.sessionID = next.SessionID
	}
	c.currentStep = next.QuestionNumber
	if next.TotalPlanned > c.totalSteps {
		c.totalSteps = next.TotalPlanned
	}
	c.mu.Unlock()

	return &next, nil
}

// SubmitAnswer records answer for question in the conversation history, then
// advances the quiz: it fetches the next question, or the final
// recommendation when question was final or the backend signals completion.
func (c *Client) SubmitAnswer(ctx context.Context, answer string, question Question) (*AnswerOutcome, error) {
	c.mu.Lock()
	c.history = append(c.history, QAPair{
		Question:     question.Text,
		Answer:       answer,
		QuestionType: question.Type,
		Options:      question.Options,
	})
	c.mu.Unlock()

	c.metrics.AnswersSubmitted.Add(ctx, 1,
		metric.WithAttributes(observe.Attr("question_type", string(question.Type))))

	if question.IsFinal {
		rec, err := c.Recommendation(ctx)
		if err != nil {
			return nil, err
		}
		return &AnswerOutcome{Recommendation: rec, Complete: true}, nil
	}

	next, err := c.NextQuestion(ctx)
	if err != nil {
		if IsQuizComplete(err) {
			rec, recErr := c.Recommendation(ctx)
			if recErr != nil {
				return nil, recErr
			}
			return &AnswerOutcome{Recommendation: rec, Complete: true}, nil
		}
		return nil, err
	}
	return &AnswerOutcome{NextQuestion: next}, nil
}

// Recommendation fetches the final course recommendation for the recorded
// conversation history.
func (c *Client) Recommendation(ctx context.Context) (*Recommendation, error) {
	c.mu.Lock()
	req := nextQuestionRequest{
		ConversationHistory: c.history,
		UserID:              c.sessionID,
	}
	c.mu.Unlock()

	resp, err := c.resolver.PostJSON(ctx, apiPrefix+"/recommend", req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, c.serverError(resp)
	}

	var rec Recommendation
	if err := resp.Decode(&rec); err != nil {
		return nil, err
	}
	c.metrics.RecommendationsServed.Add(ctx, 1)
	return &rec, nil
}

// SendChatMessage sends a free-form chat message. chatSessionID continues an
// existing chat session when non-empty; pass the SessionID from the previous
// [ChatResponse] to keep one conversation going.
func (c *Client) SendChatMessage(ctx context.Context, message, chatSessionID string) (*ChatResponse, error) {
	req := chatRequest{
		Message:   message,
		UserID:    c.userID,
		SessionID: chatSessionID,
	}

	resp, err := c.resolver.PostJSON(ctx, apiPrefix+"/chat", req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, c.serverError(resp)
	}

	var chat ChatResponse
	if err := resp.Decode(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// ChatHistory fetches the stored transcript of a chat session.
func (c *Client) ChatHistory(ctx context.Context, chatSessionID string) (*ChatHistory, error) {
	resp, err := c.resolver.Get(ctx, apiPrefix+"/chat/"+chatSessionID+"/history")
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, c.serverError(resp)
	}

	var hist ChatHistory
	if err := resp.Decode(&hist); err != nil {
		return nil, err
	}
	return &hist, nil
}

// Progress reports the quiz's advancement. The total grows dynamically so
// the estimate stays ahead of the current step, and the percentage is capped
// below completion until the recommendation is served.
func (c *Client) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.totalSteps
	if t := c.currentStep + 2; t > total {
		total = t
	}
	pct := c.currentStep * 100 / c.totalSteps
	if pct > progressCap {
		pct = progressCap
	}
	return Progress{
		CurrentStep: c.currentStep,
		TotalSteps:  total,
		Percentage:  pct,
	}
}

// Reset clears the quiz conversation state so a new quiz can start.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
	c.sessionID = ""
	c.currentStep = 1
	c.totalSteps = defaultTotalSteps
}

// History returns a copy of the answered question/answer pairs so far.
func (c *Client) History() []QAPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]QAPair, len(c.history))
	copy(out, c.history)
	return out
}

// SessionID returns the backend-assigned quiz session identifier, empty
// before the first question arrives.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// serverError decodes the backend's error detail from a non-2xx response.
func (c *Client) serverError(resp *endpoint.Response) error {
	var detail errorDetail
	// A plain-text or malformed error body still yields a usable status code.
	_ = resp.Decode(&detail)
	return &ServerError{StatusCode: resp.StatusCode, Detail: detail.Detail}
}
