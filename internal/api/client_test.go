package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/talkify-cu/talkify/internal/endpoint"
)

// quizBackend is a scripted fake of the recommendation backend.
type quizBackend struct {
	t *testing.T

	// questions are served in order by /next-question; once exhausted the
	// backend answers 400 with the quiz-complete detail.
	questions []Question

	served   int
	requests []nextQuestionRequest
}

func (b *quizBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HealthStatus{Status: "healthy"})
	})
	mux.HandleFunc("/api/v1/next-question", func(w http.ResponseWriter, r *http.Request) {
		var req nextQuestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			b.t.Errorf("decode next-question request: %v", err)
		}
		b.requests = append(b.requests, req)

		if b.served >= len(b.questions) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"detail": "Quiz complete! Please proceed to get your course recommendation.",
			})
			return
		}
		q := b.questions[b.served]
		b.served++
		json.NewEncoder(w).Encode(NextQuestionResponse{
			Question:       q,
			QuestionNumber: b.served,
			TotalPlanned:   len(b.questions),
			SessionID:      "sess-1",
		})
	})
	mux.HandleFunc("/api/v1/recommend", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Recommendation{
			Course:     Course{Name: "Intro to Data Science", Provider: "Coursera"},
			Confidence: 0.92,
			Reasoning:  "strong analytical interests",
		})
	})
	mux.HandleFunc("/api/v1/chat", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		sid := req.SessionID
		if sid == "" {
			sid = "chat-1"
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Response:  "Happy to help with that.",
			SessionID: sid,
			History: []ChatMessage{
				{Role: "user", Content: req.Message},
				{Role: "assistant", Content: "Happy to help with that."},
			},
		})
	})
	mux.HandleFunc("/api/v1/chat/chat-1/history", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatHistory{
			SessionID:    "chat-1",
			Messages:     []ChatMessage{{Role: "user", Content: "hi"}},
			MessageCount: 1,
		})
	})
	return mux
}

func newTestClient(t *testing.T, backend *quizBackend) *Client {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	res, err := endpoint.New(srv.URL, "")
	if err != nil {
		t.Fatalf("endpoint.New: %v", err)
	}
	return NewClient(res)
}

func TestStartQuizFetchesFirstQuestion(t *testing.T) {
	backend := &quizBackend{t: t, questions: []Question{
		{Text: "What subjects interest you?", Type: TypeOpenEnded},
	}}
	c := newTestClient(t, backend)

	welcome, first, err := c.StartQuiz(context.Background(), "Dana")
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	if welcome == "" || first.Question.Text != "What subjects interest you?" {
		t.Errorf("unexpected start: welcome=%q question=%+v", welcome, first.Question)
	}
	if c.SessionID() != "sess-1" {
		t.Errorf("session id %q, want sess-1", c.SessionID())
	}
	if len(backend.requests) != 1 || len(backend.requests[0].ConversationHistory) != 0 {
		t.Errorf("first request must carry empty history, got %+v", backend.requests)
	}
}

func TestSubmitAnswerAdvancesAndReplaysHistory(t *testing.T) {
	backend := &quizBackend{t: t, questions: []Question{
		{Text: "Q1", Type: TypeYesNo, Options: []string{"Yes", "No"}},
		{Text: "Q2", Type: TypeMultipleChoice, Options: []string{"A", "B"}},
	}}
	c := newTestClient(t, backend)

	_, first, err := c.StartQuiz(context.Background(), "")
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	out, err := c.SubmitAnswer(context.Background(), "Yes", first.Question)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if out.Complete || out.NextQuestion == nil || out.NextQuestion.Question.Text != "Q2" {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	last := backend.requests[len(backend.requests)-1]
	if len(last.ConversationHistory) != 1 || last.ConversationHistory[0].Answer != "Yes" {
		t.Errorf("history not replayed: %+v", last.ConversationHistory)
	}
	if last.UserID != "sess-1" {
		t.Errorf("session id not replayed, got %q", last.UserID)
	}
}

func TestSubmitAnswerInterceptsQuizComplete(t *testing.T) {
	backend := &quizBackend{t: t, questions: []Question{
		{Text: "Q1", Type: TypeOpenEnded},
	}}
	c := newTestClient(t, backend)

	_, first, err := c.StartQuiz(context.Background(), "")
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	// The backend has no more questions; next-question answers the
	// quiz-complete 400, which must be converted into a recommendation.
	out, err := c.SubmitAnswer(context.Background(), "history", first.Question)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !out.Complete || out.Recommendation == nil {
		t.Fatalf("expected completion with recommendation, got %+v", out)
	}
	if out.Recommendation.Course.Name != "Intro to Data Science" {
		t.Errorf("unexpected course: %+v", out.Recommendation.Course)
	}
}

func TestSubmitAnswerFinalQuestionGoesStraightToRecommendation(t *testing.T) {
	backend := &quizBackend{t: t, questions: []Question{
		{Text: "Last one", Type: TypeYesNo, IsFinal: true},
	}}
	c := newTestClient(t, backend)

	_, first, err := c.StartQuiz(context.Background(), "")
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	before := backend.served
	out, err := c.SubmitAnswer(context.Background(), "Yes", first.Question)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !out.Complete || out.Recommendation == nil {
		t.Fatalf("expected completion, got %+v", out)
	}
	if backend.served != before {
		t.Error("final question must not trigger another next-question call")
	}
}

func TestIsQuizComplete(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"quiz complete detail", &ServerError{StatusCode: 400, Detail: "Quiz complete! Please proceed to get your course recommendation."}, true},
		{"max questions detail", &ServerError{StatusCode: 400, Detail: "Maximum number of questions (15) reached. Please proceed to get recommendations."}, true},
		{"other 400", &ServerError{StatusCode: 400, Detail: "invalid payload"}, false},
		{"non server error", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQuizComplete(tt.err); got != tt.want {
				t.Errorf("IsQuizComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressCapsBelowCompletion(t *testing.T) {
	c := &Client{currentStep: 14, totalSteps: 15}
	p := c.Progress()
	if p.Percentage != 90 {
		t.Errorf("percentage %d, want capped at 90", p.Percentage)
	}
	if p.TotalSteps != 16 {
		t.Errorf("total steps %d, want dynamic 16", p.TotalSteps)
	}

	c = &Client{currentStep: 3, totalSteps: 15}
	if p := c.Progress(); p.Percentage != 20 {
		t.Errorf("percentage %d, want 20", p.Percentage)
	}
}

func TestResetClearsState(t *testing.T) {
	backend := &quizBackend{t: t, questions: []Question{
		{Text: "Q1", Type: TypeOpenEnded},
	}}
	c := newTestClient(t, backend)

	if _, _, err := c.StartQuiz(context.Background(), ""); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	c.Reset()
	if c.SessionID() != "" || len(c.History()) != 0 {
		t.Error("Reset must clear session and history")
	}
	if p := c.Progress(); p.CurrentStep != 1 {
		t.Errorf("current step %d after reset, want 1", p.CurrentStep)
	}
}

func TestChatSessionContinuity(t *testing.T) {
	backend := &quizBackend{t: t}
	c := newTestClient(t, backend)

	first, err := c.SendChatMessage(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("SendChatMessage: %v", err)
	}
	if first.SessionID != "chat-1" {
		t.Fatalf("session id %q, want chat-1", first.SessionID)
	}

	second, err := c.SendChatMessage(context.Background(), "more", first.SessionID)
	if err != nil {
		t.Fatalf("SendChatMessage: %v", err)
	}
	if second.SessionID != "chat-1" {
		t.Errorf("continued session id %q, want chat-1", second.SessionID)
	}

	hist, err := c.ChatHistory(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("ChatHistory: %v", err)
	}
	if hist.MessageCount != 1 {
		t.Errorf("message count %d, want 1", hist.MessageCount)
	}
}
