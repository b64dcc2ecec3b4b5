// Package quiz orchestrates the career-guidance quiz flow.
//
// The [Orchestrator] sits between the UI shell and the backend client: it
// owns the lifecycle state machine (idle → welcome → awaiting answer →
// complete), the chat transcript, and the quick-answer buttons for the
// current question, and it feeds every bot utterance to the speech layer.
// All calls are guarded so at most one Start or Submit is in flight.
package quiz

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/talkify-cu/talkify/internal/api"
)

// Speaker narrates bot messages. Implementations must never block the quiz
// flow on synthesis or playback.
type Speaker interface {
	SpeakAIMessage(text string)
}

// noopSpeaker is used when no speech layer is wired.
type noopSpeaker struct{}

func (noopSpeaker) SpeakAIMessage(string) {}

// MessageKind classifies transcript entries.
type MessageKind string

const (
	KindWelcome        MessageKind = "welcome"
	KindQuestion       MessageKind = "question"
	KindAnswer         MessageKind = "answer"
	KindRecommendation MessageKind = "recommendation"
)

// Message is one entry in the quiz transcript.
type Message struct {
	Text      string
	Sender    string // "bot" or "user"
	Kind      MessageKind
	Timestamp time.Time
}

// recommendationNotice is the bot line announcing the final recommendation.
const recommendationNotice = "Great! Based on your responses, I have the perfect course recommendation for you. Check out the showcase below!"

// Orchestrator drives one quiz run. It is safe for concurrent use; calls
// that would overlap an in-flight operation fail fast with [ErrBusy].
type Orchestrator struct {
	client  *api.Client
	speaker Speaker

	// busy serialises Start/Submit without holding a lock across network
	// calls. Buffered with capacity one; holding the token means in flight.
	busy chan struct{}

	// mu guards everything below.
	mu sync.Mutex

	state           State
	messages        []Message
	buttons         []Button
	currentQuestion *api.Question
	recommendation  *api.Recommendation
}

// NewOrchestrator creates an [Orchestrator] in [StateIdle]. speaker may be
// nil when voice is not wired.
func NewOrchestrator(client *api.Client, speaker Speaker) *Orchestrator {
	if speaker == nil {
		speaker = noopSpeaker{}
	}
	return &Orchestrator{
		client:  client,
		speaker: speaker,
		busy:    make(chan struct{}, 1),
	}
}

// acquire takes the busy token, failing fast when another call is in flight.
func (o *Orchestrator) acquire() error {
	select {
	case o.busy <- struct{}{}:
		return nil
	default:
		return ErrBusy
	}
}

func (o *Orchestrator) release() { <-o.busy }

// Start begins a fresh quiz for userName: it clears previous state, checks
// backend health, fetches the first question, and narrates both the welcome
// line and the question. Returns [ErrBusy] when a Start or Submit is already
// in flight.
func (o *Orchestrator) Start(ctx context.Context, userName string) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	o.mu.Lock()
	o.client.Reset()
	o.state = StateWelcome
	o.messages = nil
	o.buttons = nil
	o.currentQuestion = nil
	o.recommendation = nil
	o.mu.Unlock()

	if _, err := o.client.Health(ctx); err != nil {
		o.setState(StateIdle)
		return err
	}

	welcome, first, err := o.client.StartQuiz(ctx, userName)
	if err != nil {
		o.setState(StateIdle)
		return err
	}

	o.mu.Lock()
	o.append(Message{Text: welcome, Sender: "bot", Kind: KindWelcome})
	o.append(Message{Text: first.Question.Text, Sender: "bot", Kind: KindQuestion})
	q := first.Question
	o.currentQuestion = &q
	o.buttons = FormatQuestionAsButtons(q)
	o.state = StateAwaitingAnswer
	o.mu.Unlock()

	o.speaker.SpeakAIMessage(first.Question.Text)
	slog.Info("quiz started", "question_number", first.QuestionNumber,
		"total_planned", first.TotalPlanned)
	return nil
}

// Submit answers the current question. Typed answers snap to the closest
// option label (see [MatchAnswer]) before being sent. On completion the
// orchestrator stores the recommendation and moves to [StateComplete].
func (o *Orchestrator) Submit(ctx context.Context, answer string) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	o.mu.Lock()
	if o.state != StateAwaitingAnswer || o.currentQuestion == nil {
		o.mu.Unlock()
		return ErrNotAwaitingAnswer
	}
	question := *o.currentQuestion
	o.mu.Unlock()

	answer = MatchAnswer(answer, question)

	o.mu.Lock()
	o.append(Message{Text: answer, Sender: "user", Kind: KindAnswer})
	o.mu.Unlock()

	outcome, err := o.client.SubmitAnswer(ctx, answer, question)
	if err != nil {
		return err
	}

	if outcome.Complete {
		o.mu.Lock()
		o.state = StateComplete
		o.currentQuestion = nil
		o.buttons = nil
		o.recommendation = outcome.Recommendation
		o.append(Message{Text: recommendationNotice, Sender: "bot", Kind: KindRecommendation})
		o.mu.Unlock()

		o.speaker.SpeakAIMessage(recommendationNotice)
		slog.Info("quiz complete",
			"course", outcome.Recommendation.Course.Name,
			"confidence", outcome.Recommendation.Confidence)
		return nil
	}

	next := outcome.NextQuestion
	o.mu.Lock()
	q := next.Question
	o.currentQuestion = &q
	o.buttons = FormatQuestionAsButtons(q)
	o.append(Message{Text: q.Text, Sender: "bot", Kind: KindQuestion})
	o.mu.Unlock()

	o.speaker.SpeakAIMessage(q.Text)
	return nil
}

// Reset returns the orchestrator to [StateIdle], clearing the transcript and
// the client's conversation state. Reset does not interrupt an in-flight
// call; it fails with [ErrBusy] instead.
func (o *Orchestrator) Reset() error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	o.mu.Lock()
	o.client.Reset()
	o.state = StateIdle
	o.messages = nil
	o.buttons = nil
	o.currentQuestion = nil
	o.recommendation = nil
	o.mu.Unlock()
	return nil
}

// append adds a timestamped message. Caller must hold the state lock.
func (o *Orchestrator) append(m Message) {
	m.Timestamp = time.Now()
	o.messages = append(o.messages, m)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Messages returns a copy of the transcript.
func (o *Orchestrator) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Buttons returns the quick-answer buttons for the current question.
func (o *Orchestrator) Buttons() []Button {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Button, len(o.buttons))
	copy(out, o.buttons)
	return out
}

// CurrentQuestion returns the question awaiting an answer, or nil.
func (o *Orchestrator) CurrentQuestion() *api.Question {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.currentQuestion == nil {
		return nil
	}
	q := *o.currentQuestion
	return &q
}

// Recommendation returns the final recommendation once [StateComplete].
func (o *Orchestrator) Recommendation() *api.Recommendation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recommendation
}

// Progress reports quiz advancement; 100% only in [StateComplete].
func (o *Orchestrator) Progress() api.Progress {
	o.mu.Lock()
	state := o.state
	o.mu.Unlock()

	p := o.client.Progress()
	if state == StateComplete {
		p.CurrentStep = p.TotalSteps
		p.Percentage = 100
	}
	return p
}
