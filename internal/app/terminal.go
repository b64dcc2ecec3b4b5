package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/talkify-cu/talkify/internal/endpoint"
	"github.com/talkify-cu/talkify/internal/quiz"
	"github.com/talkify-cu/talkify/internal/store"
	"github.com/talkify-cu/talkify/pkg/provider/tts"
)

// mode selects what a plain input line means.
type mode int

const (
	modeQuiz mode = iota
	modeChat
)

// terminal drives the interactive conversation loop.
type terminal struct {
	app *App
	out io.Writer

	mode          mode
	chatSessionID string

	// printed is the transcript length already shown, so each turn only
	// prints the new messages.
	printed int
}

// runTerminal reads lines from the app's input and dispatches them until EOF,
// /quit, or context cancellation.
func (a *App) runTerminal(ctx context.Context) error {
	t := &terminal{app: a, out: a.output}
	t.banner(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if quitting := t.dispatch(ctx, line); quitting {
				return nil
			}
		}
	}
}

func (t *terminal) banner(ctx context.Context) {
	fmt.Fprintln(t.out, "Talkify — career discovery for Chandigarh University")
	fmt.Fprintln(t.out, "Type /start to begin the quiz, /chat to talk freely, /help for all commands.")

	// First visit gets the full command list up front.
	if _, visited, err := t.app.st.Get(ctx, store.KeyHasVisited); err == nil && !visited {
		t.help()
		if err := t.app.st.Set(ctx, store.KeyHasVisited, "true"); err != nil {
			slog.Warn("failed to persist visit flag", "err", err)
		}
	}
}

// dispatch handles one input line. Returns true when the user quits.
func (t *terminal) dispatch(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		t.plainInput(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		fmt.Fprintln(t.out, "Goodbye!")
		return true
	case "/help":
		t.help()
	case "/start":
		t.startQuiz(ctx, strings.Join(args, " "))
	case "/chat":
		t.mode = modeChat
		fmt.Fprintln(t.out, "Chat mode: say anything about your career interests. /quiz returns to the quiz.")
	case "/quiz":
		t.mode = modeQuiz
		fmt.Fprintln(t.out, "Quiz mode.")
	case "/reset":
		t.reset()
	case "/status":
		t.status()
	case "/voice":
		t.setVoiceEnabled(ctx, args)
	case "/autospeak":
		t.setAutoSpeak(ctx, args)
	case "/model":
		t.setModel(ctx, args)
	case "/setvoice":
		t.setVoice(ctx, args)
	case "/voices":
		t.listVoices()
	case "/courses":
		t.searchCourses(ctx, strings.Join(args, " "))
	case "/video":
		t.showVideo(ctx)
	default:
		fmt.Fprintf(t.out, "Unknown command %s — try /help\n", cmd)
	}
	return false
}

func (t *terminal) help() {
	fmt.Fprint(t.out, `Commands:
  /start [name]     begin a fresh quiz
  /chat             switch to free-form chat
  /quiz             switch back to the quiz
  /reset            discard the current conversation
  /status           show quiz progress and voice settings
  /voice on|off     enable or disable speech
  /autospeak on|off narrate bot messages automatically
  /model <id>       switch TTS model (playai-tts, playai-tts-arabic)
  /setvoice <name>  pick a voice for the current model
  /voices           list voices for the current model
  /courses <query>  search the course catalogue
  /video            show the completion video sources
  /quit             exit
Plain text answers the current question (quiz mode) or sends a chat message.
A number picks the matching quick-answer option.
`)
}

// plainInput routes a non-command line according to the current mode.
func (t *terminal) plainInput(ctx context.Context, line string) {
	if t.mode == modeChat {
		t.sendChat(ctx, line)
		return
	}
	t.submitAnswer(ctx, line)
}

func (t *terminal) startQuiz(ctx context.Context, name string) {
	if name == "" {
		name = "there"
	}
	t.printed = 0
	if err := t.app.quiz.Start(ctx, name); err != nil {
		t.reportQuizError(err)
		return
	}
	t.flushTranscript()
	t.printButtons()
}

func (t *terminal) submitAnswer(ctx context.Context, answer string) {
	if t.app.quiz.State() != quiz.StateAwaitingAnswer {
		fmt.Fprintln(t.out, "No question is waiting for an answer — /start begins a quiz.")
		return
	}

	// A bare number picks the corresponding quick-answer option.
	if n, err := strconv.Atoi(answer); err == nil {
		buttons := t.app.quiz.Buttons()
		if n >= 1 && n <= len(buttons) {
			answer = buttons[n-1].Action
		}
	}

	if err := t.app.quiz.Submit(ctx, answer); err != nil {
		t.reportQuizError(err)
		return
	}
	t.flushTranscript()

	if t.app.quiz.State() == quiz.StateComplete {
		t.showRecommendation(ctx)
		return
	}
	t.printButtons()
	p := t.app.quiz.Progress()
	fmt.Fprintf(t.out, "[question %d of %d — %d%%]\n", p.CurrentStep, p.TotalSteps, p.Percentage)
}

func (t *terminal) reportQuizError(err error) {
	switch {
	case errors.Is(err, quiz.ErrBusy):
		fmt.Fprintln(t.out, "Still thinking about the last answer — one moment.")
	case errors.Is(err, quiz.ErrNotAwaitingAnswer):
		fmt.Fprintln(t.out, "No question is waiting for an answer — /start begins a quiz.")
	case errors.Is(err, endpoint.ErrAllUnreachable):
		fmt.Fprintln(t.out, "The backend is unreachable right now. Please try again in a moment.")
	default:
		fmt.Fprintf(t.out, "Something went wrong: %v\n", err)
	}
}

// flushTranscript prints messages added since the last flush.
func (t *terminal) flushTranscript() {
	messages := t.app.quiz.Messages()
	for ; t.printed < len(messages); t.printed++ {
		m := messages[t.printed]
		if m.Sender == "bot" {
			fmt.Fprintf(t.out, "\nTalkify: %s\n", m.Text)
		} else {
			fmt.Fprintf(t.out, "You: %s\n", m.Text)
		}
	}
}

func (t *terminal) printButtons() {
	buttons := t.app.quiz.Buttons()
	for _, b := range buttons {
		fmt.Fprintf(t.out, "  %d. %s %s\n", b.ID, b.Icon, b.Label)
	}
}

func (t *terminal) showRecommendation(ctx context.Context) {
	rec := t.app.quiz.Recommendation()
	if rec == nil {
		return
	}
	fmt.Fprintf(t.out, "\n── Recommended course ──\n%s\n", rec.Course.Name)
	if rec.Course.Description != "" {
		fmt.Fprintln(t.out, rec.Course.Description)
	}
	if rec.Course.Link != "" {
		fmt.Fprintf(t.out, "Link: %s\n", rec.Course.Link)
	}
	fmt.Fprintf(t.out, "Confidence: %.0f%%\n", rec.Confidence*100)
	if rec.Reasoning != "" {
		fmt.Fprintf(t.out, "Why: %s\n", rec.Reasoning)
	}
	for _, alt := range rec.Alternatives {
		fmt.Fprintf(t.out, "Also consider: %s\n", alt.Name)
	}
	t.recordOnboarding(ctx, rec.Course.Name)
	t.showVideo(ctx)
}

// recordOnboarding persists the completed-quiz outcome so a returning user
// can be greeted with their last recommendation.
func (t *terminal) recordOnboarding(ctx context.Context, courseName string) {
	data, err := sonic.Marshal(map[string]string{
		"recommendedCourse": courseName,
		"completedAt":       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := t.app.st.Set(ctx, store.KeyOnboarding, string(data)); err != nil {
		slog.Warn("failed to persist onboarding data", "err", err)
	}
}

func (t *terminal) searchCourses(ctx context.Context, query string) {
	if query == "" {
		fmt.Fprintln(t.out, "Usage: /courses <query>")
		return
	}
	courses := t.app.catalog.Search(ctx, query)
	if len(courses) == 0 {
		fmt.Fprintf(t.out, "No courses matched %q.\n", query)
		return
	}
	for _, c := range courses {
		fmt.Fprintf(t.out, "  %s", c.Name)
		if c.Duration != "" {
			fmt.Fprintf(t.out, " (%s)", c.Duration)
		}
		fmt.Fprintln(t.out)
	}
}

func (t *terminal) showVideo(ctx context.Context) {
	sources := t.app.videos.BestSources(ctx)
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(t.out, "Celebration video:")
	for _, s := range sources {
		fmt.Fprintf(t.out, "  %s (%s)\n", s.URL, s.Type)
	}
}

// sendChat sends a chat message through the backend, falling back to the
// local guidance assistant when the backend cannot answer.
func (t *terminal) sendChat(ctx context.Context, message string) {
	resp, err := t.app.client.SendChatMessage(ctx, message, t.chatSessionID)
	if err == nil {
		t.chatSessionID = resp.SessionID
		fmt.Fprintf(t.out, "\nTalkify: %s\n", resp.Response)
		if t.app.queue != nil {
			t.app.queue.SpeakAIMessage(resp.Response)
		}
		return
	}

	reply := t.app.guide.Respond(ctx, message)
	fmt.Fprintf(t.out, "\nTalkify: %s\n", reply.Message)
	for i, opt := range reply.Options {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, opt)
	}
	for _, s := range reply.Suggestions {
		fmt.Fprintf(t.out, "Suggested: %s — %s\n", s.Name, s.Reason)
	}
	if t.app.queue != nil {
		t.app.queue.SpeakAIMessage(reply.Message)
	}
}

func (t *terminal) reset() {
	if err := t.app.quiz.Reset(); err != nil {
		t.reportQuizError(err)
		return
	}
	t.printed = 0
	t.chatSessionID = ""
	fmt.Fprintln(t.out, "Conversation cleared.")
}

func (t *terminal) status() {
	p := t.app.quiz.Progress()
	vs := t.app.settings.Snapshot()
	fmt.Fprintf(t.out, "State: %s, question %d of %d (%d%%)\n",
		t.app.quiz.State(), p.CurrentStep, p.TotalSteps, p.Percentage)
	fmt.Fprintf(t.out, "Voice: enabled=%t auto_speak=%t model=%s voice=%s",
		vs.Enabled, vs.AutoSpeak, vs.Model, vs.Voice)
	if vs.TemporarilyDisabled {
		fmt.Fprint(t.out, " (temporarily disabled after synthesis failures)")
	}
	fmt.Fprintln(t.out)
}

func (t *terminal) setVoiceEnabled(ctx context.Context, args []string) {
	on, ok := parseOnOff(args)
	if !ok {
		fmt.Fprintln(t.out, "Usage: /voice on|off")
		return
	}
	t.app.settings.SetEnabled(ctx, on)
	if on && t.app.synth != nil {
		t.app.synth.ReEnable(ctx)
	}
	fmt.Fprintf(t.out, "Voice %s.\n", onOff(on))
}

func (t *terminal) setAutoSpeak(ctx context.Context, args []string) {
	on, ok := parseOnOff(args)
	if !ok {
		fmt.Fprintln(t.out, "Usage: /autospeak on|off")
		return
	}
	t.app.settings.SetAutoSpeak(ctx, on)
	fmt.Fprintf(t.out, "Auto-speak %s.\n", onOff(on))
}

func (t *terminal) setModel(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(t.out, "Usage: /model %s|%s\n", tts.ModelEnglish, tts.ModelArabic)
		return
	}
	if err := t.app.settings.SetModel(ctx, tts.Model(args[0])); err != nil {
		fmt.Fprintf(t.out, "Cannot switch model: %v\n", err)
		return
	}
	vs := t.app.settings.Snapshot()
	fmt.Fprintf(t.out, "Model %s, voice %s.\n", vs.Model, vs.Voice)
}

func (t *terminal) setVoice(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(t.out, "Usage: /setvoice <name> — /voices lists them")
		return
	}
	if err := t.app.settings.SetVoice(ctx, args[0]); err != nil {
		fmt.Fprintf(t.out, "Cannot set voice: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "Voice set to %s.\n", args[0])
}

func (t *terminal) listVoices() {
	vs := t.app.settings.Snapshot()
	fmt.Fprintf(t.out, "Voices for %s:\n", vs.Model)
	for _, v := range tts.Voices(vs.Model) {
		marker := " "
		if v == vs.Voice {
			marker = "*"
		}
		fmt.Fprintf(t.out, " %s %s\n", marker, v)
	}
}

func parseOnOff(args []string) (on, ok bool) {
	if len(args) != 1 {
		return false, false
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes":
		return true, true
	case "off", "false", "no":
		return false, true
	}
	return false, false
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
