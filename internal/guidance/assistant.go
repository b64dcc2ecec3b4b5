// Package guidance is the client-side career exploration assistant.
//
// Unlike the quiz, which is fully driven by the backend, the assistant holds
// a staged conversation locally: it prompts an LLM with the course catalogue
// and the user's evolving profile and expects a structured JSON reply. When
// the LLM is unreachable the assistant degrades to canned per-stage replies
// and keyword course matching, so exploration never hard-fails.
package guidance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/talkify-cu/talkify/pkg/provider/llm"
)

// Stage names a step of the staged conversation.
type Stage string

const (
	StageWelcome        Stage = "welcome"
	StageInterests      Stage = "interests"
	StageWorkStyle      Stage = "work_style"
	StageCareerGoals    Stage = "career_goals"
	StageRecommendation Stage = "recommendation"
)

// Suggestion is one recommended course with the assistant's reasoning.
type Suggestion struct {
	Name   string `json:"name"`
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// Reply is the assistant's structured answer for one exchange. The JSON tags
// are the contract given to the LLM in the system prompt.
type Reply struct {
	Message     string       `json:"message"`
	Options     []string     `json:"options"`
	NextStage   Stage        `json:"nextStage"`
	Suggestions []Suggestion `json:"recommendations,omitempty"`
}

// Profile accumulates what the conversation has learned about the user.
type Profile struct {
	Interests      []string `json:"interests"`
	Strengths      []string `json:"strengths"`
	CareerGoals    string   `json:"careerGoals"`
	PreferredField string   `json:"preferredField"`
	PreviousStream string   `json:"previousStream"`
}

// Assistant drives the staged guidance conversation. Not safe for concurrent
// use; each user gets their own instance.
type Assistant struct {
	provider  llm.Provider
	catalogue *Catalogue

	stage   Stage
	profile Profile
}

// NewAssistant creates an [Assistant] starting at [StageWelcome]. provider
// may be nil, in which case every exchange uses the canned fallback path.
func NewAssistant(provider llm.Provider, catalogue *Catalogue) *Assistant {
	return &Assistant{
		provider:  provider,
		catalogue: catalogue,
		stage:     StageWelcome,
	}
}

// Stage returns the current conversation stage.
func (a *Assistant) Stage() Stage { return a.stage }

// Profile returns the accumulated user profile.
func (a *Assistant) Profile() Profile { return a.profile }

// UpdateProfile merges non-empty fields of p into the accumulated profile.
func (a *Assistant) UpdateProfile(p Profile) {
	if len(p.Interests) > 0 {
		a.profile.Interests = append(a.profile.Interests, p.Interests...)
	}
	if len(p.Strengths) > 0 {
		a.profile.Strengths = append(a.profile.Strengths, p.Strengths...)
	}
	if p.CareerGoals != "" {
		a.profile.CareerGoals = p.CareerGoals
	}
	if p.PreferredField != "" {
		a.profile.PreferredField = p.PreferredField
	}
	if p.PreviousStream != "" {
		a.profile.PreviousStream = p.PreviousStream
	}
}

// Respond advances the conversation with the user's input and returns the
// assistant's reply. LLM failures fall back to the canned stage script and
// never surface as errors.
func (a *Assistant) Respond(ctx context.Context, userInput string) Reply {
	reply, err := a.complete(ctx, userInput)
	if err != nil {
		slog.Warn("guidance: llm exchange failed, using fallback", "stage", a.stage, "error", err)
		reply = fallbackReply(a.stage)
	}
	if reply.NextStage != "" {
		a.stage = reply.NextStage
	}
	return reply
}

// complete performs one LLM exchange and parses the structured reply.
func (a *Assistant) complete(ctx context.Context, userInput string) (Reply, error) {
	if a.provider == nil {
		return Reply{}, fmt.Errorf("guidance: no llm provider configured")
	}

	names := make([]string, 0)
	for _, course := range a.catalogue.Courses(ctx) {
		names = append(names, course.Name)
	}
	profileJSON, err := sonic.MarshalString(a.profile)
	if err != nil {
		return Reply{}, fmt.Errorf("guidance: marshal profile: %w", err)
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt(names, a.stage, profileJSON),
		Messages: []llm.Message{{
			Role: "user",
			Content: fmt.Sprintf(
				"User said: %q. Current stage: %s. Please guide them to the next step in their career discovery journey.",
				userInput, a.stage),
		}},
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	if err := sonic.UnmarshalString(resp.Content, &reply); err != nil {
		return Reply{}, fmt.Errorf("guidance: parse llm reply: %w", err)
	}
	if reply.Message == "" {
		return Reply{}, fmt.Errorf("guidance: llm reply has no message")
	}
	return reply, nil
}

// systemPrompt builds the counselor instruction with the live catalogue and
// profile baked in.
func systemPrompt(courseNames []string, stage Stage, profileJSON string) string {
	return fmt.Sprintf(`You are an expert career counselor for Chandigarh University engineering programs.
Your goal is to guide students through a personalized career discovery journey.

Available courses: %s

Current conversation stage: %s
User profile so far: %s

Guidelines:
1. Ask ONE clear, engaging question at a time
2. Keep responses conversational and encouraging
3. Gradually build the user's profile through their answers
4. When ready, recommend specific courses from the list
5. Always provide 3-4 relevant response options for the user

Respond with JSON only:
{"message": "Your response message", "options": ["Option 1", "Option 2", "Option 3", "Option 4"], "nextStage": "next_conversation_stage", "recommendations": [{"name": "Course Name", "link": "Course Link", "reason": "Why this course"}]}
Include "recommendations" only when making final recommendations.`,
		strings.Join(courseNames, ", "), stage, profileJSON)
}

// fallbackReplies are the canned per-stage scripts used when the LLM is
// unreachable. Unknown stages restart at welcome.
var fallbackReplies = map[Stage]Reply{
	StageWelcome: {
		Message: "Welcome to Talkify! I'm here to help you discover the perfect engineering career path. Let's start by understanding what excites you most!",
		Options: []string{
			"I love solving complex problems",
			"I'm interested in technology and innovation",
			"I want to build and create things",
			"I'm not sure yet, help me explore",
		},
		NextStage: StageInterests,
	},
	StageInterests: {
		Message: "Great choice! Understanding your interests is key. What type of work environment appeals to you most?",
		Options: []string{
			"Working with cutting-edge technology",
			"Hands-on building and designing",
			"Research and development",
			"Managing projects and teams",
		},
		NextStage: StageWorkStyle,
	},
	StageWorkStyle: {
		Message: "Excellent! Based on your preferences, I can see some great directions. What's your ultimate career goal?",
		Options: []string{
			"Start my own tech company",
			"Work at top tech companies",
			"Become a research scientist",
			"Lead engineering projects",
		},
		NextStage: StageCareerGoals,
	},
}

// fallbackReply returns the canned reply for stage.
func fallbackReply(stage Stage) Reply {
	if r, ok := fallbackReplies[stage]; ok {
		return r
	}
	return fallbackReplies[StageWelcome]
}
