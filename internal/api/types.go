package api

// QuestionType classifies how a quiz question expects to be answered.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeRatingScale    QuestionType = "rating_scale"
	TypeYesNo          QuestionType = "yes_no"
	TypeOpenEnded      QuestionType = "open_ended"
)

// Question is a single quiz question as served by the backend.
type Question struct {
	// Text is the question prompt shown to the user.
	Text string `json:"question"`

	// Type classifies the expected answer shape.
	Type QuestionType `json:"question_type"`

	// Options are the selectable answers for choice-style questions. Empty
	// for open-ended questions.
	Options []string `json:"options"`

	// IsFinal marks the last question before the recommendation.
	IsFinal bool `json:"is_final"`
}

// QAPair is one answered question in the conversation history sent back to
// the backend on every request.
type QAPair struct {
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	QuestionType QuestionType `json:"question_type"`
	Options      []string     `json:"options"`
}

// NextQuestionResponse is the backend's reply to a next-question request.
type NextQuestionResponse struct {
	Question       Question `json:"question"`
	QuestionNumber int      `json:"question_number"`
	TotalPlanned   int      `json:"total_questions_planned"`
	SessionID      string   `json:"session_id"`
}

// Course describes one recommendable course.
type Course struct {
	Name        string   `json:"name"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Provider    string   `json:"provider"`
	Duration    string   `json:"duration"`
	Level       string   `json:"level"`
}

// Recommendation is the backend's final course recommendation.
type Recommendation struct {
	Course       Course   `json:"recommended_course"`
	Confidence   float64  `json:"confidence_score"`
	Reasoning    string   `json:"reasoning"`
	Alternatives []Course `json:"alternative_courses"`
}

// ChatMessage is one entry in a free-form chat conversation.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ChatResponse is the backend's reply to a chat message.
type ChatResponse struct {
	Response  string        `json:"response"`
	SessionID string        `json:"session_id"`
	History   []ChatMessage `json:"conversation_history"`
}

// ChatHistory is a chat session's stored transcript.
type ChatHistory struct {
	SessionID    string        `json:"session_id"`
	Messages     []ChatMessage `json:"chat_history"`
	MessageCount int           `json:"message_count"`
}

// HealthStatus is the backend's health probe response.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Progress summarises how far the quiz has advanced.
type Progress struct {
	// CurrentStep is the 1-based number of the question in flight.
	CurrentStep int

	// TotalSteps is the dynamic estimate of total questions; it grows when
	// the quiz runs longer than initially planned.
	TotalSteps int

	// Percentage is CurrentStep over TotalSteps, capped at 90 until the quiz
	// completes so the bar never shows done prematurely.
	Percentage int
}

/// AnswerOutcome is the result of submitting one answer: either the next
// question or, when the quiz is over, the final recommendation.
type AnswerOutcome struct {
	NextQuestion   *NextQuestionResponse
	Recommendation *Recommendation
	Complete       bool
}

// nextQuestionRequest is the wire shape for POST /next-question and
// POST /recommend.
type nextQuestionRequest struct {
	ConversationHistory []QAPair `json:"conversation_history"`
	UserID              string   `json:"user_id,omitempty"`
}

// chatRequest is the wire shape for POST /chat.
type chatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}
