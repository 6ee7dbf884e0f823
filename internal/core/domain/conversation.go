package domain

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"    yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// TrackConversationRequest is the body of POST /context/track.
type TrackConversationRequest struct {
	ConversationID string    `json:"conversationId"`
	Messages       []Message `json:"messages"`
	UserID         string    `json:"userId,omitempty"`
	IsIncremental  bool      `json:"isIncremental,omitempty"`
}

// Resolution is a previously resolved conversation similar to the tracked one.
type Resolution struct {
	ConversationID string   `json:"conversationId"`
	IssueType      string   `json:"issueType"`
	ResolutionPath []string `json:"resolutionPath"`
	TimeToResolve  float64  `json:"timeToResolve"`
}

// Usage reports quota consumed by the account.
type Usage struct {
	TokensUsed     int64 `json:"tokensUsed"`
	RetrievalsUsed int64 `json:"retrievalsUsed"`
	RequestsUsed   int64 `json:"requestsUsed"`
}

// Remaining reports quota left for the account.
type Remaining struct {
	Tokens     int64 `json:"tokens"`
	Retrievals int64 `json:"retrievals"`
	Requests   int64 `json:"requests"`
}

// TrackConversationData is the payload of a track response.
type TrackConversationData struct {
	ConversationID     string       `json:"conversationId"`
	IssueType          string       `json:"issueType"`
	CurrentStage       string       `json:"currentStage"`
	EscalationPoint    float64      `json:"escalationPoint"`
	SimilarResolutions []Resolution `json:"similarResolutions"`
	Usage              Usage        `json:"usage"`
	Remaining          Remaining    `json:"remaining"`
}

// TrackConversationResponse is returned by POST /context/track.
type TrackConversationResponse struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	Data      TrackConversationData `json:"data"`
	RequestID string                `json:"requestId"`
}

// ResolveConversationRequest is the body of POST /context/resolve.
type ResolveConversationRequest struct {
	ConversationID string `json:"conversationId"`
}

// ResolveConversationResponse is returned by POST /context/resolve.
type ResolveConversationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ConversationID  string `json:"conversationId"`
		ResolutionNotes string `json:"resolutionNotes"`
	} `json:"data"`
	RequestID string `json:"requestId"`
}

// HealthServices reports the state of the API's dependencies.
type HealthServices struct {
	ConversationTracking string `json:"conversationTracking"`
	Neo4j                string `json:"neo4j"`
	OpenAI               string `json:"openai"`
}

// HealthCheckResponse is returned by GET /context/health.
type HealthCheckResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Services  HealthServices `json:"services"`
	Timestamp string         `json:"timestamp"`
	RequestID string         `json:"requestId"`
}
