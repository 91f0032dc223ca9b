// Package domain defines the types used by the POST /v1/chat route.
//
// The chat route is a thin assistant layer over the reconciliation
// backend: the user asks a free-text question, the service routes it to
// a context strategy (dispute help, eligibility questions, general) and
// answers either locally or through the LLM agent.
package domain

// ChatRequest is the body the caller sends to POST /v1/chat.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is what the API returns: the answer string plus the
// context that produced it, so the UI can render follow-up actions.
type ChatResponse struct {
	Answer  string `json:"answer"`
	Context string `json:"context,omitempty"`
}

// ChatAgentRequest is the payload sent to the LLM agent.
type ChatAgentRequest struct {
	// Query is the user's prompt.
	Query string `json:"query"`

	// UserID identifies the user, letting the agent personalize.
	UserID string `json:"user_id,omitempty"`

	// Context is the detected conversation domain:
	// "dispute", "eligibility" or "general".
	Context string `json:"context,omitempty"`
}

// ChatAgentResponse is what the agent returns.
type ChatAgentResponse struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources,omitempty"`
	TokensUsed int      `json:"tokens_used,omitempty"`
}

// ChatContext carries everything a strategy needs to process one
// message. Assembled by the ChatService before delegating.
type ChatContext struct {
	UserID         string
	Query          string
	DetectedIntent string
}
