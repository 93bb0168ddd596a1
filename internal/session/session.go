// Package session keeps per-conversation chat state in memory so
// follow-up questions can reference earlier turns.
package session

import (
	"time"

	"google.golang.org/genai"
)

// Kind identifies which agent a session belongs to. A session is only
// replayed through the agent that created it.
type Kind string

const (
	// KindSimple marks sessions of the SQL-tool agent.
	KindSimple Kind = "simple"
	// KindEmbedding marks sessions of the semantic retrieval agent.
	KindEmbedding Kind = "embedding"
)

// Session is one conversation's state. History holds the ordered
// turns exactly as they are replayed to the model: user text, model
// replies with any function calls, and function response parts.
type Session struct {
	ID           string
	Kind         Kind
	History      []*genai.Content
	CreatedAt    time.Time
	LastAccessed time.Time
	MessageCount int
}

// Info is the client-facing view of a session, without the history.
type Info struct {
	SessionID    string `json:"session_id"`
	AgentType    string `json:"agent_type"`
	CreatedAt    string `json:"created_at"`
	LastAccessed string `json:"last_accessed"`
	MessageCount int    `json:"message_count"`
}
