package network

import (
	"encoding/json"

	"github.com/gravitas-games/mazenav/pkg/grid"
	"github.com/gravitas-games/mazenav/pkg/path"
)

// Message types - Client → Server
const (
	MsgTypePath  = "path"
	MsgTypeTrace = "trace"
	MsgTypeMazes = "mazes"
	MsgTypePing  = "ping"
)

// Message types - Server → Client
const (
	MsgTypeWelcome     = "welcome"
	MsgTypePathResult  = "path_result"
	MsgTypeTraceResult = "trace_result"
	MsgTypeMazeList    = "maze_list"
	MsgTypeError       = "error"
	MsgTypePong        = "pong"
)

// Error codes carried in ErrorPayload.Code
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeUnknownType    = "unknown_message_type"
	ErrCodeUnknownMaze    = "unknown_maze"
	ErrCodeOutOfBounds    = "out_of_bounds"
	ErrCodeSearchTimeout  = "search_timeout"
	ErrCodeInternal       = "internal"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// PathPayload asks for a path; also the body of POST /api/path
type PathPayload struct {
	// Ref is echoed back so clients can match replies to requests
	Ref   string     `json:"ref,omitempty"`
	Maze  string     `json:"maze"`
	Start grid.Coord `json:"start"`
	Goal  grid.Coord `json:"goal"`
}

// TracePayload asks for a step-by-step search trace
type TracePayload struct {
	PathPayload
	MaxSteps int `json:"max_steps,omitempty"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after successful connection
type WelcomePayload struct {
	UserID        string        `json:"user_id"`
	Username      string        `json:"username"`
	SessionID     string        `json:"session_id"`
	SessionStatus SessionStatus `json:"session_status"`
}

// PathResultPayload answers a PathPayload. Found false with an empty path
// means the goal is unreachable; invalid requests get an ErrorPayload.
type PathResultPayload struct {
	Ref       string       `json:"ref,omitempty"`
	RequestID string       `json:"request_id"`
	Maze      string       `json:"maze"`
	Found     bool         `json:"found"`
	Path      []grid.Coord `json:"path"`
	Moves     int          `json:"moves"`
	Expanded  int          `json:"expanded"`
	Cached    bool         `json:"cached"`
	ElapsedUs int64        `json:"elapsed_us"`
}

// TraceResultPayload answers a TracePayload
type TraceResultPayload struct {
	Ref   string          `json:"ref,omitempty"`
	Maze  string          `json:"maze"`
	Steps []path.Snapshot `json:"steps"`
}

// MazeListPayload lists the mazes a client can query
type MazeListPayload struct {
	Mazes []MazeInfo `json:"mazes"`
}

// MazeInfo describes one maze
type MazeInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SessionStatus represents the current session state
type SessionStatus struct {
	ConnectedUsers int   `json:"connected_users"`
	Mazes          int   `json:"mazes"`
	Uptime         int64 `json:"uptime"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Ref     string `json:"ref,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
