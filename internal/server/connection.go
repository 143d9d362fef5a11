package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/gravitas-games/mazenav/internal/navigation"
	"github.com/gravitas-games/mazenav/internal/network"
	"github.com/gravitas-games/mazenav/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	id string

	// WebSocket connection
	ws *websocket.Conn

	// Server reference
	server *Server

	// Authenticated user
	user *models.User

	// Buffered channel for outbound messages
	send chan []byte

	// Closed once by Close; the send channel itself is never closed
	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection creates a new connection for an authenticated user
func NewConnection(ws *websocket.Conn, server *Server, user *models.User) *Connection {
	return &Connection{
		id:     uuid.NewString(),
		ws:     ws,
		server: server,
		user:   user,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	// Set up connection parameters
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Start read and write pumps
	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("WebSocket read error", "conn", c.id, "error", err)
			}
			return
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.server.logger.Debug("Failed to parse client message", "conn", c.id, "error", err)
			c.SendError("", network.ErrCodeInvalidMessage, "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.server.logger.Warn("WebSocket write error", "conn", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.server.ctx.Done():
			// Server shutting down
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	c.server.logger.Debug("Received message", "conn", c.id, "type", msg.Type)

	switch msg.Type {
	case network.MsgTypePath:
		c.handlePath(msg.Payload)

	case network.MsgTypeTrace:
		c.handleTrace(msg.Payload)

	case network.MsgTypeMazes:
		c.SendMessage(&network.ServerMessage{
			Type:    network.MsgTypeMazeList,
			Payload: c.server.mazeList(),
		})

	case network.MsgTypePing:
		c.handlePing()

	default:
		c.server.logger.Debug("Unknown message type", "conn", c.id, "type", msg.Type)
		c.SendError("", network.ErrCodeUnknownType, "Unknown message type")
	}
}

// handlePath answers a path request
func (c *Connection) handlePath(payload json.RawMessage) {
	var req network.PathPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendError("", network.ErrCodeInvalidMessage, "Invalid path request")
		return
	}

	result, err := c.server.findPath(c.server.ctx, c.user, req)
	if err != nil {
		code, _ := classify(err)
		c.SendError(req.Ref, code, err.Error())
		return
	}

	c.SendMessage(&network.ServerMessage{Type: network.MsgTypePathResult, Payload: result})
}

// handleTrace answers a trace request with the search snapshots
func (c *Connection) handleTrace(payload json.RawMessage) {
	var req network.TracePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendError("", network.ErrCodeInvalidMessage, "Invalid trace request")
		return
	}

	ctx, cancel := context.WithTimeout(c.server.ctx, c.server.config.Search.Timeout())
	defer cancel()

	steps, err := c.server.nav.Trace(ctx, navigation.Request{MazeID: req.Maze, Start: req.Start, Goal: req.Goal}, req.MaxSteps)
	if err != nil {
		code, _ := classify(err)
		c.SendError(req.Ref, code, err.Error())
		return
	}

	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeTraceResult,
		Payload: network.TraceResultPayload{
			Ref:   req.Ref,
			Maze:  req.Maze,
			Steps: steps,
		},
	})
}

// handlePing handles ping requests
func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.server.logger.Error("Failed to marshal message", "type", msg.Type, "error", err)
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.server.logger.Warn("Send buffer full, dropping message", "conn", c.id, "type", msg.Type)
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(ref, code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Ref:     ref,
			Code:    code,
			Message: message,
		},
	})
}

// Close stops the write pump; safe to call more than once
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
