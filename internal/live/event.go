// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package live pushes board changes to every open WebSocket.

A [Registry] tracks open connections and, once a client announces itself,
who is behind each one. A [Broadcaster] encodes an [Event] once and queues
the same bytes on every connection in a registry snapshot. Delivery is best
effort: a slow or closed peer loses the frame, and the caller never sees an
error because the mutation it reports has already committed.

# Protocol

	client → server  {"type":"register","userId":"...","userName":"..."}
	server → client  {"type":"registered","message":"..."}
	server → client  {"type":"task_created","payload":{...}}

Any other inbound frame is ignored.
*/
package live

// Event is one frame pushed to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Event types emitted by the resource services.
const (
	TaskCreated    = "task_created"
	TaskUpdated    = "task_updated"
	TaskDeleted    = "task_deleted"
	ProjectCreated = "project_created"
	ProjectUpdated = "project_updated"
	ProjectDeleted = "project_deleted"
	CommentAdded   = "comment_added"
	CommentEdited  = "comment_edited"
	CommentDeleted = "comment_deleted"
)

// Control frame types.
const (
	TypeRegister   = "register"
	TypeRegistered = "registered"
)

// RegisteredMessage is the text of the registration acknowledgement.
const RegisteredMessage = "Connected to Sprinto real-time server"

// inbound is the only client frame the server understands.
type inbound struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ack struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
