// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package websocket

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types.
const (
	MessageTypeAlert = "alert"
	MessageTypeJoin  = "join"
	MessageTypeLeave = "leave"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

// RoomAdmin is the operator dashboard room.
const RoomAdmin = "admin"

const touristRoomPrefix = "tourist:"

// ErrHubFull is returned by Publish when the broadcast queue is full.
var ErrHubFull = errors.New("websocket hub queue full")

// Message is the wire envelope in both directions.
type Message struct {
	Type string      `json:"type"`
	Room string      `json:"room,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// TouristRoom names the room that receives a tourist's alerts.
func TouristRoom(touristID string) string {
	return touristRoomPrefix + touristID
}

// ValidRoom reports whether clients may join room.
func ValidRoom(room string) bool {
	if room == RoomAdmin {
		return true
	}
	id, ok := strings.CutPrefix(room, touristRoomPrefix)
	return ok && strings.TrimSpace(id) != ""
}

// outbound is a queued message; an empty room means every client.
type outbound struct {
	msg  Message
	room string
	// tag marks the copy sent to members of this room during a broadcast.
	tag string
}

type roomOp struct {
	client *Client
	room   string
	join   bool
}

// Hub owns the client set and room membership. Only the Run goroutine
// mutates them; readers take mu.
type Hub struct {
	clients map[*Client]map[string]struct{}
	rooms   map[string]map[*Client]struct{}

	broadcast  chan outbound
	Register   chan *Client
	Unregister chan *Client
	roomOps    chan roomOp

	mu sync.RWMutex
}

// NewHub creates a hub. Start it with Serve.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]map[string]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		broadcast:  make(chan outbound, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		roomOps:    make(chan roomOp, 64),
	}
}

// Serve runs the hub until ctx ends, then closes every client. It
// implements suture.Service.
//
// Client lifecycle events are drained before broadcasts so membership is
// settled before a message is fanned out.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.Register:
			h.addClient(c)
			continue
		case c := <-h.Unregister:
			h.removeClient(c)
			continue
		case op := <-h.roomOps:
			h.applyRoomOp(op)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case c := <-h.Register:
			h.addClient(c)
		case c := <-h.Unregister:
			h.removeClient(c)
		case op := <-h.roomOps:
			h.applyRoomOp(op)
		case out := <-h.broadcast:
			h.deliver(out)
		}
	}
}

func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Info().Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	removed := h.dropLocked(c)
	n := len(h.clients)
	h.mu.Unlock()

	if removed {
		metrics.WSConnections.Set(float64(n))
		logging.Info().Int("total_clients", n).Msg("websocket client disconnected")
	}
}

// dropLocked forgets c and closes its send channel. Caller holds mu.
func (h *Hub) dropLocked(c *Client) bool {
	rooms, ok := h.clients[c]
	if !ok {
		return false
	}
	for room := range rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	close(c.send)
	return true
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.clients[c]; ok {
		delete(rooms, room)
	}
}

func (h *Hub) applyRoomOp(op roomOp) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[op.client]
	if !ok {
		return
	}
	if !op.join {
		h.leaveLocked(op.client, op.room)
		return
	}
	members, ok := h.rooms[op.room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[op.room] = members
	}
	members[op.client] = struct{}{}
	rooms[op.room] = struct{}{}
}

// deliver fans out in client id order. Clients whose buffer is full are
// disconnected.
func (h *Hub) deliver(out outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	if out.room == "" {
		targets = make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		members := h.rooms[out.room]
		targets = make([]*Client, 0, len(members))
		for c := range members {
			targets = append(targets, c)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	tagged := h.rooms[out.tag]
	var slow []*Client
	for _, c := range targets {
		msg := out.msg
		if _, ok := tagged[c]; ok && out.room == "" {
			msg.Room = out.tag
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		metrics.WSMessagesDropped.WithLabelValues("client_slow").Inc()
		h.dropLocked(c)
	}
	if len(slow) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	n := len(h.clients)
	clients := make([]*Client, 0, n)
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, c := range clients {
		h.dropLocked(c)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)

	reason := ShutdownReasonContextCanceled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", n).
		Msg("websocket hub stopped")
}

func (h *Hub) enqueue(out outbound) error {
	select {
	case h.broadcast <- out:
		return nil
	default:
		metrics.WSMessagesDropped.WithLabelValues("hub_full").Inc()
		logging.Warn().Str("message_type", out.msg.Type).Str("room", out.room).Msg("broadcast channel full, dropping message")
		return ErrHubFull
	}
}

// Broadcast queues msg for every connected client.
func (h *Hub) Broadcast(msg Message) error {
	return h.enqueue(outbound{msg: msg})
}

// BroadcastToRoom queues msg for members of room.
func (h *Hub) BroadcastToRoom(room string, msg Message) error {
	msg.Room = room
	return h.enqueue(outbound{msg: msg, room: room})
}

// Publish implements alerting.Publisher. The topic is ignored. Every client
// receives the alert once; members of the alert's tourist room get their
// copy tagged with that room.
func (h *Hub) Publish(_ context.Context, _ string, alert *models.Alert) error {
	out := outbound{msg: Message{Type: MessageTypeAlert, Data: alert}}
	if alert.TouristID != "" {
		out.tag = TouristRoom(alert.TouristID)
	}
	return h.enqueue(out)
}

// BroadcastRaw decodes an alert received from another instance and
// republishes it locally.
func (h *Hub) BroadcastRaw(data []byte) error {
	var alert models.Alert
	if err := json.Unmarshal(data, &alert); err != nil {
		return err
	}
	return h.Publish(context.Background(), "", &alert)
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// MarshalMessage encodes msg with goccy/go-json.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
