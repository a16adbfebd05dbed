package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cybermeme-backend/internal/infrastructure/observability"

	"go.uber.org/zap"
)

var (
	// ErrHubStopped is returned by Publish after Stop.
	ErrHubStopped = errors.New("websocket hub stopped")

	// ErrQueueFull is returned by Publish when the broadcast queue has no room.
	ErrQueueFull = errors.New("broadcast queue full, message dropped")
)

// Hub maintains the set of connected subscribers and fans every published
// event out to all of them. Subscribers are anonymous; nothing but their
// presence is tracked. Delivery is best effort: there is no ack and no replay.
type Hub struct {
	// Connected clients; owned by the Run goroutine, mu guards reads from elsewhere
	clients map[*Client]bool
	mu      sync.RWMutex

	// Channels for client management
	register   chan *Client
	unregister chan *Client

	// Message broadcasting
	broadcast chan *BroadcastMessage

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	logger *zap.Logger

	// Metrics
	metrics   *HubMetrics
	collector *observability.Collector
}

// HubMetrics tracks WebSocket metrics
type HubMetrics struct {
	ActiveConnections int64
	MessagesSent      int64
	MessagesFailed    int64
	mu                sync.RWMutex
}

// BroadcastMessage is the frame written to every subscriber.
type BroadcastMessage struct {
	Type      string          `json:"type"`      // Event name, e.g. new_meme
	Data      json.RawMessage `json:"data"`      // Event payload
	Timestamp int64           `json:"timestamp"` // Unix timestamp
}

// NewHub creates a new WebSocket hub. collector may be nil.
func NewHub(logger *zap.Logger, collector *observability.Collector) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcast:  make(chan *BroadcastMessage, 1000),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    &HubMetrics{},
		collector:  collector,
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToAll(message)
		}
	}
}

// Stop shuts the hub down. Wait on Done for Run to return.
func (h *Hub) Stop() {
	h.logger.Info("Stopping WebSocket hub")
	h.cancel()
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Publish queues an event for every connected subscriber. It does not
// block: when the queue is full the event is dropped and ErrQueueFull returned.
func (h *Hub) Publish(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	message := &BroadcastMessage{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	if h.ctx.Err() != nil {
		return ErrHubStopped
	}

	// Publish runs on the request path and must never wait on subscribers.
	select {
	case h.broadcast <- message:
		return nil
	default:
		h.metrics.mu.Lock()
		h.metrics.MessagesFailed++
		h.metrics.mu.Unlock()
		if h.collector != nil {
			h.collector.RealtimeMessages.WithLabelValues(event, "queue_full").Inc()
		}
		return ErrQueueFull
	}
}

// registerClient adds a new client connection
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.mu.Lock()
	h.metrics.ActiveConnections++
	h.metrics.mu.Unlock()
	if h.collector != nil {
		h.collector.RealtimeConnections.Inc()
	}

	h.logger.Info("User jacked into the neon jungle",
		zap.String("connectionID", client.id),
		zap.String("remoteAddr", client.remoteAddr),
		zap.Int("connections", total),
	)

	// Queued after registration so the greeting precedes any broadcast.
	h.greet(client)
}

// unregisterClient removes a client connection
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}

	h.metrics.mu.Lock()
	h.metrics.ActiveConnections--
	h.metrics.mu.Unlock()
	if h.collector != nil {
		h.collector.RealtimeConnections.Dec()
	}

	h.logger.Info("User bailed",
		zap.String("connectionID", client.id),
		zap.Int("remainingConnections", remaining),
	)
}

// broadcastToAll sends a message to every connected client
func (h *Hub) broadcastToAll(message *BroadcastMessage) {
	// Marshal once for all clients
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message",
			zap.Error(err),
			zap.String("messageType", message.Type),
		)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	successCount := 0
	var slow []*Client

	for _, client := range clients {
		select {
		case client.send <- data:
			successCount++
		default:
			slow = append(slow, client)
		}
	}

	// A client whose buffer is full is dropped rather than allowed to stall the hub.
	for _, client := range slow {
		h.logger.Warn("Closing slow client",
			zap.String("connectionID", client.id),
			zap.String("messageType", message.Type),
		)
		h.unregisterClient(client)
	}

	h.metrics.mu.Lock()
	h.metrics.MessagesSent += int64(successCount)
	h.metrics.MessagesFailed += int64(len(slow))
	h.metrics.mu.Unlock()
	if h.collector != nil {
		h.collector.RealtimeMessages.WithLabelValues(message.Type, "sent").Add(float64(successCount))
		h.collector.RealtimeMessages.WithLabelValues(message.Type, "dropped").Add(float64(len(slow)))
	}

	h.logger.Debug("Broadcast complete",
		zap.String("messageType", message.Type),
		zap.Int("success", successCount),
		zap.Int("failed", len(slow)),
	)
}

// greet queues the connection_established frame for a new client.
func (h *Hub) greet(client *Client) {
	data, err := json.Marshal(&BroadcastMessage{
		Type:      EventConnectionEstablished,
		Data:      json.RawMessage(fmt.Sprintf(`{"connectionId":%q,"message":"Cybermeme Market: Neon chaos awaits!"}`, client.id)),
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Error("Failed to send connection established message",
			zap.String("connectionID", client.id),
		)
	}
}

// closeAllConnections closes all active connections during shutdown
func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	if h.collector != nil {
		h.collector.RealtimeConnections.Set(0)
	}

	h.logger.Info("All connections closed")
}

// GetMetrics returns current hub metrics
func (h *Hub) GetMetrics() HubMetrics {
	h.metrics.mu.RLock()
	defer h.metrics.mu.RUnlock()
	return HubMetrics{
		ActiveConnections: h.metrics.ActiveConnections,
		MessagesSent:      h.metrics.MessagesSent,
		MessagesFailed:    h.metrics.MessagesFailed,
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// join hands a client to the Run goroutine.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// leave hands a client back to the Run goroutine for removal.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}
