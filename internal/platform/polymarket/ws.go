package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// PriceHandler is called for every decoded price event.
type PriceHandler func(PriceUpdate)

// WSClient is a WebSocket client for the Polymarket CLOB market channel. It
// manages one connection, dispatches price_change and last_trade_price
// frames to registered handlers, and reports disconnects to the caller; the
// feed layer owns reconnection.
type WSClient struct {
	wsURL string

	mu            sync.Mutex
	conn          *websocket.Conn
	closed        bool
	subscriptions []WSCommand

	handlerMu sync.RWMutex
	handlers  []PriceHandler

	done chan struct{}
}

// NewWSClient creates a client for the given endpoint, e.g.
// "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// OnPrice registers a handler called for every price event.
func (w *WSClient) OnPrice(h PriceHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Connect dials the endpoint and starts the read and ping loops. Previously
// registered subscriptions are replayed, so reconnecting is Connect again on
// a fresh client state.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("polymarket/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket/ws: connect: %w", err)
	}
	w.conn = conn

	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop(conn)
	go w.pingLoop(conn)

	for _, cmd := range w.subscriptions {
		if err := w.sendCommand(cmd); err != nil {
			return fmt.Errorf("polymarket/ws: restore subscription: %w", err)
		}
	}
	return nil
}

// Subscribe subscribes to the given channels for the asset IDs. Valid
// channels are "price_change" and "last_trade_price".
func (w *WSClient) Subscribe(channels []string, assetIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("polymarket/ws: not connected")
	}
	for _, ch := range channels {
		cmd := WSCommand{Type: "subscribe", Channel: ch, Assets: assetIDs}
		if err := w.sendCommand(cmd); err != nil {
			return fmt.Errorf("polymarket/ws: subscribe to %s: %w", ch, err)
		}
		w.subscriptions = append(w.subscriptions, cmd)
	}
	return nil
}

// Wait blocks until the connection drops or Close is called, returning
// domain.ErrWSDisconnect on an unexpected drop.
func (w *WSClient) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return nil
		}
		return domain.ErrWSDisconnect
	}
}

// Close shuts the connection down and stops the loops.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// sendCommand writes a JSON frame. Caller must hold w.mu.
func (w *WSClient) sendCommand(cmd WSCommand) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WSClient) readLoop(conn *websocket.Conn) {
	defer w.signalDone()
	for {
		select {
		case <-w.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		w.dispatch(message)
	}
}

// dispatch decodes one frame, which may be a single message or an array.
func (w *WSClient) dispatch(message []byte) {
	var msgs []WSMessage
	if err := json.Unmarshal(message, &msgs); err != nil {
		var single WSMessage
		if err := json.Unmarshal(message, &single); err != nil {
			return
		}
		msgs = []WSMessage{single}
	}

	w.handlerMu.RLock()
	handlers := w.handlers
	w.handlerMu.RUnlock()

	for _, msg := range msgs {
		switch msg.EventType {
		case "price_change", "last_trade_price":
			if update, ok := msg.ToPriceUpdate(); ok {
				for _, h := range handlers {
					h(update)
				}
			}
		}
	}
}

func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *WSClient) signalDone() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		select {
		case <-w.done:
		default:
			close(w.done)
		}
	}
}
