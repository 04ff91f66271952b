package mexc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWSEndpoint is the MEXC spot public WebSocket endpoint.
const DefaultWSEndpoint = "wss://wbs.mexc.com/ws"

// wsPingInterval keeps the connection alive; MEXC drops idle
// connections after 30 seconds.
const wsPingInterval = 20 * time.Second

// Ticker is one live price observation for a trading symbol.
type Ticker struct {
	Symbol string
	Price  float64
	At     time.Time
}

// TickerStream subscribes to the public deal stream for a set of symbols
// and delivers price updates. It is a best-effort live view used by the
// display command; portfolio accounting never depends on it.
type TickerStream struct {
	conn    *websocket.Conn
	updates chan Ticker

	done    chan struct{}
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// wsRequest is a subscription or ping frame.
type wsRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
}

// wsDealMessage is a public deals push message.
type wsDealMessage struct {
	Channel string `json:"c"`
	Symbol  string `json:"s"`
	Data    struct {
		Deals []struct {
			Price string `json:"p"`
			Time  int64  `json:"t"`
		} `json:"deals"`
	} `json:"d"`
}

// DialTickerStream connects to the endpoint and subscribes to the deal
// stream for every symbol.
func DialTickerStream(ctx context.Context, endpoint string, symbols []string) (*TickerStream, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	params := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		params = append(params, "spot@public.deals.v3.api@"+symbol)
	}
	sub := wsRequest{Method: "SUBSCRIPTION", Params: params}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	s := &TickerStream{
		conn:    conn,
		updates: make(chan Ticker, 64),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// Updates returns the channel of price updates. It is closed when the
// stream ends.
func (s *TickerStream) Updates() <-chan Ticker {
	return s.updates
}

// Close terminates the stream and waits for its goroutines.
func (s *TickerStream) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.closeMu.Unlock()

	err := s.conn.Close()
	s.wg.Wait()
	return err
}

// readLoop parses push messages and forwards price updates.
func (s *TickerStream) readLoop() {
	defer s.wg.Done()
	defer close(s.updates)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			// Closed stream or broken connection ends the live view.
			return
		}

		var msg wsDealMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // ack frames and pongs are not deal messages
		}
		if msg.Symbol == "" || len(msg.Data.Deals) == 0 {
			continue
		}

		last := msg.Data.Deals[len(msg.Data.Deals)-1]
		price, err := strconv.ParseFloat(last.Price, 64)
		if err != nil {
			continue
		}

		ticker := Ticker{
			Symbol: msg.Symbol,
			Price:  price,
			At:     time.UnixMilli(last.Time).UTC(),
		}

		select {
		case s.updates <- ticker:
		case <-s.done:
			return
		default:
			// Drop updates rather than block the reader.
		}
	}
}

// pingLoop keeps the connection alive.
func (s *TickerStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.conn.WriteJSON(wsRequest{Method: "PING"}); err != nil {
				return
			}
		}
	}
}
