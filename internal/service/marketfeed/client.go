package marketfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/util"
)

// Writes, including control frames, must land within this window or the
// connection is considered dead.
const writeTimeout = 10 * time.Second

// Client is a QuoteStream over a Finnhub-style trade WebSocket. One
// Connect/Subscribe/Read cycle maps to one connection; after a read
// failure the owner calls Reconnect and Read again for fresh channels.
type Client struct {
	lgr            *applogger.Logger
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates the stream. Symbols are normalized up front so config
// entries match the uppercase ids the feed reports.
func New(lgr *applogger.Logger, apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.QuoteStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	norm := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if id := util.NormalizeID(s); id != "" {
			norm = append(norm, id)
		}
	}
	return &Client{
		lgr:            lgr,
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        norm,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect dials the feed. The API token rides the query string and stays
// out of logs.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("marketfeed connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.lgr.Info("market feed connected", applogger.String("url", c.websocketURL))
	return nil
}

// Subscribe registers every configured symbol on the current connection.
// It runs before the read loop starts, so writes here never race pings.
func (c *Client) Subscribe(_ context.Context) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("marketfeed not connected")
	}
	for _, s := range c.symbols {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": s}); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	c.lgr.Info("market feed subscribed", applogger.Strings("symbols", c.symbols))
	return nil
}

type wsPrint struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsPrint `json:"data"`
}

// Read starts the ping and read loops for the current connection and
// returns their channels. Both channels close when the read loop exits;
// the last read error, if any, arrives on the error channel first.
func (c *Client) Read(ctx context.Context) (<-chan *models.Quote, <-chan error) {
	quotes := make(chan *models.Quote, 1024)
	errs := make(chan error, 1)

	conn := c.current()
	if conn == nil {
		errs <- fmt.Errorf("marketfeed not connected")
		close(quotes)
		close(errs)
		return quotes, errs
	}

	go c.keepAlive(ctx, conn)
	go c.readLoop(ctx, conn, quotes, errs)
	return quotes, errs
}

// keepAlive pings through intermediaries that drop idle connections.
// WriteControl is safe alongside the read loop, so no write lock is
// needed. A failed ping means the connection is going away; the read
// loop reports it.
func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, quotes chan<- *models.Quote, errs chan<- error) {
	defer close(quotes)
	defer close(errs)

	var dropped int64
	for {
		if ctx.Err() != nil {
			return
		}
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("marketfeed read: %w", err)
			}
			return
		}

		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			// ack and status frames pass through unparsed
			continue
		}
		for _, d := range m.Data {
			q := &models.Quote{
				Symbol:    d.S,
				Price:     d.P,
				Volume:    d.V,
				Timestamp: time.UnixMilli(d.T),
			}
			select {
			case quotes <- q:
			default:
				// a slow consumer must not stall the feed
				dropped++
				if dropped%1000 == 1 {
					c.lgr.Warn("market feed dropping quotes",
						applogger.String("symbol", d.S),
						applogger.Int64("dropped", dropped),
					)
				}
			}
		}
	}
}

// Reconnect tears down the current connection, waits out the backoff,
// and dials and resubscribes. The wait respects ctx so shutdown is not
// held up by a dead feed.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}

	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close shuts the current connection. The read loop unblocks with an
// error and drains out.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
