package feed

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ayush/nebula-feed/internal/models"
)

const (
	defaultQueueSize    = 32
	defaultWriteTimeout = 5 * time.Second
)

// subscriber is one connected stream client. send is never closed so a
// concurrent Publish cannot panic; done signals the writer to stop.
type subscriber struct {
	send      chan models.PostView
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Stream fans newly created posts out to WebSocket subscribers.
type Stream struct {
	log            *slog.Logger
	queueSize      int
	writeTimeout   time.Duration
	originPatterns []string

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewStream builds a stream hub. allowedOrigins is the CORS allow-list; the
// hosts it names are accepted as WebSocket origins.
func NewStream(log *slog.Logger, allowedOrigins []string, queueSize int) *Stream {
	if log == nil {
		log = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Stream{
		log:            log,
		queueSize:      queueSize,
		writeTimeout:   defaultWriteTimeout,
		originPatterns: originPatterns(allowedOrigins),
		subs:           make(map[*subscriber]struct{}),
	}
}

func (s *Stream) subscribe() *subscriber {
	sub := &subscriber{
		send: make(chan models.PostView, s.queueSize),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *Stream) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
	sub.close()
}

// Publish never blocks. A subscriber whose queue is full is dropped.
func (s *Stream) Publish(p models.PostView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		select {
		case sub.send <- p:
		default:
			delete(s.subs, sub)
			sub.close()
			s.log.Info("feed.stream.drop_slow", "post_id", p.ID)
		}
	}
}

// Subscribers reports the number of connected clients.
func (s *Stream) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// ServeHTTP upgrades the request and pushes each published post as a JSON
// text frame until the client goes away or falls behind.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		s.log.Info("feed.stream.accept_failed", "err", err, "origin", r.Header.Get("Origin"))
		return
	}

	// Clients never send anything; CloseRead handles control frames and
	// cancels ctx when the peer disconnects.
	ctx := conn.CloseRead(r.Context())

	sub := s.subscribe()
	defer s.unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-sub.done:
			_ = conn.Close(websocket.StatusPolicyViolation, "subscriber too slow")
			return
		case p := <-sub.send:
			if err := s.write(ctx, conn, p); err != nil {
				s.log.Info("feed.stream.write_failed", "err", err, "close_status", websocket.CloseStatus(err))
				_ = conn.Close(websocket.StatusAbnormalClosure, "write failed")
				return
			}
		}
	}
}

func (s *Stream) write(parent context.Context, conn *websocket.Conn, p models.PostView) error {
	ctx, cancel := context.WithTimeout(parent, s.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, p)
}

// originPatterns reduces allowed origins to the host patterns
// websocket.Accept matches against.
func originPatterns(allowed []string) []string {
	seen := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "" || a == "*" {
			continue
		}
		host := a
		if u, err := url.Parse(a); err == nil && u.Host != "" {
			host = u.Host
		}
		seen[strings.ToLower(host)] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
