package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/services"
	"github.com/Phoenix-070/Edutranscribe/internal/workers"
)

// StatusFeed delivers the status payloads published for one channel. The
// subscription must be live when Subscribe returns.
type StatusFeed interface {
	Subscribe(ctx context.Context, channel string) (msgs <-chan string, closeFn func() error, err error)
}

type redisFeed struct{ rdb *redis.Client }

func NewRedisStatusFeed(rdb *redis.Client) StatusFeed {
	return redisFeed{rdb: rdb}
}

func (f redisFeed) Subscribe(ctx context.Context, channel string) (<-chan string, func() error, error) {
	ps := f.rdb.Subscribe(ctx, channel)
	// wait for the subscription confirmation
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}
	out := make(chan string)
	go func() {
		defer close(out)
		for m := range ps.Channel() {
			select {
			case out <- m.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, ps.Close, nil
}

// WSHandler streams indexing status for one document to a websocket client.
type WSHandler struct {
	papers   services.PaperService
	feed     StatusFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(papers services.PaperService, feed StatusFeed, checkOrigin func(r *http.Request) bool) *WSHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WSHandler{
		papers:   papers,
		feed:     feed,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) PaperStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	// authorize document ownership before upgrading
	pdfID := c.Param("pdf_id")
	if _, err := h.papers.Get(c.Request.Context(), userID, pdfID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	msgs, closeFeed, err := h.feed.Subscribe(ctx, workers.StatusChannel(pdfID))
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "status feed unavailable"), time.Now().Add(time.Second))
		return
	}
	defer closeFeed()

	// read the status only once subscribed, so a final event published in
	// between is either in this snapshot or on the feed
	doc, err := h.papers.Get(ctx, userID, pdfID)
	if err != nil {
		return
	}
	first, _ := json.Marshal(models.IndexStatus{PdfID: doc.PdfID, Status: doc.Status, Chunks: doc.ChunkCount, Error: doc.Error, At: time.Now().UTC()})
	if err := wc.writeText(first); err != nil {
		return
	}
	if doc.Status != models.DocumentProcessing {
		return
	}

	// reader: only control frames and close are expected
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			wc.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			wc.mu.Unlock()
			if err != nil {
				return
			}
		case payload, ok := <-msgs:
			if !ok {
				return
			}
			if err := wc.writeText([]byte(payload)); err != nil {
				return
			}
			var st models.IndexStatus
			if json.Unmarshal([]byte(payload), &st) == nil && st.Status != models.DocumentProcessing {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(st.Status)), time.Now().Add(time.Second))
				return
			}
		}
	}
}
