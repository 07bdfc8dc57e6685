package handler

import (
    "context"
    "log/slog"
    "net/http"
    "time"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/availability"
    "github.com/iliyamo/cafe-table-reservation/internal/logging"
    "github.com/iliyamo/cafe-table-reservation/internal/store"
)

const (
    wsWriteWait  = 10 * time.Second
    wsPongWait   = 60 * time.Second
    wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
    CheckOrigin:     func(r *http.Request) bool { return true },
}

// TableFeedHandler streams live table availability over a websocket.
type TableFeedHandler struct {
    Feed  *availability.Feed
    Cafes store.CafeStore
    Log   *slog.Logger
}

func NewTableFeedHandler(feed *availability.Feed, cafes store.CafeStore, log *slog.Logger) *TableFeedHandler {
    return &TableFeedHandler{Feed: feed, Cafes: cafes, Log: logging.OrDiscard(log)}
}

// feedFrame is one message on the table feed.  Type is "snapshot" or
// "error"; an error frame is always the last one before close.
type feedFrame struct {
    Type       string `json:"type"`
    PublicTables
    ReceivedAt time.Time `json:"receivedAt,omitempty"`
    Message    string    `json:"message,omitempty"`
}

// Stream handles GET /v1/cafes/:id/tables/ws.  Every snapshot of the cafe
// is pushed as a JSON frame; frames the client is too slow to read are
// skipped in favour of the newest one.
func (h *TableFeedHandler) Stream(c echo.Context) error {
    cafeID := c.Param("id")
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    _, err := h.Cafes.GetCafe(ctx, cafeID)
    cancel()
    if err != nil {
        return respondError(c, "get cafe", err)
    }

    conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        // Upgrade has already written the HTTP error.
        return nil
    }
    defer conn.Close()

    streamCtx, stop := context.WithCancel(context.Background())
    defer stop()
    sub := h.Feed.Subscribe(streamCtx, cafeID)
    defer sub.Close()

    go readPump(conn, stop)

    log := h.Log.With("cafe_id", cafeID, "remote", c.RealIP())
    log.Debug("table feed opened")
    writeTableFrames(streamCtx, conn, sub, log)
    log.Debug("table feed closed")
    return nil
}

// readPump drains client frames so control messages are processed and
// cancels the stream once the peer goes away.
func readPump(conn *websocket.Conn, stop context.CancelFunc) {
    defer stop()
    conn.SetReadLimit(512)
    _ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
    conn.SetPongHandler(func(string) error {
        return conn.SetReadDeadline(time.Now().Add(wsPongWait))
    })
    for {
        if _, _, err := conn.ReadMessage(); err != nil {
            return
        }
    }
}

func writeTableFrames(ctx context.Context, conn *websocket.Conn, sub *availability.Subscription, log *slog.Logger) {
    ticker := time.NewTicker(wsPingPeriod)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case snap, ok := <-sub.Updates():
            if !ok {
                msg := "feed closed"
                if err := sub.Err(); err != nil {
                    msg = err.Error()
                }
                _ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
                _ = conn.WriteJSON(feedFrame{Type: "error", Message: msg})
                _ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "feed closed"))
                return
            }
            _ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
            if err := conn.WriteJSON(feedFrame{Type: "snapshot", PublicTables: tablesView(snap), ReceivedAt: snap.ReceivedAt}); err != nil {
                if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
                    log.Warn("table feed write failed", "err", err)
                }
                return
            }
        case <-ticker.C:
            _ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
            if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }
        }
    }
}
