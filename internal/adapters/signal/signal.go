package signal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/consiliumhq/signaling/internal/app"
	"github.com/consiliumhq/signaling/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the websocket side of the signaling contract: handshake
// authentication, pumps, payload validation and dispatch into the
// coordinator.
type Controller struct {
	Coord      *app.Coordinator
	Verifier   app.IdentityVerifier
	Limiter    *JoinRateLimiter
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(coord *app.Coordinator, verifier app.IdentityVerifier, limiter *JoinRateLimiter, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{Coord: coord, Verifier: verifier, Limiter: limiter, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops intake and closes the send channel. The websocket itself is
// closed by the writePump once every queued frame has been written, so a
// notice enqueued just before Close still reaches the client.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// bearerCredential pulls the handshake credential from the token query
// parameter or the Authorization header.
func bearerCredential(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return rest
	}
	return ""
}

// HandleSignal authenticates the handshake, upgrades and starts the pumps.
// A missing or invalid credential is fatal: the connection is refused before
// any signaling happens.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	identity, err := ctl.Verifier.Verify(bearerCredential(c))
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("handshake auth failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	id := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(id)).
		Str("participant", string(identity.ID)).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Coord.Connect(app.NewPeer(id, identity, conn, cancel))

	go ctl.writePump(conn)
	go ctl.readPump(ctx, id, conn)
}

const (
	writeDeadline     = 5 * time.Second
	defaultPingPeriod = 54 * time.Second
)
