package relay

import (
	"context"
	"time"

	"github.com/aamitn/bitmutex-website-sub000/logger"
	"github.com/aamitn/bitmutex-website-sub000/tools/safe"
)

// TargetAll addresses a reply to every open connection.
const TargetAll = "all"

// AddressedReply is a human reply already resolved to a routing target:
// a specific connection ID or TargetAll.
type AddressedReply struct {
	Target string
	Body   string
}

// Forwarder delivers a visitor's message to the human side. Implemented by
// the messaging-platform bridge; faked in tests.
type Forwarder interface {
	PostVisitorMessage(ctx context.Context, connID string, msg ChatMessage) error
}

// Gateway is the only component that writes to visitor connections. It owns
// the registry, emits live-count updates on every membership change, and
// routes addressed replies back to the right browser.
type Gateway struct {
	reg     *Registry
	fwd     Forwarder
	timeout time.Duration
}

func NewGateway(reg *Registry, fwd Forwarder, forwardTimeout time.Duration) *Gateway {
	return &Gateway{reg: reg, fwd: fwd, timeout: forwardTimeout}
}

// Accept registers a newly-opened connection, starts its forwarder pump and
// broadcasts the updated live count to every open connection, the new one
// included.
func (g *Gateway) Accept(c *Client) {
	count := g.reg.Add(c)
	safe.Go("forward_pump", func() { g.forwardPump(c) })
	logger.Infof("[gateway] connected conn=%s live=%d", c.ID, count)
	g.broadcastLiveCount(count)
}

// OnConnectionClosed deregisters the connection and broadcasts the new count
// to whoever is left. Idempotent on unknown IDs.
func (g *Gateway) OnConnectionClosed(connID string) {
	count, removed := g.reg.Remove(connID)
	if !removed {
		return
	}
	logger.Infof("[gateway] disconnected conn=%s live=%d", connID, count)
	g.broadcastLiveCount(count)
}

// OnVisitorMessage echoes the visitor's own message back to them, then hands
// it to the connection's forwarder pump. Fire-and-forget from the read
// loop's point of view: a forwarding failure is logged only and the visitor
// keeps their optimistic echo.
func (g *Gateway) OnVisitorMessage(connID, text string) {
	msg := ChatMessage{Sender: SenderVisitor, Text: text}

	if c, ok := g.reg.Get(connID); ok {
		c.Enqueue(BuildChatEcho(msg))
		c.EnqueueOutbound(msg)
	}
}

// forwardPump drains one connection's outbox to the bridge, one message at a
// time under a bounded timeout. Single consumer per connection, same
// discipline as the write pump: messages from one visitor never overtake
// each other on the way to the external channel. No ordering is implied
// across different visitors.
func (g *Gateway) forwardPump(c *Client) {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.Outbox:
			ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
			err := g.fwd.PostVisitorMessage(ctx, c.ID, msg)
			cancel()
			if err != nil {
				logger.Warnf("[gateway] forward failed conn=%s err=%v", c.ID, err)
			}
		}
	}
}

// DeliverReply routes a human reply: TargetAll fans out to every open
// connection exactly once, anything else goes to that connection only.
// A target that is no longer open is a silent no-op (the visitor may have
// navigated away).
func (g *Gateway) DeliverReply(r AddressedReply) {
	payload := BuildAdminMessage(ChatMessage{Sender: SenderAdmin, Text: r.Body})
	if r.Target == TargetAll {
		for _, c := range g.reg.List() {
			c.Enqueue(payload)
		}
		return
	}
	if c, ok := g.reg.Get(r.Target); ok {
		c.Enqueue(payload)
	}
}

// DeliverSystem sends a canned system notice to one visitor (the "operator
// is offline" path).
func (g *Gateway) DeliverSystem(connID, text string) {
	if c, ok := g.reg.Get(connID); ok {
		c.Enqueue(BuildAdminMessage(ChatMessage{Sender: SenderSystem, Text: text}))
	}
}

// Live reports the current visitor count.
func (g *Gateway) Live() int {
	return g.reg.Live()
}

func (g *Gateway) broadcastLiveCount(count int) {
	payload := BuildLiveCount(count)
	for _, c := range g.reg.List() {
		c.Enqueue(payload)
	}
}
