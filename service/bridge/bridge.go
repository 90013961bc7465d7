package bridge

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/aamitn/bitmutex-website-sub000/logger"
	"github.com/aamitn/bitmutex-website-sub000/service/platform"
	"github.com/aamitn/bitmutex-website-sub000/service/relay"
)

// GatewayHandle is the slice of the relay gateway the bridge needs: routing
// replies back to visitors and delivering system notices. Obtained through
// the one-shot Handoff because the bridge starts before the gateway exists.
type GatewayHandle interface {
	DeliverReply(r relay.AddressedReply)
	DeliverSystem(connID, text string)
}

// Options carries the bridge's slice of the app configuration.
type Options struct {
	ChannelID     string
	OperatorID    string
	OfflineNotice string
	Timeout       time.Duration
}

// Bridge owns the single long-lived session to the external team-chat
// platform. It posts visitor messages into the fixed channel and routes
// @wsid-addressed human replies back through the gateway.
type Bridge struct {
	sess   platform.Session
	oracle *Oracle
	gw     *Handoff[GatewayHandle]
	opts   Options
}

func New(sess platform.Session, oracle *Oracle, gw *Handoff[GatewayHandle], opts Options) *Bridge {
	return &Bridge{sess: sess, oracle: oracle, gw: gw, opts: opts}
}

// Start registers the channel listener and opens the platform session.
// An open failure is a startup error; everything after Start is best-effort.
func (b *Bridge) Start(ctx context.Context) error {
	b.sess.OnChannelMessage(b.HandleChannelMessage)
	if err := b.sess.Open(ctx); err != nil {
		return errors.Wrap(err, "bridge start")
	}
	logger.Infof("[bridge] session open, relaying channel=%s", b.opts.ChannelID)
	return nil
}

func (b *Bridge) Close() error {
	return b.sess.Close()
}

// PostVisitorMessage posts one visitor line into the external channel.
// The post always happens; the designated operator's presence only decides
// whether the line carries the missed-message marker and whether the visitor
// gets the proactive offline notice.
func (b *Bridge) PostVisitorMessage(ctx context.Context, connID string, msg relay.ChatMessage) error {
	missed := !b.oracle.IsOnline(ctx, b.opts.OperatorID)
	if missed {
		b.notifyVisitorOffline(connID)
	}

	line := ComposeVisitorLine(connID, msg, missed)
	sendCtx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()
	if err := b.sess.SendChannelMessage(sendCtx, b.opts.ChannelID, line); err != nil {
		return errors.Wrapf(err, "post visitor message conn=%s", connID)
	}
	return nil
}

// HandleChannelMessage processes one message observed on the platform
// session: drop our own automated identity and anything outside the relay
// channel, then try the addressing convention. Non-matching content is
// ordinary chatter and ignored without logging.
func (b *Bridge) HandleChannelMessage(msg platform.IncomingMessage) {
	if msg.AuthorBot || msg.AuthorID == b.sess.OwnUserID() {
		return
	}
	if msg.ChannelID != b.opts.ChannelID {
		return
	}

	reply, ok := ParseReply(msg.Content)
	if !ok {
		return
	}

	// The replying human may have gone idle since typing; never suppress a
	// reply that was already written, presence here is informational only.
	if !b.oracle.IsOnline(context.Background(), msg.AuthorID) {
		logger.Debugf("[bridge] replier %s appears offline, routing reply anyway", msg.AuthorID)
	}

	gw, ready := b.gw.Get()
	if !ready {
		logger.Warnf("[bridge] gateway not ready, dropping reply target=%s", reply.Target)
		return
	}
	gw.DeliverReply(reply)
}

func (b *Bridge) notifyVisitorOffline(connID string) {
	gw, ready := b.gw.Get()
	if !ready {
		logger.Warnf("[bridge] gateway not ready, dropping offline notice conn=%s", connID)
		return
	}
	gw.DeliverSystem(connID, b.opts.OfflineNotice)
}
