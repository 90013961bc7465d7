package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/aamitn/bitmutex-website-sub000/service/platform"
	"github.com/aamitn/bitmutex-website-sub000/service/relay"
)

// fakeSession is an in-memory platform.Session.
type fakeSession struct {
	mu       sync.Mutex
	sent     []string
	sendErr  error
	handler  platform.MessageHandler
	presence map[string]bool
	ownID    string
	opened   bool
	closed   bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{ownID: "bot-1", presence: map[string]bool{}}
}

func (f *fakeSession) Open(context.Context) error { f.opened = true; return nil }
func (f *fakeSession) Close() error               { f.closed = true; return nil }
func (f *fakeSession) OwnUserID() string          { return f.ownID }

func (f *fakeSession) SendChannelMessage(_ context.Context, _, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, content)
	return nil
}

func (f *fakeSession) OnChannelMessage(h platform.MessageHandler) { f.handler = h }

func (f *fakeSession) MemberPresence(_ context.Context, _, userID string) (bool, error) {
	online, ok := f.presence[userID]
	if !ok {
		return false, errors.New("unknown member")
	}
	return online, nil
}

func (f *fakeSession) sentLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// fakeGateway records deliveries from the bridge.
type fakeGateway struct {
	mu      sync.Mutex
	replies []relay.AddressedReply
	notices []string // connID
}

func (g *fakeGateway) DeliverReply(r relay.AddressedReply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, r)
}

func (g *fakeGateway) DeliverSystem(connID, _ string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notices = append(g.notices, connID)
}

const (
	testChannel  = "chan-1"
	testOperator = "op-1"
)

func newTestBridge(sess *fakeSession) (*Bridge, *Handoff[GatewayHandle]) {
	oracle := NewOracle(sess, "guild-1", time.Second)
	h := NewHandoff[GatewayHandle]()
	b := New(sess, oracle, h, Options{
		ChannelID:     testChannel,
		OperatorID:    testOperator,
		OfflineNotice: "nobody is watching right now",
		Timeout:       time.Second,
	})
	return b, h
}

func TestPostVisitorMessageOperatorOnline(t *testing.T) {
	sess := newFakeSession()
	sess.presence[testOperator] = true
	b, h := newTestBridge(sess)
	gw := &fakeGateway{}
	h.Resolve(gw)

	msg := relay.ChatMessage{Sender: relay.SenderVisitor, Text: "hello"}
	require.NoError(t, b.PostVisitorMessage(context.Background(), "v1", msg))

	lines := sess.sentLines()
	require.Len(t, lines, 1)
	require.Equal(t, "**visitor**: hello *(wsid:v1)*", lines[0])
	require.Empty(t, gw.notices)
}

func TestPostVisitorMessageOperatorOffline(t *testing.T) {
	sess := newFakeSession()
	sess.presence[testOperator] = false
	b, h := newTestBridge(sess)
	gw := &fakeGateway{}
	h.Resolve(gw)

	msg := relay.ChatMessage{Sender: relay.SenderVisitor, Text: "hello"}
	require.NoError(t, b.PostVisitorMessage(context.Background(), "v1", msg))

	// The post still happens, annotated; the visitor gets the canned notice.
	lines := sess.sentLines()
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], MissedMarker)
	require.Contains(t, lines[0], "wsid:v1")
	require.Equal(t, []string{"v1"}, gw.notices)
}

func TestPostVisitorMessageUnresolvableOperator(t *testing.T) {
	// Operator not in the presence map at all: lookup error counts as
	// offline, not as a failure of the post.
	sess := newFakeSession()
	b, h := newTestBridge(sess)
	gw := &fakeGateway{}
	h.Resolve(gw)

	msg := relay.ChatMessage{Sender: relay.SenderVisitor, Text: "hi"}
	require.NoError(t, b.PostVisitorMessage(context.Background(), "v1", msg))
	require.Contains(t, sess.sentLines()[0], MissedMarker)
}

func TestPostVisitorMessageSendFailure(t *testing.T) {
	sess := newFakeSession()
	sess.presence[testOperator] = true
	sess.sendErr = errors.New("network down")
	b, h := newTestBridge(sess)
	h.Resolve(&fakeGateway{})

	msg := relay.ChatMessage{Sender: relay.SenderVisitor, Text: "hello"}
	err := b.PostVisitorMessage(context.Background(), "v1", msg)
	require.Error(t, err)
	require.Empty(t, sess.sentLines())
}

func TestHandleChannelMessageRoutesReply(t *testing.T) {
	sess := newFakeSession()
	sess.presence["human-1"] = true
	b, h := newTestBridge(sess)
	gw := &fakeGateway{}
	h.Resolve(gw)

	b.HandleChannelMessage(platform.IncomingMessage{
		ChannelID: testChannel,
		AuthorID:  "human-1",
		Content:   "@wsid:v1 Thanks for reaching out",
	})

	require.Equal(t, []relay.AddressedReply{{Target: "v1", Body: "Thanks for reaching out"}}, gw.replies)
}

func TestHandleChannelMessageOfflineReplierStillRouted(t *testing.T) {
	sess := newFakeSession()
	sess.presence["human-1"] = false
	b, h := newTestBridge(sess)
	gw := &fakeGateway{}
	h.Resolve(gw)

	b.HandleChannelMessage(platform.IncomingMessage{
		ChannelID: testChannel,
		AuthorID:  "human-1",
		Content:   "@wsid:all typed it then went idle",
	})

	require.Len(t, gw.replies, 1, "a typed reply is delivered even if the replier went idle")
}

func TestHandleChannelMessageFilters(t *testing.T) {
	sess := newFakeSession()
	b, h := newTestBridge(sess)
	gw := &fakeGateway{}
	h.Resolve(gw)

	// Own automated identity: feedback loop guard.
	b.HandleChannelMessage(platform.IncomingMessage{
		ChannelID: testChannel, AuthorID: sess.ownID, Content: "@wsid:v1 echo",
	})
	// Another bot.
	b.HandleChannelMessage(platform.IncomingMessage{
		ChannelID: testChannel, AuthorID: "other-bot", AuthorBot: true, Content: "@wsid:v1 beep",
	})
	// Wrong channel.
	b.HandleChannelMessage(platform.IncomingMessage{
		ChannelID: "random-chan", AuthorID: "human-1", Content: "@wsid:v1 hi",
	})
	// Ordinary chatter.
	b.HandleChannelMessage(platform.IncomingMessage{
		ChannelID: testChannel, AuthorID: "human-1", Content: "lunch?",
	})

	require.Empty(t, gw.replies)
	require.Empty(t, gw.notices)
}

func TestHandleChannelMessageBeforeGatewayReady(t *testing.T) {
	sess := newFakeSession()
	sess.presence["human-1"] = true
	b, h := newTestBridge(sess)

	// Reply arrives in the startup window before the gateway resolves:
	// dropped, not queued.
	b.HandleChannelMessage(platform.IncomingMessage{
		ChannelID: testChannel,
		AuthorID:  "human-1",
		Content:   "@wsid:v1 too early",
	})

	gw := &fakeGateway{}
	h.Resolve(gw)
	require.Empty(t, gw.replies, "pre-ready replies must not be replayed")
}

func TestOfflineNoticeBeforeGatewayReady(t *testing.T) {
	sess := newFakeSession()
	b, _ := newTestBridge(sess)

	msg := relay.ChatMessage{Sender: relay.SenderVisitor, Text: "hi"}
	require.NoError(t, b.PostVisitorMessage(context.Background(), "v1", msg))
	// Notice dropped with a warning, post still goes out.
	require.Len(t, sess.sentLines(), 1)
}

func TestStartRegistersHandlerBeforeOpen(t *testing.T) {
	sess := newFakeSession()
	b, _ := newTestBridge(sess)

	require.NoError(t, b.Start(context.Background()))
	require.True(t, sess.opened)
	require.NotNil(t, sess.handler, "listener must be attached before the session opens")

	require.NoError(t, b.Close())
	require.True(t, sess.closed)
}
