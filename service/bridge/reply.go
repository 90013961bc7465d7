package bridge

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aamitn/bitmutex-website-sub000/service/relay"
)

// Addressing convention on the human side. Outbound, every visitor line
// carries its connection ID as a parseable suffix:
//
//	**visitor**: hello there *(wsid:748508987506704384)*
//
// Inbound, a routable reply must begin with the target prefix:
//
//	@wsid:748508987506704384 Thanks for reaching out
//	@wsid:all Maintenance tonight
//
// Anything else in the channel is ordinary chatter and is not a reply.

var replyRe = regexp.MustCompile(`(?s)^@wsid:(\S+)\s+(.+)$`)

// ParseReply matches text against the addressing convention. ok is false for
// anything that is not a routable reply; that is the common case and not an
// error.
func ParseReply(text string) (relay.AddressedReply, bool) {
	m := replyRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return relay.AddressedReply{}, false
	}
	body := strings.TrimSpace(m[2])
	if body == "" {
		return relay.AddressedReply{}, false
	}
	return relay.AddressedReply{Target: m[1], Body: body}, true
}

// MissedMarker flags a post whose visitor got no live operator, so humans
// scanning the channel later can see it went unanswered in real time.
const MissedMarker = "[missed message]"

// ComposeVisitorLine renders a visitor message for the external channel,
// embedding the connection ID suffix and, when the designated operator was
// offline at post time, the missed-message marker.
func ComposeVisitorLine(connID string, msg relay.ChatMessage, missed bool) string {
	line := fmt.Sprintf("**%s**: %s *(wsid:%s)*", msg.Sender, msg.Text, connID)
	if missed {
		line += " " + MissedMarker
	}
	return line
}
