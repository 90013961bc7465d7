package bridge

import (
	"context"
	"time"

	"github.com/aamitn/bitmutex-website-sub000/logger"
	"github.com/aamitn/bitmutex-website-sub000/service/platform"
)

// Oracle answers "is this human currently reachable?" as a point-in-time
// query against the external platform. Nothing is cached between queries.
type Oracle struct {
	sess    platform.Session
	guildID string
	timeout time.Duration
}

func NewOracle(sess platform.Session, guildID string, timeout time.Duration) *Oracle {
	return &Oracle{sess: sess, guildID: guildID, timeout: timeout}
}

// IsOnline resolves the user's current status. Absence of information — the
// user is not a member, the lookup failed, the call timed out — is treated
// as offline, never as an error that blocks the caller.
func (o *Oracle) IsOnline(ctx context.Context, userID string) bool {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	online, err := o.sess.MemberPresence(ctx, o.guildID, userID)
	if err != nil {
		logger.Debugf("[presence] lookup failed user=%s err=%v", userID, err)
		return false
	}
	return online
}
