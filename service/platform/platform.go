package platform

import "context"

// IncomingMessage is one message observed in a channel of the external
// team-chat platform, reduced to the fields the relay routes on.
type IncomingMessage struct {
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
}

// MessageHandler receives channel messages as they arrive on the session.
type MessageHandler func(msg IncomingMessage)

// Session is the single long-lived client session to the external platform.
// One facade object so the bridge never touches the platform SDK directly
// and tests can substitute a fake.
type Session interface {
	// Open establishes the session. The message handler must be registered
	// before Open; events arriving mid-registration would otherwise be lost.
	Open(ctx context.Context) error
	Close() error

	// OwnUserID reports the session's own automated identity, valid after
	// Open. Used to break feedback loops on the bridge's own posts.
	OwnUserID() string

	SendChannelMessage(ctx context.Context, channelID, content string) error
	OnChannelMessage(h MessageHandler)

	// MemberPresence reports whether the given guild member is currently
	// online. An error means the member could not be resolved at all.
	MemberPresence(ctx context.Context, guildID, userID string) (bool, error)
}
