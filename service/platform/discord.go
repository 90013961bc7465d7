package platform

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/aamitn/bitmutex-website-sub000/logger"
)

// Discord implements Session over a discordgo gateway connection.
type Discord struct {
	sess    *discordgo.Session
	handler MessageHandler
}

func NewDiscord(botToken string) (*Discord, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, errors.Wrap(err, "discord session")
	}
	// Presence lookups go through state tracking; message content needs its
	// own privileged intent.
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildPresences |
		discordgo.IntentMessageContent
	return &Discord{sess: s}, nil
}

func (d *Discord) OnChannelMessage(h MessageHandler) {
	d.handler = h
}

func (d *Discord) Open(ctx context.Context) error {
	d.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if d.handler == nil || m.Author == nil {
			return
		}
		d.handler(IncomingMessage{
			ChannelID: m.ChannelID,
			AuthorID:  m.Author.ID,
			AuthorBot: m.Author.Bot,
			Content:   m.Content,
		})
	})
	if err := d.sess.Open(); err != nil {
		return errors.Wrap(err, "discord open")
	}
	logger.Infof("[discord] session open as user=%s", d.OwnUserID())
	return nil
}

func (d *Discord) Close() error {
	return d.sess.Close()
}

func (d *Discord) OwnUserID() string {
	if d.sess.State != nil && d.sess.State.User != nil {
		return d.sess.State.User.ID
	}
	return ""
}

func (d *Discord) SendChannelMessage(ctx context.Context, channelID, content string) error {
	_, err := d.sess.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return errors.Wrap(err, "channel message send")
}

// MemberPresence resolves presence from gateway state. A member that exists
// but has no tracked presence is offline; a member that cannot be resolved
// at all is an error (the caller treats that as offline too).
func (d *Discord) MemberPresence(ctx context.Context, guildID, userID string) (bool, error) {
	p, err := d.sess.State.Presence(guildID, userID)
	if err == nil {
		return p.Status != discordgo.StatusOffline, nil
	}

	// No presence in state: distinguish "offline member" from "not a member".
	if _, merr := d.sess.GuildMember(guildID, userID, discordgo.WithContext(ctx)); merr != nil {
		return false, errors.Wrapf(merr, "member lookup guild=%s user=%s", guildID, userID)
	}
	return false, nil
}
