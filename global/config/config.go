package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// AppConfig is the full runtime configuration of the relay node. Everything
// comes from the environment (prefix RELAY_); there is no config file to
// ship alongside the website deployment.
type AppConfig struct {
	// External platform credentials and addressing. All four are required:
	// without them the bridge cannot post or route anything, so startup
	// fails instead of limping along.
	BotToken   string
	GuildID    string
	ChannelID  string
	OperatorID string

	// HTTP/WebSocket surface.
	ListenAddr     string
	AllowedOrigins []string

	// Per-connection outbound queue depth. A visitor whose queue is full
	// drops frames rather than stalling the fan-out path.
	SendQueue int

	// Upper bound on any single call that crosses to the external platform
	// (post, presence lookup).
	PlatformTimeout time.Duration

	// Canned system message delivered to a visitor when the designated
	// operator is offline at the moment their message is posted.
	OfflineNotice string

	// Node component of generated connection IDs (0~1023). Only matters if
	// more than one relay instance ever posts into the same channel.
	NodeID int
}

const (
	defaultListenAddr      = ":8080"
	defaultSendQueue       = 64
	defaultPlatformTimeout = 10 * time.Second
	defaultOfflineNotice   = "Our team is currently offline. Leave your message and contact details and we will get back to you."
)

// Load reads the RELAY_* environment and validates it. Any missing required
// key is a startup error listing everything that is absent.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", defaultListenAddr)
	v.SetDefault("send_queue", defaultSendQueue)
	v.SetDefault("platform_timeout", defaultPlatformTimeout)
	v.SetDefault("offline_notice", defaultOfflineNotice)
	v.SetDefault("allowed_origins", "")
	v.SetDefault("node_id", 1)

	cfg := &AppConfig{
		BotToken:        v.GetString("bot_token"),
		GuildID:         v.GetString("guild_id"),
		ChannelID:       v.GetString("channel_id"),
		OperatorID:      v.GetString("operator_id"),
		ListenAddr:      v.GetString("listen_addr"),
		SendQueue:       v.GetInt("send_queue"),
		PlatformTimeout: v.GetDuration("platform_timeout"),
		OfflineNotice:   v.GetString("offline_notice"),
		NodeID:          v.GetInt("node_id"),
	}
	if raw := v.GetString("allowed_origins"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, "RELAY_BOT_TOKEN")
	}
	if c.GuildID == "" {
		missing = append(missing, "RELAY_GUILD_ID")
	}
	if c.ChannelID == "" {
		missing = append(missing, "RELAY_CHANNEL_ID")
	}
	if c.OperatorID == "" {
		missing = append(missing, "RELAY_OPERATOR_ID")
	}
	if len(missing) > 0 {
		return errors.Errorf("config: missing required environment: %s", strings.Join(missing, ", "))
	}
	if c.SendQueue <= 0 {
		c.SendQueue = defaultSendQueue
	}
	if c.PlatformTimeout <= 0 {
		c.PlatformTimeout = defaultPlatformTimeout
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return errors.Errorf("config: RELAY_NODE_ID out of range (0~1023): %d", c.NodeID)
	}
	return nil
}
