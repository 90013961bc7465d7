package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aamitn/bitmutex-website-sub000/global/config"
	"github.com/aamitn/bitmutex-website-sub000/logger"
	"github.com/aamitn/bitmutex-website-sub000/service/bridge"
	"github.com/aamitn/bitmutex-website-sub000/service/platform"
	"github.com/aamitn/bitmutex-website-sub000/service/relay"
	"github.com/aamitn/bitmutex-website-sub000/tools/ids"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("startup: %v", err)
		os.Exit(1)
	}

	ids.SetNodeID(int64(cfg.NodeID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := platform.NewDiscord(cfg.BotToken)
	if err != nil {
		logger.Errorf("startup: %v", err)
		os.Exit(1)
	}

	oracle := bridge.NewOracle(sess, cfg.GuildID, cfg.PlatformTimeout)
	handoff := bridge.NewHandoff[bridge.GatewayHandle]()
	br := bridge.New(sess, oracle, handoff, bridge.Options{
		ChannelID:     cfg.ChannelID,
		OperatorID:    cfg.OperatorID,
		OfflineNotice: cfg.OfflineNotice,
		Timeout:       cfg.PlatformTimeout,
	})

	// The bridge comes up first; replies arriving before the gateway is
	// resolved into the handoff are dropped with a warning.
	if err := br.Start(ctx); err != nil {
		logger.Errorf("startup: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := br.Close(); err != nil {
			logger.Warnf("shutdown: close bridge: %v", err)
		}
	}()

	gw := relay.NewGateway(relay.NewRegistry(), br, cfg.PlatformTimeout)
	handoff.Resolve(gw)

	srv := relay.NewServer(cfg, gw)
	if err := srv.Run(ctx); err != nil {
		logger.Errorf("server: %v", err)
		os.Exit(1)
	}
}
