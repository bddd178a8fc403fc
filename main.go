package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/moyoez/qrsend/api"
	"github.com/moyoez/qrsend/api/models"
	"github.com/moyoez/qrsend/api/notifyhub"
	"github.com/moyoez/qrsend/directory"
	"github.com/moyoez/qrsend/intake"
	"github.com/moyoez/qrsend/notify"
	"github.com/moyoez/qrsend/share"
	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/transfer"
	"github.com/moyoez/qrsend/types"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	lockPath, err := tool.DefaultLockPath()
	if err != nil {
		tool.DefaultLogger.Fatalf("Failed to locate lock file: %v", err)
	}
	lock, err := tool.AcquireInstanceLock(lockPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			tool.DefaultLogger.Warnf("Failed to release lock: %v", err)
		}
	}()

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	if cfg.UseAlias != "" {
		appCfg.Alias = cfg.UseAlias
	}
	if cfg.UsePort > 0 {
		appCfg.Port = cfg.UsePort
	}
	if cfg.UsePin != "" {
		appCfg.Pin = cfg.UsePin
	}
	if cfg.PollInterval > 0 {
		appCfg.PollIntervalMs = cfg.PollInterval
	}
	if cfg.SkipNotify {
		notify.SetUseNotify(false)
	}

	models.SetSelfDevice(&types.VersionMessage{
		Alias:       appCfg.Alias,
		Version:     appCfg.Version,
		DeviceModel: appCfg.DeviceModel,
		DeviceType:  appCfg.DeviceType,
		Fingerprint: appCfg.Fingerprint,
		Port:        appCfg.Port,
		Protocol:    appCfg.Protocol,
		Download:    true,
	})
	models.SetShareSessionTTL(time.Duration(appCfg.ShareTTLSeconds) * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := directory.NewStore(directory.XDGResolver{}, directory.ConfigPersister{})
	if cfg.UseDownloadDir != "" {
		if err := directory.ValidateDirectory(cfg.UseDownloadDir); err != nil {
			tool.DefaultLogger.Fatalf("%v", err)
		}
		store.Override(cfg.UseDownloadDir)
	}
	if dir, err := store.Get(ctx); err == nil {
		tool.DefaultLogger.Infof("Received files are saved to %s", dir)
	} else {
		tool.DefaultLogger.Warnf("Download directory unavailable: %v", err)
	}

	hub := notifyhub.New()
	notify.SetHub(hub)

	dispatcher := intake.NewDispatcher()
	sender := transfer.New(transfer.Options{
		Resolver: tool.LocalMetadataResolver{},
		Issuer:   share.NewIssuer(appCfg.Protocol, appCfg.Port, appCfg.Pin),
		Checker:  share.Checker{},
		Source:   dispatcher,
		Interval: time.Duration(appCfg.PollIntervalMs) * time.Millisecond,
		Notify:   publishNotification,
	})
	if err := sender.Start(ctx); err != nil {
		tool.DefaultLogger.Fatalf("Failed to start sender: %v", err)
	}

	apiServer := api.NewServer(appCfg.Port, appCfg.Protocol, api.Deps{
		Sender:     sender,
		Drops:      dispatcher,
		Directory:  store,
		Hub:        hub,
		ReceivePin: appCfg.Pin,
		RateLimit:  appCfg.RateLimit,
	})
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	if paths := tool.SplitPaths(cfg.Send); len(paths) > 0 {
		if _, err := sender.Register(ctx, paths); err != nil {
			tool.DefaultLogger.Errorf("Failed to register %v: %v", paths, err)
		} else if _, err := sender.CreateSession(ctx); err != nil {
			tool.DefaultLogger.Errorf("Failed to create share session: %v", err)
		}
	}

	<-ctx.Done()
	tool.DefaultLogger.Info("Shutting down")
	sender.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		tool.DefaultLogger.Errorf("Server shutdown failed: %v", err)
	}
}

// publishNotification forwards sender events and prints the link of a new session as a terminal QR code.
func publishNotification(n *types.Notification) {
	if n.Type == types.NotifyTypeSessionCreated {
		if payload, ok := n.Data["payload"].(string); ok {
			printQRCode(payload)
		}
		if files, ok := n.Data["files"].([]types.RegisteredFile); ok {
			fmt.Println(tool.RenderFileTable(files))
		}
	}
	notify.Publish(n)
}

func printQRCode(payload string) {
	q, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		tool.DefaultLogger.Warnf("Failed to render QR code: %v", err)
		return
	}
	fmt.Println(q.ToSmallString(false))
	fmt.Println(payload)
}
