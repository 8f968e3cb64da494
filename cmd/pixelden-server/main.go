// Command pixelden-server runs the authoritative room server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/catalog"
	"github.com/lixenwraith/pixelden/config"
	"github.com/lixenwraith/pixelden/server"
	"github.com/lixenwraith/pixelden/store"
	"github.com/lixenwraith/pixelden/world"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (omit for built-in defaults)")
	devLog := flag.Bool("dev", false, "human-readable logging")
	flag.Parse()

	var log *zap.Logger
	var err error
	if *devLog {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal("config load failed", zap.Error(err))
		}
	}

	// Catalog load failures are fatal: the simulation cannot run without
	// furniture definitions.
	furniDefs, err := loadFurnitureCatalog(cfg)
	if err != nil {
		log.Fatal("furniture catalog load failed", zap.Error(err))
	}
	emotes, err := loadEmoteCatalog(cfg)
	if err != nil {
		log.Fatal("emote catalog load failed", zap.Error(err))
	}
	shop, err := loadShopCatalog(cfg, furniDefs)
	if err != nil {
		log.Fatal("shop catalog load failed", zap.Error(err))
	}

	st, err := store.OpenBolt(cfg.DataPath)
	if err != nil {
		log.Fatal("store open failed", zap.Error(err))
	}

	director, err := world.NewDirector(cfg, st, furniDefs, emotes, shop, log)
	if err != nil {
		log.Fatal("world boot failed", zap.Error(err))
	}

	ticker := world.NewTicker(director)
	ticker.Start()

	srv := server.New(cfg, st, director, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listener failed", zap.Error(err))
		}
	}

	// Ordered shutdown: stop the simulation, persist and notify, drain
	// transports, close the store. The deadline turns a wedged drain into
	// a forced exit.
	deadline := time.Duration(cfg.ShutdownTimeoutMS) * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	ticker.Stop()
	director.Shutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("listener shutdown incomplete", zap.Error(err))
	}
	if err := st.Close(); err != nil {
		log.Warn("store close failed", zap.Error(err))
	}
	log.Info("bye")
}

func loadFurnitureCatalog(cfg *config.Config) (*catalog.Furniture, error) {
	if cfg.FurnitureCatalogPath != "" {
		return catalog.LoadFurniture(cfg.FurnitureCatalogPath)
	}
	return catalog.NewFurniture(builtinFurniture())
}

func loadEmoteCatalog(cfg *config.Config) (*catalog.Emotes, error) {
	if cfg.EmoteCatalogPath != "" {
		return catalog.LoadEmotes(cfg.EmoteCatalogPath)
	}
	return catalog.NewEmotes(builtinEmotes())
}

func loadShopCatalog(cfg *config.Config, furniDefs *catalog.Furniture) (*catalog.Shop, error) {
	if cfg.ShopCatalogPath != "" {
		return catalog.LoadShop(cfg.ShopCatalogPath, furniDefs)
	}
	return catalog.NewShop(builtinShop(), furniDefs)
}
