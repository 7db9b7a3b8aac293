package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"moment-machine/internal/api"
	"moment-machine/internal/commentary"
	"moment-machine/internal/config"
	"moment-machine/internal/db"
	"moment-machine/internal/ledger"
	"moment-machine/internal/model"
	"moment-machine/internal/policy"
	"moment-machine/internal/registry"
	"moment-machine/internal/resolver"
	"moment-machine/internal/sim"
	"moment-machine/internal/stats"
	"moment-machine/internal/ws"
)

func main() {
	cfg := config.Load()

	seed := cfg.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Core. Each randomized component gets its own source: policy,
	// resolver and commentary lock their rng independently, so sharing
	// one rand.Rand across them would race.
	reg := registry.Default()
	led := ledger.New(cfg.MaxTrades)
	pol := policy.New(policy.Config{BaseStake: cfg.BaseStake, OddsJitter: cfg.OddsJitter}, rand.New(rand.NewSource(seed)))
	res := resolver.New(led, rand.New(rand.NewSource(seed+1)), cfg.ResolveBatch)
	gen := commentary.New(rand.New(rand.NewSource(seed+2)))
	agg := stats.New(reg, led)
	engine := sim.New(reg, led, pol, res, gen, agg)
	log.Printf("[main] registry loaded with %d bots", reg.Size())

	// WS Hub
	hub := ws.NewHub()
	engine.SetPublish(hub.Publish)

	// Optional archive
	var archive *db.Store
	if cfg.DatabaseURL != "" {
		store, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		if err := store.Migrate(cfg.MigrationsDir); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		archive = store
		engine.SetArchive(func(t model.Trade) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.InsertResolved(ctx, t); err != nil {
				log.Printf("[main] archive trade %s: %v", t.ID, err)
			}
		})
		log.Println("[main] trade archive enabled")
	}

	if cfg.SeedDemoData {
		engine.SeedDemo()
	}

	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("admin hash: %v", err)
	}

	srv := api.NewServer(engine, hub, archive, cfg.JWTSecret, adminHash)

	log.Printf("[main] listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Router()); err != nil {
		log.Fatalf("server: %v", err)
	}
}
