package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openbridge/swapd/aggregator"
	"github.com/openbridge/swapd/apilog"
	"github.com/openbridge/swapd/config"
	"github.com/openbridge/swapd/db"
	"github.com/openbridge/swapd/executor"
	"github.com/openbridge/swapd/intents"
	"github.com/openbridge/swapd/notify"
	"github.com/openbridge/swapd/quote"
	"github.com/openbridge/swapd/server"
	"github.com/openbridge/swapd/swap"
	"github.com/openbridge/swapd/tokens"
	"github.com/openbridge/swapd/tracker"
	"github.com/openbridge/swapd/wallet"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Connect RPC clients
	rpcClients := make(map[string]*ethclient.Client)
	for name, url := range cfg.RPCEndpoints {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Fatalf("Failed to connect to %s RPC at %s: %v", name, url, err)
		}
		rpcClients[name] = client
		log.Printf("Connected to %s RPC", name)
	}

	signer, err := wallet.NewSigner(cfg.Mnemonic, 0)
	if err != nil {
		log.Fatalf("Failed to derive signing key: %v", err)
	}
	log.Printf("Wallet address: %s", signer.Address().Hex())

	// Initialize providers
	providers := make(map[string]swap.Provider)

	aggClient := aggregator.NewClient(cfg.OnChainAPIBase, cfg.OnChainAPIKey,
		apilog.NewHTTPClient("aggregator", database))
	aggProvider := aggregator.NewProvider(aggClient, signer, rpcClients)
	providers[aggProvider.Name()] = aggProvider

	if cfg.IntentsAPIKey != "" {
		intProvider := intents.NewProvider(cfg.IntentsAPIKey, signer, rpcClients,
			apilog.NewHTTPClient("intents", database))
		providers[intProvider.Name()] = intProvider
		log.Println("Intents provider enabled")
	}

	providerList := make([]swap.Provider, 0, len(providers))
	for _, p := range providers {
		providerList = append(providerList, p)
	}

	notifier, err := notify.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start notifier: %v", err)
	}
	if notifier != nil {
		log.Println("Telegram notifications enabled")
	}

	hub := server.NewHub()

	engine := quote.New(providerList, signer.Address())
	engine.OnUpdate(func(st quote.State) {
		hub.Broadcast("quote", quoteEvent(st))
	})

	exec := executor.New(cfg, rpcClients, signer, database, engine, notifier, func(p executor.Progress) {
		hub.Broadcast("progress", p)
	})

	prices := tokens.NewPriceClient(cfg.CoinGeckoAPIKey)

	srv := server.New(cfg, database, engine, exec, providers, rpcClients, prices, signer.Address().Hex(), hub)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	trk := tracker.New(database, providers, notifier)
	go trk.Run(ctx)

	log.Println("Starting swapd...")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Shutting down...")
	cancel()
}

// quoteEvent reduces the engine state to its JSON-safe fields; route objects
// stay in process.
func quoteEvent(st quote.State) map[string]any {
	ev := map[string]any{
		"providers":          st.Providers,
		"selected_provider":  st.SelectedProvider,
		"output_display":     st.OutputDisplay,
		"approval":           st.Approval,
		"insufficient_funds": st.InsufficientFunds,
		"no_routes":          st.NoRoutes,
	}
	if st.Best != nil {
		ev["best_provider"] = st.Best.Provider()
	}
	if st.Err != nil {
		ev["error"] = st.Err
	}
	return ev
}
