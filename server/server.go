// Package server exposes the daemon's HTTP API: quoting, swap submission,
// token validation and metadata, history, and the websocket event feed.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openbridge/swapd/balances"
	"github.com/openbridge/swapd/chains"
	"github.com/openbridge/swapd/classify"
	"github.com/openbridge/swapd/config"
	"github.com/openbridge/swapd/db"
	"github.com/openbridge/swapd/executor"
	"github.com/openbridge/swapd/quote"
	"github.com/openbridge/swapd/swap"
	"github.com/openbridge/swapd/tokens"
)

type Server struct {
	cfg        *config.Config
	store      *db.Store
	engine     *quote.Engine
	exec       *executor.Executor
	providers  map[string]swap.Provider
	rpcClients map[string]*ethclient.Client
	prices     *tokens.PriceClient
	wallet     string // daemon signer address, the history owner
	hub        *Hub
}

func New(cfg *config.Config, store *db.Store, engine *quote.Engine, exec *executor.Executor, providers map[string]swap.Provider, rpcClients map[string]*ethclient.Client, prices *tokens.PriceClient, walletAddr string, hub *Hub) *Server {
	return &Server{
		cfg:        cfg,
		store:      store,
		engine:     engine,
		exec:       exec,
		providers:  providers,
		rpcClients: rpcClients,
		prices:     prices,
		wallet:     walletAddr,
		hub:        hub,
	}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/quote", s.handleQuoteState)
	mux.HandleFunc("POST /api/quote", s.handleQuote)
	mux.HandleFunc("POST /api/quote/provider", s.handleSelectProvider)
	mux.HandleFunc("POST /api/swap", s.handleSwap)

	mux.HandleFunc("GET /api/validate/{network}", s.handleValidate)
	mux.HandleFunc("GET /api/balances", s.handleBalances)
	mux.HandleFunc("GET /api/tokens", s.handleTokens)
	mux.HandleFunc("GET /api/tokens-logo", s.handleTokenLogo)
	mux.HandleFunc("GET /api/token-price", s.handleTokenPrice)

	mux.HandleFunc("GET /api/user-history/transactions", s.handleHistory)
	mux.HandleFunc("DELETE /api/user-history/transactions", s.handleClearHistory)
	mux.HandleFunc("GET /api/user-history/imported", s.handleListImported)
	mux.HandleFunc("POST /api/user-history/imported", s.handleImportToken)
	mux.HandleFunc("DELETE /api/user-history/imported", s.handleDeleteImported)
	mux.HandleFunc("GET /api/user-history/favorites", s.handleListFavorites)
	mux.HandleFunc("POST /api/user-history/favorites", s.handleAddFavorite)
	mux.HandleFunc("DELETE /api/user-history/favorites", s.handleDeleteFavorite)

	mux.HandleFunc("GET /api/explorers", s.handleExplorers)
	mux.HandleFunc("GET /ws", s.hub.handleWS)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	log.Printf("HTTP server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// --- quoting ---

// assetRequest is the wire form of a swap.Asset.
type assetRequest struct {
	Network  string `json:"network"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

func (a assetRequest) toAsset() (swap.Asset, error) {
	if a.Address == "" {
		return swap.Asset{Network: a.Network, Symbol: a.Symbol, Decimals: a.Decimals}, nil
	}
	addr, err := swap.ParseAddress(a.Address)
	if err != nil {
		return swap.Asset{}, fmt.Errorf("address %q: %w", a.Address, err)
	}
	return swap.Asset{Network: a.Network, Address: addr, Symbol: a.Symbol, Decimals: a.Decimals}, nil
}

type quoteRequest struct {
	From   assetRequest `json:"from"`
	To     assetRequest `json:"to"`
	Amount string       `json:"amount"`
}

// stateView is the JSON rendering of the engine state. Routes are reduced to
// their provider tags; the full route objects never leave the process.
type stateView struct {
	Providers         []string          `json:"providers"`
	BestProvider      string            `json:"best_provider,omitempty"`
	SelectedProvider  string            `json:"selected_provider,omitempty"`
	OutputDisplay     string            `json:"output_display,omitempty"`
	Approval          quote.Approval    `json:"approval"`
	Error             *classify.Outcome `json:"error,omitempty"`
	InsufficientFunds bool              `json:"insufficient_funds"`
	NoRoutes          bool              `json:"no_routes"`
}

func viewOf(st quote.State) stateView {
	v := stateView{
		Providers:         st.Providers,
		SelectedProvider:  st.SelectedProvider,
		OutputDisplay:     st.OutputDisplay,
		Approval:          st.Approval,
		Error:             st.Err,
		InsufficientFunds: st.InsufficientFunds,
		NoRoutes:          st.NoRoutes,
	}
	if st.Best != nil {
		v.BestProvider = st.Best.Provider()
	}
	return v
}

// handleQuote sets new quote inputs. Quoting is asynchronous: results arrive
// on the websocket feed and via GET /api/quote once the debounce window and
// fetch complete.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	from, err := req.From.toAsset()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := req.To.toAsset()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, network := range []string{from.Network, to.Network} {
		if !chains.IsSupported(network) {
			http.Error(w, fmt.Sprintf("unsupported network %q", network), http.StatusBadRequest)
			return
		}
	}

	s.engine.SetInputs(quote.Inputs{From: from, To: to, Amount: req.Amount})
	writeJSON(w, viewOf(s.engine.State()))
}

func (s *Server) handleQuoteState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, viewOf(s.engine.State()))
}

func (s *Server) handleSelectProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Provider == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.engine.SelectProvider(req.Provider)
	writeJSON(w, viewOf(s.engine.State()))
}

// handleSwap submits the engine's current selection for execution. Progress
// streams over the websocket feed; the response only acknowledges the
// submission was started.
func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	st := s.engine.State()
	route := st.Best
	if route == nil {
		http.Error(w, "no route available", http.StatusConflict)
		return
	}

	// Aggregator routes carry the venue name rather than the provider name,
	// so a miss here means the route came from the aggregator.
	provider, ok := s.providers[route.Provider()]
	if !ok {
		provider, ok = s.providers["aggregator"]
	}
	if !ok {
		http.Error(w, "no provider available", http.StatusConflict)
		return
	}

	in := s.engine.Inputs()
	sub := executor.Submission{
		Route:    route,
		Provider: provider,
		From:     in.From,
		To:       in.To,
		Amount:   in.Amount,
		Approval: st.Approval,
	}

	go func() {
		if _, ok := s.exec.Submit(context.Background(), sub); !ok {
			log.Printf("Server: swap submission dropped (already in flight)")
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]any{"submitted": true, "provider": route.Provider()})
}

// --- tokens ---

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	network := r.PathValue("network")
	rpc, ok := s.rpcClients[network]
	if !ok {
		http.Error(w, fmt.Sprintf("unsupported network %q", network), http.StatusBadRequest)
		return
	}

	addr, err := swap.ParseAddress(r.URL.Query().Get("address"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := tokens.Validate(r.Context(), rpc, network, addr)
	if err != nil {
		writeJSON(w, map[string]any{"valid": false, "error": err.Error()})
		return
	}

	logo, _ := s.prices.Logo(r.Context(), token.Asset)
	writeJSON(w, map[string]any{
		"valid":    true,
		"network":  network,
		"address":  token.Asset.Address.Hex(),
		"symbol":   token.Asset.Symbol,
		"name":     token.Name,
		"decimals": token.Asset.Decimals,
		"logo_url": logo,
	})
}

// handleBalances reports the daemon wallet's native and token balances on
// one network, fetched in a single multicall round trip.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	network := r.URL.Query().Get("network")
	rpc, ok := s.rpcClients[network]
	if !ok {
		http.Error(w, fmt.Sprintf("unsupported network %q", network), http.StatusBadRequest)
		return
	}

	token, err := swap.ParseAddress(r.URL.Query().Get("address"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pair, err := balances.FetchPair(r.Context(), rpc, network, token, common.HexToAddress(s.wallet))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, pair)
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	network := r.URL.Query().Get("network")
	list := tokens.List(network)
	if list == nil {
		http.Error(w, fmt.Sprintf("unsupported network %q", network), http.StatusBadRequest)
		return
	}

	type tokenView struct {
		Network  string `json:"network"`
		Address  string `json:"address,omitempty"`
		Symbol   string `json:"symbol"`
		Name     string `json:"name"`
		Decimals int    `json:"decimals"`
		Imported bool   `json:"imported,omitempty"`
	}

	var out []tokenView
	for _, t := range list {
		v := tokenView{
			Network:  t.Asset.Network,
			Symbol:   t.Asset.Symbol,
			Name:     t.Name,
			Decimals: t.Asset.Decimals,
		}
		if !t.Asset.IsNative() {
			v.Address = t.Asset.Address.Hex()
		}
		out = append(out, v)
	}

	imported, err := s.store.ListImportedTokens(r.Context(), s.wallet)
	if err == nil {
		for _, t := range imported {
			if t.Network != network {
				continue
			}
			out = append(out, tokenView{
				Network:  t.Network,
				Address:  t.Address,
				Symbol:   t.Symbol,
				Name:     t.Name,
				Decimals: int(t.Decimals),
				Imported: true,
			})
		}
	}

	writeJSON(w, out)
}

func (s *Server) handleTokenLogo(w http.ResponseWriter, r *http.Request) {
	asset, err := s.queryAsset(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logo, err := s.prices.Logo(r.Context(), asset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"logo_url": logo})
}

func (s *Server) handleTokenPrice(w http.ResponseWriter, r *http.Request) {
	asset, err := s.queryAsset(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	price, err := s.prices.Price(r.Context(), asset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"usd": price})
}

func (s *Server) queryAsset(r *http.Request) (swap.Asset, error) {
	network := r.URL.Query().Get("network")
	if !chains.IsSupported(network) {
		return swap.Asset{}, fmt.Errorf("unsupported network %q", network)
	}
	addrStr := r.URL.Query().Get("address")
	if addrStr == "" {
		// Native asset lookup by network alone.
		return swap.Asset{Network: network}, nil
	}
	addr, err := swap.ParseAddress(addrStr)
	if err != nil {
		return swap.Asset{}, err
	}
	return swap.Asset{Network: network, Address: addr}, nil
}

// --- history and user tokens ---

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListSwapsByWallet(r.Context(), s.wallet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []db.Swap{}
	}
	writeJSON(w, records)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSwapsByWallet(r.Context(), s.wallet); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportToken validates the contract on chain before persisting it, so
// the imported list never accumulates addresses that cannot be traded.
func (s *Server) handleImportToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Network string `json:"network"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rpc, ok := s.rpcClients[req.Network]
	if !ok {
		http.Error(w, fmt.Sprintf("unsupported network %q", req.Network), http.StatusBadRequest)
		return
	}
	addr, err := swap.ParseAddress(req.Address)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := tokens.Validate(r.Context(), rpc, req.Network, addr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	logo, _ := s.prices.Logo(r.Context(), token.Asset)

	if err := s.store.InsertImportedToken(r.Context(), db.InsertImportedTokenParams{
		Wallet:   s.wallet,
		Network:  req.Network,
		Address:  token.Asset.Address.Hex(),
		Symbol:   token.Asset.Symbol,
		Name:     token.Name,
		Decimals: int64(token.Asset.Decimals),
		LogoURL:  logo,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{
		"network":  req.Network,
		"address":  token.Asset.Address.Hex(),
		"symbol":   token.Asset.Symbol,
		"name":     token.Name,
		"decimals": token.Asset.Decimals,
		"logo_url": logo,
	})
}

func (s *Server) handleListImported(w http.ResponseWriter, r *http.Request) {
	imported, err := s.store.ListImportedTokens(r.Context(), s.wallet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if imported == nil {
		imported = []db.ImportedToken{}
	}
	writeJSON(w, imported)
}

func (s *Server) handleDeleteImported(w http.ResponseWriter, r *http.Request) {
	network, address, err := tokenKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.DeleteImportedToken(r.Context(), s.wallet, network, address); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Network string `json:"network"`
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !chains.IsSupported(req.Network) {
		http.Error(w, fmt.Sprintf("unsupported network %q", req.Network), http.StatusBadRequest)
		return
	}
	if err := s.store.InsertFavoriteToken(r.Context(), s.wallet, req.Network, req.Address, req.Symbol); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := s.store.ListFavoriteTokens(r.Context(), s.wallet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if favorites == nil {
		favorites = []db.FavoriteToken{}
	}
	writeJSON(w, favorites)
}

func (s *Server) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	network, address, err := tokenKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.DeleteFavoriteToken(r.Context(), s.wallet, network, address); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExplorers(w http.ResponseWriter, r *http.Request) {
	explorers := make(map[string]string)
	for _, code := range chains.Codes() {
		if base := s.cfg.ExplorerBase(code); base != "" {
			explorers[code] = base
		}
	}
	writeJSON(w, explorers)
}

// --- helpers ---

func tokenKey(r *http.Request) (network, address string, err error) {
	network = r.URL.Query().Get("network")
	address = r.URL.Query().Get("address")
	if !chains.IsSupported(network) {
		return "", "", fmt.Errorf("unsupported network %q", network)
	}
	if address == "" {
		return "", "", fmt.Errorf("missing address")
	}
	return network, address, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
