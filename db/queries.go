package db

import (
	"context"
	"database/sql"
)

// Queries holds the raw SQL access methods used by Store.
type Queries struct {
	conn *sql.DB
}

// New creates Queries over an open connection.
func New(conn *sql.DB) *Queries {
	return &Queries{conn: conn}
}

const swapColumns = `id, wallet, tx_hash, external_id, from_network, to_network,
	from_symbol, from_address, to_symbol, to_address, amount, kind, provider,
	status, explorer_url, created_at`

func scanSwap(row interface{ Scan(...any) error }) (Swap, error) {
	var s Swap
	err := row.Scan(&s.ID, &s.Wallet, &s.TxHash, &s.ExternalID, &s.FromNetwork,
		&s.ToNetwork, &s.FromSymbol, &s.FromAddress, &s.ToSymbol, &s.ToAddress,
		&s.Amount, &s.Kind, &s.Provider, &s.Status, &s.ExplorerURL, &s.CreatedAt)
	return s, err
}

// InsertSwapParams holds the fields of a new history record.
type InsertSwapParams struct {
	Wallet      string
	TxHash      string
	ExternalID  string
	FromNetwork string
	ToNetwork   string
	FromSymbol  string
	FromAddress string
	ToSymbol    string
	ToAddress   string
	Amount      string
	Kind        string
	Provider    string
	Status      string
	ExplorerURL string
}

// InsertSwap records a new swap.
func (q *Queries) InsertSwap(ctx context.Context, arg InsertSwapParams) (Swap, error) {
	row := q.conn.QueryRowContext(ctx, `
		INSERT INTO swaps (wallet, tx_hash, external_id, from_network, to_network,
			from_symbol, from_address, to_symbol, to_address, amount, kind, provider,
			status, explorer_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+swapColumns,
		arg.Wallet, arg.TxHash, arg.ExternalID, arg.FromNetwork, arg.ToNetwork,
		arg.FromSymbol, arg.FromAddress, arg.ToSymbol, arg.ToAddress, arg.Amount,
		arg.Kind, arg.Provider, arg.Status, arg.ExplorerURL)
	return scanSwap(row)
}

// UpdateSwapStatusParams identifies a record and its new terminal status.
type UpdateSwapStatusParams struct {
	Status string
	ID     int64
}

// UpdateSwapStatus mutates a record's status.
func (q *Queries) UpdateSwapStatus(ctx context.Context, arg UpdateSwapStatusParams) error {
	_, err := q.conn.ExecContext(ctx,
		`UPDATE swaps SET status = ? WHERE id = ?`, arg.Status, arg.ID)
	return err
}

// ListPendingSwaps returns records awaiting a terminal status, oldest first.
func (q *Queries) ListPendingSwaps(ctx context.Context) ([]Swap, error) {
	rows, err := q.conn.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swaps WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []Swap
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, s)
	}
	return swaps, rows.Err()
}

// ListSwapsByWallet returns a wallet's history, newest first.
func (q *Queries) ListSwapsByWallet(ctx context.Context, wallet string) ([]Swap, error) {
	rows, err := q.conn.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swaps WHERE wallet = ? ORDER BY created_at DESC, id DESC`, wallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []Swap
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, s)
	}
	return swaps, rows.Err()
}

// DeleteSwapsByWallet clears a wallet's history. Only an explicit user action
// reaches this.
func (q *Queries) DeleteSwapsByWallet(ctx context.Context, wallet string) error {
	_, err := q.conn.ExecContext(ctx, `DELETE FROM swaps WHERE wallet = ?`, wallet)
	return err
}

// PruneSwaps drops everything beyond a wallet's most recent `keep` records.
func (q *Queries) PruneSwaps(ctx context.Context, wallet string, keep int64) error {
	_, err := q.conn.ExecContext(ctx, `
		DELETE FROM swaps WHERE wallet = ? AND id NOT IN (
			SELECT id FROM swaps WHERE wallet = ? ORDER BY created_at DESC, id DESC LIMIT ?
		)`, wallet, wallet, keep)
	return err
}

// InsertImportedTokenParams holds a token import.
type InsertImportedTokenParams struct {
	Wallet   string
	Network  string
	Address  string
	Symbol   string
	Name     string
	Decimals int64
	LogoURL  string
}

// InsertImportedToken upserts an imported token for a wallet.
func (q *Queries) InsertImportedToken(ctx context.Context, arg InsertImportedTokenParams) error {
	_, err := q.conn.ExecContext(ctx, `
		INSERT INTO imported_tokens (wallet, network, address, symbol, name, decimals, logo_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (wallet, network, address) DO UPDATE SET
			symbol = excluded.symbol, name = excluded.name,
			decimals = excluded.decimals, logo_url = excluded.logo_url`,
		arg.Wallet, arg.Network, arg.Address, arg.Symbol, arg.Name, arg.Decimals, arg.LogoURL)
	return err
}

// ListImportedTokens returns a wallet's imported tokens.
func (q *Queries) ListImportedTokens(ctx context.Context, wallet string) ([]ImportedToken, error) {
	rows, err := q.conn.QueryContext(ctx, `
		SELECT id, wallet, network, address, symbol, name, decimals, logo_url, created_at
		FROM imported_tokens WHERE wallet = ? ORDER BY created_at DESC`, wallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []ImportedToken
	for rows.Next() {
		var t ImportedToken
		if err := rows.Scan(&t.ID, &t.Wallet, &t.Network, &t.Address, &t.Symbol,
			&t.Name, &t.Decimals, &t.LogoURL, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// DeleteImportedToken removes one imported token.
func (q *Queries) DeleteImportedToken(ctx context.Context, wallet, network, address string) error {
	_, err := q.conn.ExecContext(ctx,
		`DELETE FROM imported_tokens WHERE wallet = ? AND network = ? AND address = ?`,
		wallet, network, address)
	return err
}

// InsertFavoriteToken marks a token as a wallet favorite.
func (q *Queries) InsertFavoriteToken(ctx context.Context, wallet, network, address, symbol string) error {
	_, err := q.conn.ExecContext(ctx, `
		INSERT INTO favorite_tokens (wallet, network, address, symbol)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (wallet, network, address) DO NOTHING`,
		wallet, network, address, symbol)
	return err
}

// ListFavoriteTokens returns a wallet's favorites.
func (q *Queries) ListFavoriteTokens(ctx context.Context, wallet string) ([]FavoriteToken, error) {
	rows, err := q.conn.QueryContext(ctx, `
		SELECT id, wallet, network, address, symbol, created_at
		FROM favorite_tokens WHERE wallet = ? ORDER BY created_at DESC`, wallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []FavoriteToken
	for rows.Next() {
		var t FavoriteToken
		if err := rows.Scan(&t.ID, &t.Wallet, &t.Network, &t.Address, &t.Symbol, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// DeleteFavoriteToken removes one favorite.
func (q *Queries) DeleteFavoriteToken(ctx context.Context, wallet, network, address string) error {
	_, err := q.conn.ExecContext(ctx,
		`DELETE FROM favorite_tokens WHERE wallet = ? AND network = ? AND address = ?`,
		wallet, network, address)
	return err
}

// InsertAPIRequest logs one aggregator HTTP exchange.
func (q *Queries) InsertAPIRequest(ctx context.Context, arg InsertAPIRequestParams) error {
	_, err := q.conn.ExecContext(ctx, `
		INSERT INTO api_requests (provider, method, url, request_headers, request_body,
			response_status, response_headers, response_body, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Provider, arg.Method, arg.Url, arg.RequestHeaders, arg.RequestBody,
		arg.ResponseStatus, arg.ResponseHeaders, arg.ResponseBody, arg.Error, arg.DurationMs)
	return err
}
