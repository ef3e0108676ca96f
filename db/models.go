package db

import (
	"database/sql"
	"time"
)

// Swap is one transaction history record. Status moves pending -> success or
// pending -> failed and is never reused afterwards.
type Swap struct {
	ID          int64     `json:"id"`
	Wallet      string    `json:"wallet"`
	TxHash      string    `json:"tx_hash"`
	ExternalID  string    `json:"-"`
	FromNetwork string    `json:"from_network"`
	ToNetwork   string    `json:"to_network"`
	FromSymbol  string    `json:"from_symbol"`
	FromAddress string    `json:"from_address"`
	ToSymbol    string    `json:"to_symbol"`
	ToAddress   string    `json:"to_address"`
	Amount      string    `json:"amount"`
	Kind        string    `json:"kind"`
	Provider    string    `json:"provider"`
	Status      string    `json:"status"`
	ExplorerURL string    `json:"explorer_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ImportedToken is a user-imported ERC-20 kept per wallet.
type ImportedToken struct {
	ID        int64     `json:"id"`
	Wallet    string    `json:"wallet"`
	Network   string    `json:"network"`
	Address   string    `json:"address"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Decimals  int64     `json:"decimals"`
	LogoURL   string    `json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteToken is a user-favorited token kept per wallet.
type FavoriteToken struct {
	ID        int64     `json:"id"`
	Wallet    string    `json:"wallet"`
	Network   string    `json:"network"`
	Address   string    `json:"address"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertAPIRequestParams mirrors one logged aggregator HTTP exchange.
type InsertAPIRequestParams struct {
	Provider        string
	Method          string
	Url             string
	RequestHeaders  sql.NullString
	RequestBody     sql.NullString
	ResponseStatus  sql.NullInt64
	ResponseHeaders sql.NullString
	ResponseBody    sql.NullString
	Error           sql.NullString
	DurationMs      sql.NullInt64
}
