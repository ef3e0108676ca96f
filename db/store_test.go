package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSwap(wallet, txHash, status string) InsertSwapParams {
	return InsertSwapParams{
		Wallet:      wallet,
		TxHash:      txHash,
		FromNetwork: "ethereum",
		ToNetwork:   "base",
		FromSymbol:  "ETH",
		ToSymbol:    "USDC",
		Amount:      "1.5",
		Kind:        "cross-chain",
		Provider:    "aggregator",
		Status:      status,
		ExplorerURL: "https://etherscan.io/tx/" + txHash,
	}
}

func TestRecordAndListSwaps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec, err := store.RecordSwap(ctx, testSwap("0xwallet", "0x1", "pending"))
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, "pending", rec.Status)

	list, err := store.ListSwapsByWallet(ctx, "0xwallet")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "0x1", list[0].TxHash)

	// Other wallets see nothing.
	other, err := store.ListSwapsByWallet(ctx, "0xother")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestHistoryCapPrunesOldest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < HistoryCap+10; i++ {
		_, err := store.RecordSwap(ctx, testSwap("0xwallet", fmt.Sprintf("0x%03d", i), "success"))
		require.NoError(t, err)
	}

	list, err := store.ListSwapsByWallet(ctx, "0xwallet")
	require.NoError(t, err)
	require.Len(t, list, HistoryCap)

	// The newest records survive; the oldest ten are gone.
	hashes := make(map[string]bool, len(list))
	for _, rec := range list {
		hashes[rec.TxHash] = true
	}
	assert.False(t, hashes["0x000"])
	assert.False(t, hashes["0x009"])
	assert.True(t, hashes["0x010"])
	assert.True(t, hashes[fmt.Sprintf("0x%03d", HistoryCap+9)])
}

func TestUpdateSwapStatusAndPendingList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	pending, err := store.RecordSwap(ctx, testSwap("0xwallet", "0x1", "pending"))
	require.NoError(t, err)
	_, err = store.RecordSwap(ctx, testSwap("0xwallet", "0x2", "success"))
	require.NoError(t, err)

	open, err := store.ListPendingSwaps(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pending.ID, open[0].ID)

	require.NoError(t, store.UpdateSwapStatus(ctx, UpdateSwapStatusParams{Status: "success", ID: pending.ID}))

	open, err = store.ListPendingSwaps(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestDeleteSwapsByWallet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.RecordSwap(ctx, testSwap("0xa", "0x1", "success"))
	require.NoError(t, err)
	_, err = store.RecordSwap(ctx, testSwap("0xb", "0x2", "success"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteSwapsByWallet(ctx, "0xa"))

	gone, err := store.ListSwapsByWallet(ctx, "0xa")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := store.ListSwapsByWallet(ctx, "0xb")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestImportedTokensUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	params := InsertImportedTokenParams{
		Wallet:   "0xwallet",
		Network:  "ethereum",
		Address:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Symbol:   "USDC",
		Name:     "USD Coin",
		Decimals: 6,
	}
	require.NoError(t, store.InsertImportedToken(ctx, params))

	// Re-import updates metadata instead of duplicating.
	params.Name = "USD Coin v2"
	require.NoError(t, store.InsertImportedToken(ctx, params))

	list, err := store.ListImportedTokens(ctx, "0xwallet")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "USD Coin v2", list[0].Name)
	assert.Equal(t, int64(6), list[0].Decimals)

	require.NoError(t, store.DeleteImportedToken(ctx, "0xwallet", "ethereum", params.Address))
	list, err = store.ListImportedTokens(ctx, "0xwallet")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFavoriteTokens(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertFavoriteToken(ctx, "0xwallet", "base", "0x4200000000000000000000000000000000000006", "WETH"))
	require.NoError(t, store.InsertFavoriteToken(ctx, "0xwallet", "base", "0x4200000000000000000000000000000000000006", "WETH"))

	list, err := store.ListFavoriteTokens(ctx, "0xwallet")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "WETH", list[0].Symbol)

	require.NoError(t, store.DeleteFavoriteToken(ctx, "0xwallet", "base", "0x4200000000000000000000000000000000000006"))
	list, err = store.ListFavoriteTokens(ctx, "0xwallet")
	require.NoError(t, err)
	assert.Empty(t, list)
}
