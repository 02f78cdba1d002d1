package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/tradebook/internal/modules/analytics"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// seedJournal creates a journal with one portfolio holding a closed and an open trade
func seedJournal(t *testing.T) (string, int64) {
	t.Helper()
	dir := t.TempDir()

	c := &common{dataDir: dir}
	db, err := c.openJournal()
	require.NoError(t, err)
	defer db.Close()

	userID := testingpkg.SeedUser(t, db.Conn(), "cli")
	portfolioID := testingpkg.SeedPortfolio(t, db.Conn(), userID, "Swing")
	testingpkg.SeedTrade(t, db.Conn(), portfolioID, testingpkg.TradeFixture{
		Symbol: "AAPL", EntryPrice: 100, Quantity: 10,
		EntryDate: time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
		ExitPrice: testingpkg.Float(110), ProfitLoss: testingpkg.Float(100),
	})
	testingpkg.SeedTrade(t, db.Conn(), portfolioID, testingpkg.TradeFixture{
		Symbol: "MSFT", EntryPrice: 300, Quantity: 1,
		EntryDate: time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC),
	})
	return dir, portfolioID
}

func TestMigrateCmd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	var out bytes.Buffer
	cmd := &migrateCmd{common: common{dataDir: dir, out: &out}}

	assert.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), nil))
	assert.FileExists(t, filepath.Join(dir, "journal.db"))
	assert.Contains(t, out.String(), "journal schema up to date")

	// Idempotent
	assert.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), nil))
}

func TestAnalyticsCmd(t *testing.T) {
	dir, portfolioID := seedJournal(t)

	var out bytes.Buffer
	cmd := &analyticsCmd{common: common{dataDir: dir, out: &out}, portfolioID: portfolioID}
	require.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), nil))

	var stats analytics.PortfolioAnalytics
	require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
	assert.Equal(t, "Swing", stats.PortfolioName)
	assert.Equal(t, 1, stats.TotalTrades)
	assert.InDelta(t, 100.0, stats.TotalProfitLoss, 1e-9)

	out.Reset()
	cmd.bySymbol = true
	require.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), nil))
	var breakdown analytics.SymbolBreakdown
	require.NoError(t, json.Unmarshal(out.Bytes(), &breakdown))
	require.Len(t, breakdown.Symbols, 1)
	assert.Equal(t, "AAPL", breakdown.Symbols[0].Symbol)
}

func TestAnalyticsCmd_Failures(t *testing.T) {
	dir, _ := seedJournal(t)

	cmd := &analyticsCmd{common: common{dataDir: dir, out: &bytes.Buffer{}}}
	assert.Equal(t, subcommands.ExitUsageError, cmd.Execute(context.Background(), nil))

	cmd.portfolioID = 404
	assert.Equal(t, subcommands.ExitFailure, cmd.Execute(context.Background(), nil))
}

func TestExportCmd_JSON(t *testing.T) {
	dir, portfolioID := seedJournal(t)

	var out bytes.Buffer
	cmd := &exportCmd{common: common{dataDir: dir, out: &out}, portfolioID: portfolioID, format: "json"}
	require.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), nil))

	var doc Export
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.NotNil(t, doc.Portfolio)
	assert.Equal(t, "Swing", doc.Portfolio.Name)
	require.Len(t, doc.Trades, 2)
	assert.Equal(t, "MSFT", doc.Trades[0].Symbol, "most recent entry first")
}

func TestExportCmd_MsgpackFile(t *testing.T) {
	dir, portfolioID := seedJournal(t)
	target := filepath.Join(t.TempDir(), "swing.msgpack")

	cmd := &exportCmd{common: common{dataDir: dir}, portfolioID: portfolioID, format: "msgpack", output: target}
	require.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), nil))

	raw, err := os.ReadFile(target)
	require.NoError(t, err)

	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.SetCustomStructTag("json")
	var doc Export
	require.NoError(t, dec.Decode(&doc))
	assert.Equal(t, portfolioID, doc.Portfolio.ID)
	assert.Len(t, doc.Trades, 2)

	var generic map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "trades", "field names follow the JSON API")
}

func TestExportCmd_BadFormat(t *testing.T) {
	cmd := &exportCmd{portfolioID: 1, format: "xml"}
	assert.Equal(t, subcommands.ExitUsageError, cmd.Execute(context.Background(), nil))
}
