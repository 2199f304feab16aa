package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/quarterhour/updown/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createTradeTableSQL = "CREATE TABLE IF NOT EXISTS trade (id TEXT PRIMARY KEY, market TEXT, direction INTEGER, entrytime INTEGER, entryprice TEXT, resolutiontime INTEGER, resolutionprice TEXT, outcome INTEGER, stake TEXT, contractprice TEXT, pnl TEXT)"
	createMetadataSQL   = "CREATE TABLE IF NOT EXISTS metadata (id TEXT PRIMARY KEY, total INTEGER, wins INTEGER, losses INTEGER, pnl TEXT, createdon INTEGER)"
	createTradeIndexSQL = "CREATE INDEX IF NOT EXISTS trade_entrytime_idx ON trade (market, entrytime)"
	persistTradeSQL     = "INSERT INTO trade(id, market, direction, entrytime, entryprice, resolutiontime, resolutionprice, outcome, stake, contractprice, pnl) VALUES(?,?,?,?,?,?,?,?,?,?,?)"
	findMetadataSQL     = "SELECT * FROM metadata WHERE id = ?"
	updateMetadataSQL   = "UPDATE metadata SET total = total + 1, wins = wins + ?, losses = losses + ?, pnl = CAST(CAST(pnl AS REAL) + ? AS TEXT) WHERE id = ?"
	persistMetadataSQL  = "INSERT INTO metadata(id, total, wins, losses, pnl, createdon) VALUES(?,?,?,?,?,?)"
)

// TradeStorer defines the requirements for storing resolved trades.
type TradeStorer interface {
	// PersistResolvedTrade stores the provided resolved trade to the database.
	PersistResolvedTrade(ctx context.Context, trade *shared.SimulatedTrade) error
}

// LedgerConfig is the configuration for the trade ledger.
type LedgerConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the ledger logger.
	Logger *zerolog.Logger
}

// Ledger represents the trade ledger database connection.
type Ledger struct {
	cfg    *LedgerConfig
	client *rqlitehttp.Client
}

// Ensure the ledger implements the TradeStorer interface.
var _ TradeStorer = (*Ledger)(nil)

// NewLedger initializes a new trade ledger connection.
func NewLedger(ctx context.Context, cfg *LedgerConfig) (*Ledger, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating ledger client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	ledger := &Ledger{
		cfg:    cfg,
		client: client,
	}

	err = ledger.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping ledger: %w", err)
	}

	return ledger, nil
}

// bootstrap initializes the ledger tables.
func (l *Ledger) bootstrap(ctx context.Context) error {
	_, err := l.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createTradeTableSQL},
		{SQL: createMetadataSQL},
		{SQL: createTradeIndexSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// generateMetadataID generates deterministic ids for metadata using the
// current month, week and market.
func generateMetadataID(currentTime time.Time, market string) string {
	month := currentTime.Month().String()
	week := currentTime.Day() / 7

	id := fmt.Sprintf("%s-Week-%d-%s", month, week, market)
	return id
}

// PersistResolvedTrade stores the provided resolved trade to the database and
// folds it into the weekly aggregates for its market.
func (l *Ledger) PersistResolvedTrade(ctx context.Context, trade *shared.SimulatedTrade) error {
	_, err := l.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistTradeSQL,
			PositionalParams: []any{trade.ID, trade.Market, int(trade.Direction),
				trade.EntryTime.Unix(), trade.EntryPrice.String(), trade.ResolutionTime.Unix(),
				trade.ResolutionPrice.String(), int(trade.Outcome), trade.Stake.String(),
				trade.ContractPrice.String(), trade.PnL.String()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	var win, loss int
	switch trade.Outcome {
	case shared.Win:
		win++
	case shared.Loss:
		loss++
	default:
		l.cfg.Logger.Error().Msgf("unexpected trade state for metadata calculations: %s", spew.Sdump(trade))
	}

	pnl, _ := trade.PnL.Float64()
	id := generateMetadataID(trade.ResolutionTime.UTC(), trade.Market)
	resp, err := l.client.QuerySingle(ctx, findMetadataSQL, id)
	if err != nil {
		return err
	}

	exists := len(resp.GetQueryResultsAssoc()) > 0
	switch {
	case exists:
		resp, err := l.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              updateMetadataSQL,
				PositionalParams: []any{win, loss, pnl, id},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("updating metadata %s: %d -> %s", id, idx, errStr)
		}
	default:
		resp, err := l.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              persistMetadataSQL,
				PositionalParams: []any{id, 1, win, loss, trade.PnL.String(), time.Now().UTC().Unix()},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("persisting metadata %s: %d -> %s", id, idx, errStr)
		}
	}

	return nil
}
