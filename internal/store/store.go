// Package store keeps cut requests and glass stock in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/piwi3910/glasscut/internal/model"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	// busy_timeout avoids "database is locked" while another process commits.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetConnMaxIdleTime(2 * time.Minute)
	db.SetMaxOpenConns(1)

	s := &Store{DB: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS cut_requests(
  id          TEXT PRIMARY KEY,
  material_id TEXT NOT NULL,
  width_mm    INTEGER NOT NULL,
  height_mm   INTEGER NOT NULL,
  quantity    INTEGER NOT NULL,
  quantity_cut INTEGER NOT NULL DEFAULT 0,
  order_ref   TEXT NOT NULL DEFAULT '',
  client_ref  TEXT NOT NULL DEFAULT '',
  status      TEXT NOT NULL DEFAULT 'pending',
  created_at  INTEGER NOT NULL DEFAULT (strftime('%s','now')),
  updated_at  INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);
CREATE INDEX IF NOT EXISTS idx_cut_requests_status ON cut_requests(status, material_id);

CREATE TABLE IF NOT EXISTS stock_sheets(
  id          TEXT PRIMARY KEY,
  material_id TEXT NOT NULL,
  label       TEXT NOT NULL DEFAULT '',
  width_mm    INTEGER NOT NULL,
  height_mm   INTEGER NOT NULL,
  quantity    INTEGER NOT NULL DEFAULT 0,
  updated_at  INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);
CREATE INDEX IF NOT EXISTS idx_stock_sheets_material ON stock_sheets(material_id);

CREATE TABLE IF NOT EXISTS stock_remnants(
  id          TEXT PRIMARY KEY,
  material_id TEXT NOT NULL,
  width_mm    INTEGER NOT NULL,
  height_mm   INTEGER NOT NULL,
  quantity    INTEGER NOT NULL DEFAULT 1,
  location    TEXT NOT NULL DEFAULT '',
  created_at  INTEGER NOT NULL DEFAULT (strftime('%s','now')),
  updated_at  INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);
CREATE INDEX IF NOT EXISTS idx_stock_remnants_material ON stock_remnants(material_id);
`
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return err
	}
	return s.addColumn(ctx, "cut_requests", "quantity_cut", "INTEGER NOT NULL DEFAULT 0")
}

// addColumn adds a column to a table created by an older schema.
func (s *Store) addColumn(ctx context.Context, table, column, decl string) error {
	rows, err := s.DB.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	_, err = s.DB.ExecContext(ctx, `ALTER TABLE `+table+` ADD COLUMN `+column+` `+decl)
	return err
}

func (s *Store) Close() error { return s.DB.Close() }

// AddCutRequest inserts a request. An empty id is filled in; an empty status
// defaults to pending.
func (s *Store) AddCutRequest(ctx context.Context, r model.CutRequest) (model.CutRequest, error) {
	if r.ID == "" {
		r.ID = model.NewID()
	}
	if r.Status == "" {
		r.Status = model.StatusPending
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO cut_requests(id,material_id,width_mm,height_mm,quantity,quantity_cut,order_ref,client_ref,status)
VALUES(?,?,?,?,?,?,?,?,?)`,
		r.ID, r.MaterialID, r.Width, r.Height, r.Quantity, r.QuantityCut, r.OrderRef, r.ClientRef, string(r.Status))
	if err != nil {
		return r, fmt.Errorf("insert cut request %s: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) AddSheet(ctx context.Context, sh model.StockSheet) (model.StockSheet, error) {
	if sh.ID == "" {
		sh.ID = model.NewID()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO stock_sheets(id,material_id,label,width_mm,height_mm,quantity)
VALUES(?,?,?,?,?,?)`,
		sh.ID, sh.MaterialID, sh.Label, sh.Width, sh.Height, sh.Quantity)
	if err != nil {
		return sh, fmt.Errorf("insert sheet %s: %w", sh.ID, err)
	}
	return sh, nil
}

func (s *Store) AddRemnant(ctx context.Context, r model.StockRemnant) (model.StockRemnant, error) {
	if r.ID == "" {
		r.ID = model.NewID()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO stock_remnants(id,material_id,width_mm,height_mm,quantity,location)
VALUES(?,?,?,?,?,?)`,
		r.ID, r.MaterialID, r.Width, r.Height, r.Quantity, r.Location)
	if err != nil {
		return r, fmt.Errorf("insert remnant %s: %w", r.ID, err)
	}
	return r, nil
}

const (
	requestColumns = `id,material_id,width_mm,height_mm,quantity,quantity_cut,order_ref,client_ref,status`
	sheetColumns   = `id,material_id,label,width_mm,height_mm,quantity`
	remnantColumns = `id,material_id,width_mm,height_mm,quantity,location`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (model.CutRequest, error) {
	var r model.CutRequest
	var status string
	err := row.Scan(&r.ID, &r.MaterialID, &r.Width, &r.Height, &r.Quantity, &r.QuantityCut, &r.OrderRef, &r.ClientRef, &status)
	r.Status = model.RequestStatus(status)
	return r, err
}

func scanSheet(row scanner) (model.StockSheet, error) {
	var sh model.StockSheet
	err := row.Scan(&sh.ID, &sh.MaterialID, &sh.Label, &sh.Width, &sh.Height, &sh.Quantity)
	return sh, err
}

func scanRemnant(row scanner) (model.StockRemnant, error) {
	var r model.StockRemnant
	err := row.Scan(&r.ID, &r.MaterialID, &r.Width, &r.Height, &r.Quantity, &r.Location)
	return r, err
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

func (s *Store) CutRequest(ctx context.Context, id string) (model.CutRequest, error) {
	r, err := scanRequest(s.DB.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM cut_requests WHERE id=?`, id))
	return r, notFound(err, "cut request", id)
}

func (s *Store) Sheet(ctx context.Context, id string) (model.StockSheet, error) {
	sh, err := scanSheet(s.DB.QueryRowContext(ctx, `SELECT `+sheetColumns+` FROM stock_sheets WHERE id=?`, id))
	return sh, notFound(err, "sheet", id)
}

func (s *Store) Remnant(ctx context.Context, id string) (model.StockRemnant, error) {
	r, err := scanRemnant(s.DB.QueryRowContext(ctx, `SELECT `+remnantColumns+` FROM stock_remnants WHERE id=?`, id))
	return r, notFound(err, "remnant", id)
}

// PendingRequests lists requests with units still to cut, in insertion
// order. QuantityCut tells how many units are already done. With no
// materials given, every material is included.
func (s *Store) PendingRequests(ctx context.Context, materials ...string) ([]model.CutRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM cut_requests WHERE status=?`
	args := []any{string(model.StatusPending)}
	if len(materials) > 0 {
		q += ` AND material_id IN (` + placeholders(len(materials)) + `)`
		args = append(args, toAny(materials)...)
	}
	q += ` ORDER BY created_at, rowid`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CutRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Snapshot reads the stock with units left for the given materials (all
// materials when none are given). Rows come back in insertion order so
// repeated snapshots of unchanged stock compare equal.
func (s *Store) Snapshot(ctx context.Context, materials ...string) (model.StockSnapshot, error) {
	var snap model.StockSnapshot

	filter, args := ``, []any{}
	if len(materials) > 0 {
		filter = ` AND material_id IN (` + placeholders(len(materials)) + `)`
		args = toAny(materials)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+sheetColumns+` FROM stock_sheets WHERE quantity>0`+filter+` ORDER BY rowid`, args...)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		sh, err := scanSheet(rows)
		if err != nil {
			rows.Close()
			return snap, err
		}
		snap.Sheets = append(snap.Sheets, sh)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.DB.QueryContext(ctx, `SELECT `+remnantColumns+` FROM stock_remnants WHERE quantity>0`+filter+` ORDER BY rowid`, args...)
	if err != nil {
		return snap, err
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanRemnant(rows)
		if err != nil {
			return snap, err
		}
		snap.Remnants = append(snap.Remnants, r)
	}
	return snap, rows.Err()
}

// ApplyPiece performs one piece's inventory transaction: take one unit of
// the source stock, insert the saved remnants and count the placed units
// against their requests. A request turns cut once every unit is counted.
// The decrement only succeeds while a unit is still there;
// otherwise nothing is written and the error wraps model.ErrCommitConflict.
func (s *Store) ApplyPiece(ctx context.Context, req model.CommitRequest) (model.CommitReceipt, error) {
	var receipt model.CommitReceipt

	table := "stock_sheets"
	if req.SourceKind == model.KindRemnant {
		table = "stock_remnants"
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return receipt, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE `+table+`
SET quantity = quantity - 1,
    updated_at = strftime('%s','now')
WHERE id=? AND material_id=? AND quantity >= 1`, req.SourceID, req.MaterialID)
	if err != nil {
		return receipt, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return receipt, err
	}
	if n == 0 {
		return receipt, fmt.Errorf("%s %s: %w", req.SourceKind, req.SourceID, model.ErrCommitConflict)
	}

	for _, d := range req.NewRemnants {
		id := model.NewID()
		qty := d.Quantity
		if qty <= 0 {
			qty = 1
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO stock_remnants(id,material_id,width_mm,height_mm,quantity,location)
VALUES(?,?,?,?,?,?)`, id, req.MaterialID, d.Width, d.Height, qty, d.Location); err != nil {
			return receipt, fmt.Errorf("insert remnant: %w", err)
		}
		receipt.NewRemnantIDs = append(receipt.NewRemnantIDs, id)
	}

	for _, u := range req.Requests {
		if u.Units <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE cut_requests
SET quantity_cut = MIN(quantity, quantity_cut + ?),
    status = CASE WHEN quantity_cut + ? >= quantity THEN ? ELSE status END,
    updated_at = strftime('%s','now')
WHERE id=?`, u.Units, u.Units, string(model.StatusCut), u.RequestID); err != nil {
			return receipt, fmt.Errorf("count units of request %s: %w", u.RequestID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.CommitReceipt{}, err
	}
	return receipt, nil
}

// helpers
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toAny[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, v := range xs {
		out[i] = v
	}
	return out
}
