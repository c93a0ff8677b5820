// Package store persists restaurants and menus. All writes run inside
// caller-owned transactions; the sync job draws the transaction
// boundaries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type Store struct {
	db *sql.DB
}

// Open connects and pings. The driver name is injected so tests can run
// the same code against an in-memory database.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, for tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RunMigrations(schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

type Restaurant struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	NameKR string `json:"name_kr"`
}

type NewRestaurant struct {
	Code   string `json:"code"`
	NameKR string `json:"name_kr"`
}

// Menu is one persisted menu row, identified by the composite key
// (restaurant_id, code, date, type). PreviousPrice and PreviousEtc are
// shadow fields the diff fills on edit candidates; they are never
// persisted.
type Menu struct {
	ID            int64   `json:"id"`
	RestaurantID  *int64  `json:"restaurant_id"`
	Code          string  `json:"code"`
	Date          string  `json:"date"`
	Type          string  `json:"type"`
	NameKR        string  `json:"name_kr"`
	Price         *int    `json:"price"`
	Etc           string  `json:"etc"`
	PreviousPrice *int    `json:"previous_price,omitempty"`
	PreviousEtc   *string `json:"previous_etc,omitempty"`
}

func (s *Store) RestaurantCodes(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT code FROM restaurant`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *Store) Restaurants(ctx context.Context, tx *sql.Tx) ([]Restaurant, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, code FROM restaurant`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []Restaurant
	for rows.Next() {
		var r Restaurant
		if err := rows.Scan(&r.ID, &r.Code); err != nil {
			return nil, err
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, rows.Err()
}

// FutureMenus returns every menu dated today or later.
func (s *Store) FutureMenus(ctx context.Context, tx *sql.Tx, today string) ([]Menu, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT id, restaurant_id, code, date, type, price, etc, name_kr
FROM menu
WHERE date >= ?
`, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var menus []Menu
	for rows.Next() {
		var (
			m            Menu
			restaurantID sql.NullInt64
			menuType     sql.NullString
			price        sql.NullInt64
			etc          sql.NullString
			date         sql.RawBytes
		)
		if err := rows.Scan(&m.ID, &restaurantID, &m.Code, &date, &menuType, &price, &etc, &m.NameKR); err != nil {
			return nil, err
		}
		m.Date = normalizeDate(string(date))
		if restaurantID.Valid {
			id := restaurantID.Int64
			m.RestaurantID = &id
		}
		if menuType.Valid {
			m.Type = menuType.String
		}
		if price.Valid {
			p := int(price.Int64)
			m.Price = &p
		}
		if etc.Valid {
			m.Etc = etc.String
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

func (s *Store) InsertRestaurants(ctx context.Context, tx *sql.Tx, restaurants []NewRestaurant) error {
	if len(restaurants) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO restaurant(code, name_kr) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range restaurants {
		if _, err := stmt.ExecContext(ctx, r.Code, r.NameKR); err != nil {
			return fmt.Errorf("insert restaurant %q: %w", r.Code, err)
		}
	}
	return nil
}

func (s *Store) InsertMenus(ctx context.Context, tx *sql.Tx, menus []Menu) error {
	if len(menus) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO menu(restaurant_id, code, date, type, name_kr, price, etc)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range menus {
		if _, err := stmt.ExecContext(ctx,
			nullableID(m.RestaurantID), m.Code, m.Date, nullableString(m.Type),
			m.NameKR, nullableInt(m.Price), m.Etc,
		); err != nil {
			return fmt.Errorf("insert menu %q: %w", m.Code, err)
		}
	}
	return nil
}

// UpdateMenus overwrites the mutable detail fields of edited rows.
func (s *Store) UpdateMenus(ctx context.Context, tx *sql.Tx, menus []Menu) error {
	if len(menus) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
UPDATE menu SET price = ?, etc = ?, name_kr = ? WHERE id = ?
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range menus {
		if _, err := stmt.ExecContext(ctx, nullableInt(m.Price), m.Etc, m.NameKR, m.ID); err != nil {
			return fmt.Errorf("update menu %d: %w", m.ID, err)
		}
	}
	return nil
}

func (s *Store) DeleteMenus(ctx context.Context, tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM menu WHERE id IN (`+placeholders+`)`, args...)
	return err
}

// normalizeDate trims a scanned DATE value to its YYYY-MM-DD prefix;
// drivers differ on whether a time component is attached.
func normalizeDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
