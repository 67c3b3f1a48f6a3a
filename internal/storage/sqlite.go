package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"pricewatch/internal/domain"
	"pricewatch/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open opens (or creates) the sqlite database, applies pragmas and runs
// the schema migration.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	// foreign_keys is connection-scoped, so it goes in the DSN where every
	// new connection picks it up; the products ON DELETE CASCADE depends
	// on it.
	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) CreateUser(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(user_id, hour, minute) VALUES(?, ?, ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		id, domain.DefaultHour, domain.DefaultMinute,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *sqliteStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	var paused int
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, mode, hour, minute, timezone, paused FROM users WHERE user_id = ?`, id,
	).Scan(&u.ID, &u.Mode, &u.Hour, &u.Minute, &u.Timezone, &paused)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Paused = paused != 0
	return &u, nil
}

func (s *sqliteStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, mode, hour, minute, timezone, paused FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		var u domain.User
		var paused int
		if err := rows.Scan(&u.ID, &u.Mode, &u.Hour, &u.Minute, &u.Timezone, &paused); err != nil {
			return nil, err
		}
		u.Paused = paused != 0
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *sqliteStore) SetMode(ctx context.Context, id int64, mode domain.Mode) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET mode = ? WHERE user_id = ?`, int(mode), id)
	return err
}

func (s *sqliteStore) SetSchedule(ctx context.Context, id int64, hour, minute, timezone int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET hour = ?, minute = ?, timezone = ? WHERE user_id = ?`,
		hour, minute, timezone, id)
	return err
}

func (s *sqliteStore) SetTimezone(ctx context.Context, id int64, timezone int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET timezone = ? WHERE user_id = ?`, timezone, id)
	return err
}

func (s *sqliteStore) SetPaused(ctx context.Context, id int64, paused bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET paused = ? WHERE user_id = ?`, boolToInt(paused), id)
	return err
}

func (s *sqliteStore) DeleteUser(ctx context.Context, id int64) error {
	// products go with it via ON DELETE CASCADE.
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, id)
	return err
}

func (s *sqliteStore) AddItem(ctx context.Context, item domain.Item) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products(user_id, market, article, price, description) VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, market, article) DO NOTHING`,
		item.UserID, item.Market, item.Article, item.Price, item.Description,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *sqliteStore) DeleteItem(ctx context.Context, userID int64, market string, article int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM products WHERE user_id = ? AND market = ? AND article = ?`,
		userID, market, article,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *sqliteStore) ListItems(ctx context.Context, userID int64) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, market, article, price, description
		 FROM products WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.Market, &it.Article, &it.Price, &it.Description); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (s *sqliteStore) SetPrice(ctx context.Context, userID int64, market string, article, price int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE products SET price = ? WHERE user_id = ? AND market = ? AND article = ?`,
		price, userID, market, article)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
