package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/cloudconsole/internal/crypto"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// DefaultDSN is a process-local in-memory database.
const DefaultDSN = "file:cloudconsole?mode=memory&cache=shared"

const cloudsTable = "clouds"

// The builder covers queries only, so the table DDL is written out.
const createCloudsTable = `CREATE TABLE IF NOT EXISTS clouds (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	data TEXT NOT NULL,
	access_key TEXT NOT NULL DEFAULT '',
	secret_access_key TEXT NOT NULL DEFAULT ''
)`

var cloudColumns = []string{"id", "position", "name", "data", "access_key", "secret_access_key"}

// SQLStore keeps records in SQLite. Newest first is kept by a monotonically
// increasing position column; credentials are sealed at rest and the JSON
// document column never carries them.
type SQLStore struct {
	db     *sql.DB
	drv    *entsql.Driver
	sealer *crypto.Sealer
	logger *slog.Logger

	// mu serialises writers so position allocation stays monotonic.
	mu  sync.Mutex
	pos int64
}

// OpenSQLStore opens the database at dsn and creates the clouds table.
func OpenSQLStore(ctx context.Context, dsn string, sealer *crypto.Sealer, logger *slog.Logger) (*SQLStore, error) {
	if sealer == nil {
		return nil, fmt.Errorf("open sql store: sealer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// In-memory SQLite lives as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	s := &SQLStore{
		db:     db,
		drv:    entsql.OpenDB(dialect.SQLite, db),
		sealer: sealer,
		logger: logger,
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *SQLStore) Close() error {
	return s.drv.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	var res sql.Result
	if err := s.drv.Exec(ctx, createCloudsTable, []any{}, &res); err != nil {
		return fmt.Errorf("creating %s table: %w", cloudsTable, err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Select(entsql.Max("position")).
		From(entsql.Table(cloudsTable)).
		Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return fmt.Errorf("reading max position: %w", err)
	}
	defer rows.Close()
	var top sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&top); err != nil {
			return fmt.Errorf("scanning max position: %w", err)
		}
	}
	s.pos = top.Int64
	s.logger.Debug("cloud store migrated", "table", cloudsTable, "position", s.pos)
	return rows.Err()
}

func (s *SQLStore) List(ctx context.Context) ([]types.Cloud, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(cloudColumns...).
		From(entsql.Table(cloudsTable)).
		OrderBy(entsql.Desc("position")).
		Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("listing clouds: %w", err)
	}
	defer rows.Close()

	out := []types.Cloud{}
	for rows.Next() {
		c, err := s.scan(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing clouds: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (types.Cloud, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(cloudColumns...).
		From(entsql.Table(cloudsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return types.Cloud{}, fmt.Errorf("get %s: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return types.Cloud{}, fmt.Errorf("get %s: %w", id, err)
		}
		return types.Cloud{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return s.scan(&rows)
}

func (s *SQLStore) Create(ctx context.Context, c types.Cloud) (types.Cloud, error) {
	c = c.Clone()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	data, ak, sk, err := s.encode(c)
	if err != nil {
		return types.Cloud{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pos := s.pos + 1
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(cloudsTable).
		Columns(cloudColumns...).
		Values(c.ID, pos, c.Name, data, ak, sk).
		Query()
	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return types.Cloud{}, fmt.Errorf("create %s: %w", c.ID, err)
	}
	s.pos = pos
	return c.Clone(), nil
}

func (s *SQLStore) Update(ctx context.Context, c types.Cloud) (types.Cloud, error) {
	c = c.Clone()
	data, ak, sk, err := s.encode(c)
	if err != nil {
		return types.Cloud{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	query, args := entsql.Dialect(dialect.SQLite).
		Update(cloudsTable).
		Set("name", c.Name).
		Set("data", data).
		Set("access_key", ak).
		Set("secret_access_key", sk).
		Where(entsql.EQ("id", c.ID)).
		Query()
	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return types.Cloud{}, fmt.Errorf("update %s: %w", c.ID, err)
	}
	if err := affected(res, "update", c.ID); err != nil {
		return types.Cloud{}, err
	}
	return c.Clone(), nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(cloudsTable).
		Where(entsql.EQ("id", id)).
		Query()
	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return affected(res, "delete", id)
}

func affected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return nil
}

// encode splits c into its JSON document and sealed credentials.
func (s *SQLStore) encode(c types.Cloud) (data, accessKey, secretKey string, err error) {
	accessKey, err = s.sealer.Seal(c.Credentials.AccessKey)
	if err != nil {
		return "", "", "", fmt.Errorf("sealing access key: %w", err)
	}
	secretKey, err = s.sealer.Seal(c.Credentials.SecretAccessKey)
	if err != nil {
		return "", "", "", fmt.Errorf("sealing secret access key: %w", err)
	}
	doc := c
	doc.ID = ""
	doc.Credentials = types.Credentials{}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding cloud %s: %w", c.ID, err)
	}
	return string(b), accessKey, secretKey, nil
}

func (s *SQLStore) scan(rows *entsql.Rows) (types.Cloud, error) {
	var (
		id, name, data, ak, sk string
		pos                    int64
	)
	if err := rows.Scan(&id, &pos, &name, &data, &ak, &sk); err != nil {
		return types.Cloud{}, fmt.Errorf("scanning cloud: %w", err)
	}
	var c types.Cloud
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return types.Cloud{}, fmt.Errorf("decoding cloud %s: %w", id, err)
	}
	c.ID = id
	c.Name = name
	var err error
	if c.Credentials.AccessKey, err = s.sealer.Open(ak); err != nil {
		return types.Cloud{}, fmt.Errorf("opening access key for %s: %w", id, err)
	}
	if c.Credentials.SecretAccessKey, err = s.sealer.Open(sk); err != nil {
		return types.Cloud{}, fmt.Errorf("opening secret access key for %s: %w", id, err)
	}
	return c, nil
}
