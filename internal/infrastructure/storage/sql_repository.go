package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQL drivers accepted by OpenSQL.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	newsColumns = []string{
		"id", "title", "content", "url", "source", "author", "published_at", "image_url",
		"category", "sentiment", "topics", "read_time", "engagement", "created_at", "updated_at",
	}
	toolColumns = []string{
		"id", "name", "logo", "description", "category", "rating", "weekly_users", "growth",
		"website", "pricing", "source", "votes", "created_at", "updated_at",
	}
)

// SQLRepository persists news, tools and run locks into Postgres or SQLite.
type SQLRepository struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	tables Tables
	now    func() time.Time
}

var (
	_ ports.NewsRepository = (*SQLRepository)(nil)
	_ ports.ToolRepository = (*SQLRepository)(nil)
	_ ports.RunLocker      = (*SQLRepository)(nil)
)

// OpenSQL connects, applies pending migrations and returns a ready repository.
func OpenSQL(ctx context.Context, driver, dsn string, tables Tables) (*SQLRepository, error) {
	var format sq.PlaceholderFormat
	switch driver {
	case DriverPostgres:
		format = sq.Dollar
	case DriverSQLite:
		format = sq.Question
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == DriverSQLite {
		// One writer at a time; the pool would otherwise hit SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	r := &SQLRepository{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(format),
		tables: tables.withDefaults(),
		now:    time.Now,
	}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	render := strings.NewReplacer("{{news_table}}", r.tables.News, "{{tools_table}}", r.tables.Tools)

	for _, f := range files {
		query, args, err := r.sb.Select("COUNT(*)").From("schema_migrations").Where(sq.Eq{"version": f}).ToSql()
		if err != nil {
			return fmt.Errorf("build migration check: %w", err)
		}
		var applied int
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}

		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, render.Replace(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		insert, args, err := r.sb.Insert("schema_migrations").Columns("version").Values(f).ToSql()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build migration record: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
	}
	return nil
}

// NewsExists reports whether a news row with the id is stored.
func (r *SQLRepository) NewsExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, r.tables.News, id)
}

// ToolExists reports whether a tool row with the id is stored.
func (r *SQLRepository) ToolExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, r.tables.Tools, id)
}

func (r *SQLRepository) exists(ctx context.Context, table, id string) (bool, error) {
	query, args, err := r.sb.Select("1").From(table).Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s exists: %w", table, err)
	}
	return true, nil
}

// InsertNews adds a new news row.
func (r *SQLRepository) InsertNews(ctx context.Context, item domain.NewsItem) error {
	values, err := newsValues(item)
	if err != nil {
		return err
	}
	return r.exec(ctx, "insert news", r.sb.Insert(r.tables.News).Columns(newsColumns...).Values(values...))
}

// UpdateNews overwrites a news row, leaving created_at untouched.
func (r *SQLRepository) UpdateNews(ctx context.Context, item domain.NewsItem) error {
	values, err := newsValues(item)
	if err != nil {
		return err
	}
	return r.update(ctx, r.tables.News, item.ID, newsColumns, values)
}

// InsertTool adds a new tool row.
func (r *SQLRepository) InsertTool(ctx context.Context, item domain.ToolItem) error {
	return r.exec(ctx, "insert tool", r.sb.Insert(r.tables.Tools).Columns(toolColumns...).Values(toolValues(item)...))
}

// UpdateTool overwrites a tool row, leaving created_at untouched.
func (r *SQLRepository) UpdateTool(ctx context.Context, item domain.ToolItem) error {
	return r.update(ctx, r.tables.Tools, item.ID, toolColumns, toolValues(item))
}

func (r *SQLRepository) update(ctx context.Context, table, id string, columns []string, values []any) error {
	set := make(map[string]any, len(columns))
	for i, col := range columns {
		if col == "id" || col == "created_at" {
			continue
		}
		set[col] = values[i]
	}

	query, args, err := r.sb.Update(table).SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", table, err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s %s: no such row", table, id)
	}
	return nil
}

func (r *SQLRepository) exec(ctx context.Context, op string, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetNews loads one news row by id.
func (r *SQLRepository) GetNews(ctx context.Context, id string) (domain.NewsItem, error) {
	query, args, err := r.sb.Select(newsColumns...).From(r.tables.News).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.NewsItem{}, fmt.Errorf("build get news: %w", err)
	}

	var (
		row    newsRow
		topics string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.Title, &row.Content, &row.URL, &row.Source, &row.Author, &row.PublishedAt,
		&row.ImageURL, &row.Category, &row.Sentiment, &topics, &row.ReadTime, &row.Engagement,
		&row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return domain.NewsItem{}, fmt.Errorf("get news %s: %w", id, err)
	}
	if row.Topics, err = decodeTopics(topics); err != nil {
		return domain.NewsItem{}, err
	}
	return row.toDomain()
}

// GetTool loads one tool row by id.
func (r *SQLRepository) GetTool(ctx context.Context, id string) (domain.ToolItem, error) {
	query, args, err := r.sb.Select(toolColumns...).From(r.tables.Tools).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.ToolItem{}, fmt.Errorf("build get tool: %w", err)
	}

	var row toolRow
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.Name, &row.Logo, &row.Description, &row.Category, &row.Rating, &row.WeeklyUsers,
		&row.Growth, &row.Website, &row.Pricing, &row.Source, &row.Votes, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return domain.ToolItem{}, fmt.Errorf("get tool %s: %w", id, err)
	}
	return row.toDomain()
}

// Counts returns the number of stored news and tool rows.
func (r *SQLRepository) Counts(ctx context.Context) (news, tools int, err error) {
	if news, err = r.count(ctx, r.tables.News); err != nil {
		return 0, 0, err
	}
	if tools, err = r.count(ctx, r.tables.Tools); err != nil {
		return 0, 0, err
	}
	return news, tools, nil
}

func (r *SQLRepository) count(ctx context.Context, table string) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// TryLock claims the named lock when it is free, already ours, or older than ttl.
func (r *SQLRepository) TryLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	seed := r.sb.Insert(lockTable).Columns("name", "holder", "acquired_at").Values(name, "", 0).
		Suffix("ON CONFLICT (name) DO NOTHING")
	if err := r.exec(ctx, "seed lock", seed); err != nil {
		return false, err
	}

	now := r.now()
	stale := now.Add(-ttl).Unix()
	query, args, err := r.sb.Update(lockTable).
		Set("holder", holder).
		Set("acquired_at", now.Unix()).
		Where(sq.Eq{"name": name}).
		Where(sq.Or{sq.Eq{"holder": ""}, sq.Eq{"holder": holder}, sq.Lt{"acquired_at": stale}}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build acquire lock: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return n == 1, nil
}

// Unlock releases the named lock if holder still owns it.
func (r *SQLRepository) Unlock(ctx context.Context, name, holder string) error {
	release := r.sb.Update(lockTable).
		Set("holder", "").
		Set("acquired_at", 0).
		Where(sq.Eq{"name": name, "holder": holder})
	return r.exec(ctx, "release lock", release)
}

func newsValues(item domain.NewsItem) ([]any, error) {
	topics, err := encodeTopics(item.Topics)
	if err != nil {
		return nil, err
	}
	row := newsToRow(item)
	return []any{
		row.ID, row.Title, row.Content, row.URL, row.Source, row.Author, row.PublishedAt, row.ImageURL,
		row.Category, row.Sentiment, topics, row.ReadTime, row.Engagement, row.CreatedAt, row.UpdatedAt,
	}, nil
}

func toolValues(item domain.ToolItem) []any {
	row := toolToRow(item)
	return []any{
		row.ID, row.Name, row.Logo, row.Description, row.Category, row.Rating, row.WeeklyUsers, row.Growth,
		row.Website, row.Pricing, row.Source, row.Votes, row.CreatedAt, row.UpdatedAt,
	}
}
