package reputation

import (
	"bufio"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/utils"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrEntryNotFound = errors.New("blocklist entry not found")

// Entry is one blocklisted host or registrable domain.
type Entry struct {
	Host    string    `json:"host"`
	Score   float64   `json:"score"`
	Threats []string  `json:"threats,omitempty"`
	Source  string    `json:"source,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// SQLiteBlocklist is a local threat-intel list kept in SQLite. It stores
// verdicts, not scan history.
type SQLiteBlocklist struct {
	db     *sql.DB
	ownsDB bool
	logger logging.Logger
}

// OpenBlocklist opens (creating if needed) the SQLite file at path.
func OpenBlocklist(path string, logger logging.Logger) (*SQLiteBlocklist, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blocklist pragmas: %w", err)
	}
	bl, err := NewSQLiteBlocklist(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	bl.ownsDB = true
	return bl, nil
}

// NewSQLiteBlocklist runs migrations from schema.sql on db.
func NewSQLiteBlocklist(db *sql.DB, logger logging.Logger) (*SQLiteBlocklist, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &SQLiteBlocklist{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "blocklist"}),
	}, nil
}

func normalizeHost(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	if strings.Contains(h, "://") {
		h = utils.Hostname(h)
	}
	return strings.TrimSuffix(h, ".")
}

// Add inserts or replaces an entry. A zero Score defaults to 4.
func (b *SQLiteBlocklist) Add(ctx context.Context, e Entry) error {
	host := normalizeHost(e.Host)
	if host == "" {
		return fmt.Errorf("blocklist entry: empty host")
	}
	if e.Score == 0 {
		e.Score = 4
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now()
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO blocklist(host, score, threats, source, added_at) VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(host) DO UPDATE SET score = excluded.score, threats = excluded.threats,
		 source = excluded.source, added_at = excluded.added_at`,
		host, e.Score, strings.Join(e.Threats, "\n"), e.Source, e.AddedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert blocklist entry: %w", err)
	}
	b.logger.Debug("blocklist entry added", logging.Field{Key: "host", Value: host})
	return nil
}

// Remove deletes host; ErrEntryNotFound when absent.
func (b *SQLiteBlocklist) Remove(ctx context.Context, host string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM blocklist WHERE host = ?`, normalizeHost(host))
	if err != nil {
		return fmt.Errorf("delete blocklist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Get returns the entry stored for host exactly.
func (b *SQLiteBlocklist) Get(ctx context.Context, host string) (*Entry, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT host, score, threats, source, added_at FROM blocklist WHERE host = ?`, normalizeHost(host))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

// List returns entries, newest first.
func (b *SQLiteBlocklist) List(ctx context.Context) ([]Entry, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT host, score, threats, source, added_at FROM blocklist ORDER BY added_at DESC, host`)
	if err != nil {
		return nil, fmt.Errorf("list blocklist: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Import reads one host per line; blank lines and lines starting with # are
// skipped. It returns the number of hosts added.
func (b *SQLiteBlocklist) Import(ctx context.Context, r io.Reader, source string) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := b.Add(ctx, Entry{Host: line, Source: source, Threats: []string{"Listed in " + source}}); err != nil {
			return n, err
		}
		n++
	}
	return n, sc.Err()
}

// Lookup checks the URL's host, then its registrable domain. A host that is
// not listed gets a zero verdict.
func (b *SQLiteBlocklist) Lookup(ctx context.Context, rawURL string) (*Verdict, error) {
	host := utils.Hostname(rawURL)
	if host == "" {
		return nil, ErrUnavailable
	}
	candidates := []string{host}
	if reg := utils.RegistrableDomain(host); reg != host {
		candidates = append(candidates, reg)
	}
	for _, c := range candidates {
		e, err := b.Get(ctx, c)
		if errors.Is(err, ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("blocklist lookup: %w", err)
		}
		b.logger.Info("blocklist hit",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "entry", Value: e.Host})
		return &Verdict{Score: e.Score, Threats: e.Threats, Source: "blocklist"}, nil
	}
	return &Verdict{Source: "blocklist"}, nil
}

func (b *SQLiteBlocklist) Close() error {
	if b.ownsDB {
		return b.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (*Entry, error) {
	var (
		e       Entry
		threats string
		added   int64
	)
	if err := r.Scan(&e.Host, &e.Score, &threats, &e.Source, &added); err != nil {
		return nil, err
	}
	if threats != "" {
		e.Threats = strings.Split(threats, "\n")
	}
	e.AddedAt = time.Unix(added, 0)
	return &e, nil
}
