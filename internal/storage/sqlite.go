// Package storage handles database connections, schema migrations, and the
// per-server player-count series kept in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Driver sqlite

	"github.com/cubemon/cubemon/internal/models"
)

// HistoryLimit bounds the per-server ping history. At the default one-minute
// cycle cadence this window covers 24 hours, which is what the peak players
// aggregate is computed over.
const HistoryLimit = 1440

// OfflineBannerText is stored when a probe returns no message of the day.
const OfflineBannerText = "Server Offline"

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters,
// and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Upsert persists one liveness sample for the server identified by
// cfg.Address and cfg.Port and returns the updated record. In one
// transaction it creates the record on first sighting, refreshes the display
// name and banners, appends a history entry, truncates the history to
// HistoryLimit from the oldest end, recomputes the windowed peak and raises
// the monotonic all-time count.
//
// Banner policy: an empty sample image falls back to bannerFallback, an
// empty sample text falls back to OfflineBannerText.
func (r *Repository) Upsert(sample models.LivenessSample, cfg models.ServerConfig, bannerFallback string) (*models.SeriesRecord, error) {
	players := sample.CurrentPlayers
	if players < 0 {
		players = 0
	}

	image := sample.BannerImage
	if image == "" {
		image = bannerFallback
	}

	text := sample.BannerText
	if text == "" {
		text = OfflineBannerText
	}

	at := sample.SampledAt
	if at.IsZero() {
		at = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO servers (
			address, port, platform, display_name,
			peak_players, all_time_players, banner_image, banner_text,
			first_seen, last_seen
		)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
		ON CONFLICT(address, port) DO UPDATE SET
			display_name     = excluded.display_name,
			all_time_players = MAX(servers.all_time_players, excluded.all_time_players),
			banner_image     = excluded.banner_image,
			banner_text      = excluded.banner_text,
			last_seen        = excluded.last_seen
	`, cfg.Address, cfg.Port, cfg.Platform, cfg.Name,
		players, image, text, at, at)
	if err != nil {
		return nil, fmt.Errorf("upsert server row: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO pings (address, port, players, ts) VALUES (?, ?, ?, ?)`,
		cfg.Address, cfg.Port, players, at,
	); err != nil {
		return nil, fmt.Errorf("append ping: %w", err)
	}

	// FIFO truncation: keep only the newest HistoryLimit entries.
	if _, err := tx.Exec(`
		DELETE FROM pings
		WHERE address = ? AND port = ? AND id NOT IN (
			SELECT id FROM pings WHERE address = ? AND port = ?
			ORDER BY id DESC LIMIT ?
		)
	`, cfg.Address, cfg.Port, cfg.Address, cfg.Port, HistoryLimit); err != nil {
		return nil, fmt.Errorf("truncate history: %w", err)
	}

	// The peak is windowed over what is left in the history, so it decays
	// as old peak samples fall out of the window.
	if _, err := tx.Exec(`
		UPDATE servers SET peak_players = (
			SELECT IFNULL(MAX(players), 0) FROM pings WHERE address = ? AND port = ?
		)
		WHERE address = ? AND port = ?
	`, cfg.Address, cfg.Port, cfg.Address, cfg.Port); err != nil {
		return nil, fmt.Errorf("recompute peak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.Get(cfg.Address, cfg.Port)
}

// Get retrieves a server record with its full history, or nil if the
// identity key is unknown.
func (r *Repository) Get(address string, port uint16) (*models.SeriesRecord, error) {
	row := r.db.QueryRow(`
		SELECT address, port, platform, display_name,
		       peak_players, all_time_players, banner_image, banner_text,
		       first_seen, last_seen
		FROM servers
		WHERE address = ? AND port = ?
	`, address, port)

	var rec models.SeriesRecord
	err := row.Scan(
		&rec.Address, &rec.Port, &rec.Platform, &rec.DisplayName,
		&rec.PeakPlayers, &rec.AllTimePlayers, &rec.BannerImage, &rec.BannerText,
		&rec.FirstSeen, &rec.LastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT players, ts FROM pings
		WHERE address = ? AND port = ?
		ORDER BY id ASC
	`, address, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var p models.PingPoint
		if err := rows.Scan(&p.Players, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ping row: %w", err)
		}
		rec.History = append(rec.History, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Reconcile deletes every record of the given platform whose identity key is
// not in the live set, along with its history. It returns the number of
// servers removed. Records of the other platform are never touched.
func (r *Repository) Reconcile(platform models.Platform, live map[string]struct{}) (int64, error) {
	rows, err := r.db.Query(`SELECT address, port FROM servers WHERE platform = ?`, platform)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	type key struct {
		address string
		port    uint16
	}

	var stale []key
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.address, &k.port); err != nil {
			return 0, fmt.Errorf("scan server key: %w", err)
		}
		if _, ok := live[models.Key(k.address, k.port)]; !ok {
			stale = append(stale, k)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, k := range stale {
		if _, err := tx.Exec(`DELETE FROM pings WHERE address = ? AND port = ?`, k.address, k.port); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`DELETE FROM servers WHERE address = ? AND port = ?`, k.address, k.port); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return int64(len(stale)), nil
}

// PruneOrphanPings removes history rows whose server record no longer
// exists. Used by the --prune-orphans maintenance flag.
func (r *Repository) PruneOrphanPings() (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM pings WHERE NOT EXISTS (
			SELECT 1 FROM servers s
			WHERE s.address = pings.address AND s.port = pings.port
		)
	`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
