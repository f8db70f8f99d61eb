// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package db stages generated tree records in a SQLite database. A
// generation run accumulates people, families, events, places, notes, and
// media here and the exporter reads a complete snapshot back out.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/gramps-faker/pkg/types"
)

// MemoryPath selects an in-memory staging database, the default for
// one-shot generation runs.
const MemoryPath = ":memory:"

// GrampsID prefixes, one per record kind, matching the identifiers the
// desktop application assigns.
const (
	prefixPerson = "I"
	prefixFamily = "F"
	prefixEvent  = "E"
	prefixPlace  = "P"
	prefixMedia  = "O"
	prefixNote   = "N"
)

// Store manages the staging SQLite database.
type Store struct {
	db  *sql.DB
	seq map[string]int
}

// Open opens or creates the staging database at path. MemoryPath keeps the
// database in memory; any other path is created on disk (parent directories
// included) with WAL and foreign keys enabled. The schema is created when
// missing.
func Open(path string) (*Store, error) {
	dsn := path
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_foreign_keys=on"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// An in-memory SQLite database exists per connection; pin the pool to
	// one so every statement sees the same database.
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: sqlDB, seq: make(map[string]int)}

	if err := s.createSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.initSeq(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("reading ID counters: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS people (
			handle TEXT PRIMARY KEY,
			gramps_id TEXT NOT NULL UNIQUE,
			gender TEXT NOT NULL,
			given TEXT,
			surname TEXT,
			birth_ref_index INTEGER NOT NULL DEFAULT -1,
			death_ref_index INTEGER NOT NULL DEFAULT -1,
			event_refs TEXT,
			media_refs TEXT,
			note_refs TEXT,
			parent_families TEXT,
			families TEXT,
			change INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_people_surname ON people(surname)`,
		`CREATE TABLE IF NOT EXISTS families (
			handle TEXT PRIMARY KEY,
			gramps_id TEXT NOT NULL UNIQUE,
			father_handle TEXT,
			mother_handle TEXT,
			event_refs TEXT,
			child_refs TEXT,
			media_refs TEXT,
			note_refs TEXT,
			change INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			handle TEXT PRIMARY KEY,
			gramps_id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			year INTEGER,
			month INTEGER,
			day INTEGER,
			place_handle TEXT,
			note_refs TEXT,
			media_refs TEXT,
			change INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS places (
			handle TEXT PRIMARY KEY,
			gramps_id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			name TEXT,
			latitude TEXT,
			longitude TEXT,
			change INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			handle TEXT PRIMARY KEY,
			gramps_id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			body TEXT,
			change INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS media (
			handle TEXT PRIMARY KEY,
			gramps_id TEXT NOT NULL UNIQUE,
			path TEXT NOT NULL,
			mime TEXT,
			checksum TEXT,
			description TEXT,
			change INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// initSeq resumes the per-kind GrampsID counters from the row counts, so
// reopening a kept staging database continues numbering where it stopped.
func (s *Store) initSeq() error {
	counters := []struct{ prefix, table string }{
		{prefixPerson, "people"},
		{prefixFamily, "families"},
		{prefixEvent, "events"},
		{prefixPlace, "places"},
		{prefixMedia, "media"},
		{prefixNote, "notes"},
	}
	for _, c := range counters {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + c.table).Scan(&n); err != nil {
			return fmt.Errorf("counting %s: %w", c.table, err)
		}
		s.seq[c.prefix] = n
	}
	return nil
}

func (s *Store) nextID(prefix string) string {
	n := s.seq[prefix]
	s.seq[prefix] = n + 1
	return fmt.Sprintf("%s%04d", prefix, n)
}

// PutPerson inserts or updates a person by handle, assigning a GrampsID on
// first write. The record's Change timestamp is refreshed.
func (s *Store) PutPerson(ctx context.Context, p *types.Person) error {
	if p.Handle == "" {
		return fmt.Errorf("person has no handle")
	}
	if p.GrampsID == "" {
		p.GrampsID = s.nextID(prefixPerson)
	}
	p.Change = time.Now().Unix()

	eventRefs, _ := json.Marshal(p.EventRefs)
	mediaRefs, _ := json.Marshal(p.MediaRefs)
	noteRefs, _ := json.Marshal(p.NoteRefs)
	parentFams, _ := json.Marshal(p.ParentFamilies)
	fams, _ := json.Marshal(p.Families)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO people (handle, gramps_id, gender, given, surname,
			birth_ref_index, death_ref_index, event_refs, media_refs,
			note_refs, parent_families, families, change)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(handle) DO UPDATE SET
			gender=excluded.gender, given=excluded.given, surname=excluded.surname,
			birth_ref_index=excluded.birth_ref_index, death_ref_index=excluded.death_ref_index,
			event_refs=excluded.event_refs, media_refs=excluded.media_refs,
			note_refs=excluded.note_refs, parent_families=excluded.parent_families,
			families=excluded.families, change=excluded.change`,
		p.Handle, p.GrampsID, string(p.Gender), p.Given, p.Surname,
		p.BirthRefIndex, p.DeathRefIndex, string(eventRefs), string(mediaRefs),
		string(noteRefs), string(parentFams), string(fams), p.Change,
	)
	if err != nil {
		return fmt.Errorf("upserting person %s: %w", p.Handle, err)
	}
	return nil
}

// PutFamily inserts or updates a family by handle.
func (s *Store) PutFamily(ctx context.Context, f *types.Family) error {
	if f.Handle == "" {
		return fmt.Errorf("family has no handle")
	}
	if f.GrampsID == "" {
		f.GrampsID = s.nextID(prefixFamily)
	}
	f.Change = time.Now().Unix()

	eventRefs, _ := json.Marshal(f.EventRefs)
	childRefs, _ := json.Marshal(f.ChildRefs)
	mediaRefs, _ := json.Marshal(f.MediaRefs)
	noteRefs, _ := json.Marshal(f.NoteRefs)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO families (handle, gramps_id, father_handle, mother_handle,
			event_refs, child_refs, media_refs, note_refs, change)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(handle) DO UPDATE SET
			father_handle=excluded.father_handle, mother_handle=excluded.mother_handle,
			event_refs=excluded.event_refs, child_refs=excluded.child_refs,
			media_refs=excluded.media_refs, note_refs=excluded.note_refs,
			change=excluded.change`,
		f.Handle, f.GrampsID, f.FatherHandle, f.MotherHandle,
		string(eventRefs), string(childRefs), string(mediaRefs), string(noteRefs), f.Change,
	)
	if err != nil {
		return fmt.Errorf("upserting family %s: %w", f.Handle, err)
	}
	return nil
}

// PutEvent inserts or updates an event by handle.
func (s *Store) PutEvent(ctx context.Context, e *types.Event) error {
	if e.Handle == "" {
		return fmt.Errorf("event has no handle")
	}
	if e.GrampsID == "" {
		e.GrampsID = s.nextID(prefixEvent)
	}
	e.Change = time.Now().Unix()

	noteRefs, _ := json.Marshal(e.NoteRefs)
	mediaRefs, _ := json.Marshal(e.MediaRefs)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (handle, gramps_id, type, year, month, day,
			place_handle, note_refs, media_refs, change)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(handle) DO UPDATE SET
			type=excluded.type, year=excluded.year, month=excluded.month,
			day=excluded.day, place_handle=excluded.place_handle,
			note_refs=excluded.note_refs, media_refs=excluded.media_refs,
			change=excluded.change`,
		e.Handle, e.GrampsID, string(e.Type), e.Date.Year, e.Date.Month, e.Date.Day,
		e.PlaceHandle, string(noteRefs), string(mediaRefs), e.Change,
	)
	if err != nil {
		return fmt.Errorf("upserting event %s: %w", e.Handle, err)
	}
	return nil
}

// PutPlaces inserts all places in one transaction. Places are created in a
// single batch at the start of a run, before any person exists.
func (s *Store) PutPlaces(ctx context.Context, places []*types.Place) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO places (handle, gramps_id, type, name, latitude, longitude, change)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(handle) DO UPDATE SET
			type=excluded.type, name=excluded.name, latitude=excluded.latitude,
			longitude=excluded.longitude, change=excluded.change`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range places {
		if p.Handle == "" {
			return fmt.Errorf("place has no handle")
		}
		if p.GrampsID == "" {
			p.GrampsID = s.nextID(prefixPlace)
		}
		p.Change = time.Now().Unix()
		if _, err := stmt.ExecContext(ctx,
			p.Handle, p.GrampsID, string(p.Type), p.Name, p.Latitude, p.Longitude, p.Change,
		); err != nil {
			return fmt.Errorf("inserting place %s: %w", p.Handle, err)
		}
	}

	return tx.Commit()
}

// PutNote inserts or updates a note by handle.
func (s *Store) PutNote(ctx context.Context, n *types.Note) error {
	if n.Handle == "" {
		return fmt.Errorf("note has no handle")
	}
	if n.GrampsID == "" {
		n.GrampsID = s.nextID(prefixNote)
	}
	n.Change = time.Now().Unix()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (handle, gramps_id, type, body, change)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(handle) DO UPDATE SET
			type=excluded.type, body=excluded.body, change=excluded.change`,
		n.Handle, n.GrampsID, string(n.Type), n.Text, n.Change,
	)
	if err != nil {
		return fmt.Errorf("upserting note %s: %w", n.Handle, err)
	}
	return nil
}

// PutMedia inserts or updates a media object by handle.
func (s *Store) PutMedia(ctx context.Context, m *types.Media) error {
	if m.Handle == "" {
		return fmt.Errorf("media has no handle")
	}
	if m.GrampsID == "" {
		m.GrampsID = s.nextID(prefixMedia)
	}
	m.Change = time.Now().Unix()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media (handle, gramps_id, path, mime, checksum, description, change)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(handle) DO UPDATE SET
			path=excluded.path, mime=excluded.mime, checksum=excluded.checksum,
			description=excluded.description, change=excluded.change`,
		m.Handle, m.GrampsID, m.Path, m.MIME, m.Checksum, m.Description, m.Change,
	)
	if err != nil {
		return fmt.Errorf("upserting media %s: %w", m.Handle, err)
	}
	return nil
}

// Person returns the person with the given handle.
func (s *Store) Person(ctx context.Context, handle string) (*types.Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT handle, gramps_id, gender, given, surname, birth_ref_index,
			death_ref_index, event_refs, media_refs, note_refs,
			parent_families, families, change
		 FROM people WHERE handle = ?`, handle)

	var (
		p      types.Person
		gender string
		lists  [5]sql.NullString
	)
	err := row.Scan(&p.Handle, &p.GrampsID, &gender, &p.Given, &p.Surname,
		&p.BirthRefIndex, &p.DeathRefIndex, &lists[0], &lists[1], &lists[2],
		&lists[3], &lists[4], &p.Change)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("person %s not found", handle)
		}
		return nil, fmt.Errorf("loading person %s: %w", handle, err)
	}

	p.Gender = types.Gender(gender)
	unmarshalList(lists[0], &p.EventRefs)
	unmarshalList(lists[1], &p.MediaRefs)
	unmarshalList(lists[2], &p.NoteRefs)
	unmarshalList(lists[3], &p.ParentFamilies)
	unmarshalList(lists[4], &p.Families)
	return &p, nil
}

// Event returns the event with the given handle. The generator reads birth
// events back to derive years and places for relatives.
func (s *Store) Event(ctx context.Context, handle string) (*types.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT handle, gramps_id, type, year, month, day, place_handle,
			note_refs, media_refs, change
		 FROM events WHERE handle = ?`, handle)

	var (
		e     types.Event
		etype string
		lists [2]sql.NullString
	)
	err := row.Scan(&e.Handle, &e.GrampsID, &etype, &e.Date.Year, &e.Date.Month,
		&e.Date.Day, &e.PlaceHandle, &lists[0], &lists[1], &e.Change)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event %s not found", handle)
		}
		return nil, fmt.Errorf("loading event %s: %w", handle, err)
	}

	e.Type = types.EventType(etype)
	unmarshalList(lists[0], &e.NoteRefs)
	unmarshalList(lists[1], &e.MediaRefs)
	return &e, nil
}

// unmarshalList decodes a JSON-encoded list column into dst, leaving dst
// untouched for NULL or empty columns.
func unmarshalList[T any](col sql.NullString, dst *T) {
	if col.Valid && col.String != "" {
		json.Unmarshal([]byte(col.String), dst)
	}
}

const (
	metaMediaPath     = "media_path"
	metaDefaultPerson = "default_person"
)

// SetMediaPath records the base directory media paths are relative to.
func (s *Store) SetMediaPath(ctx context.Context, path string) error {
	return s.setMeta(ctx, metaMediaPath, path)
}

// MediaPath returns the recorded media base directory, empty when unset.
func (s *Store) MediaPath(ctx context.Context) (string, error) {
	return s.getMeta(ctx, metaMediaPath)
}

// SetDefaultPerson records the start person of the generated tree.
func (s *Store) SetDefaultPerson(ctx context.Context, handle string) error {
	return s.setMeta(ctx, metaDefaultPerson, handle)
}

// DefaultPerson returns the recorded start person handle, empty when unset.
func (s *Store) DefaultPerson(ctx context.Context) (string, error) {
	return s.getMeta(ctx, metaDefaultPerson)
}

func (s *Store) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("setting metadata %s: %w", key, err)
	}
	return nil
}

func (s *Store) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("reading metadata %s: %w", key, err)
	}
	return value, nil
}
