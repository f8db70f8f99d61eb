// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pdiddy/gramps-faker/pkg/types"
)

// Snapshot reads every record of every kind, in creation order, together
// with the run metadata. The exporter turns one snapshot into a Gramps XML
// file.
func (s *Store) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	snap := &types.Snapshot{}

	var err error
	if snap.MediaPath, err = s.MediaPath(ctx); err != nil {
		return nil, err
	}
	if snap.DefaultPerson, err = s.DefaultPerson(ctx); err != nil {
		return nil, err
	}

	if err := s.snapshotPeople(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.snapshotFamilies(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.snapshotEvents(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.snapshotPlaces(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.snapshotMedia(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.snapshotNotes(ctx, snap); err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *Store) snapshotPeople(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, gramps_id, gender, given, surname, birth_ref_index,
			death_ref_index, event_refs, media_refs, note_refs,
			parent_families, families, change
		 FROM people ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("querying people: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p      types.Person
			gender string
			lists  [5]sql.NullString
		)
		if err := rows.Scan(&p.Handle, &p.GrampsID, &gender, &p.Given, &p.Surname,
			&p.BirthRefIndex, &p.DeathRefIndex, &lists[0], &lists[1], &lists[2],
			&lists[3], &lists[4], &p.Change); err != nil {
			return fmt.Errorf("scanning person: %w", err)
		}
		p.Gender = types.Gender(gender)
		unmarshalList(lists[0], &p.EventRefs)
		unmarshalList(lists[1], &p.MediaRefs)
		unmarshalList(lists[2], &p.NoteRefs)
		unmarshalList(lists[3], &p.ParentFamilies)
		unmarshalList(lists[4], &p.Families)
		snap.People = append(snap.People, p)
	}
	return rows.Err()
}

func (s *Store) snapshotFamilies(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, gramps_id, father_handle, mother_handle, event_refs,
			child_refs, media_refs, note_refs, change
		 FROM families ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("querying families: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f     types.Family
			lists [4]sql.NullString
		)
		if err := rows.Scan(&f.Handle, &f.GrampsID, &f.FatherHandle, &f.MotherHandle,
			&lists[0], &lists[1], &lists[2], &lists[3], &f.Change); err != nil {
			return fmt.Errorf("scanning family: %w", err)
		}
		unmarshalList(lists[0], &f.EventRefs)
		unmarshalList(lists[1], &f.ChildRefs)
		unmarshalList(lists[2], &f.MediaRefs)
		unmarshalList(lists[3], &f.NoteRefs)
		snap.Families = append(snap.Families, f)
	}
	return rows.Err()
}

func (s *Store) snapshotEvents(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, gramps_id, type, year, month, day, place_handle,
			note_refs, media_refs, change
		 FROM events ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e     types.Event
			etype string
			lists [2]sql.NullString
		)
		if err := rows.Scan(&e.Handle, &e.GrampsID, &etype, &e.Date.Year,
			&e.Date.Month, &e.Date.Day, &e.PlaceHandle,
			&lists[0], &lists[1], &e.Change); err != nil {
			return fmt.Errorf("scanning event: %w", err)
		}
		e.Type = types.EventType(etype)
		unmarshalList(lists[0], &e.NoteRefs)
		unmarshalList(lists[1], &e.MediaRefs)
		snap.Events = append(snap.Events, e)
	}
	return rows.Err()
}

func (s *Store) snapshotPlaces(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, gramps_id, type, name, latitude, longitude, change
		 FROM places ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("querying places: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p     types.Place
			ptype string
		)
		if err := rows.Scan(&p.Handle, &p.GrampsID, &ptype, &p.Name,
			&p.Latitude, &p.Longitude, &p.Change); err != nil {
			return fmt.Errorf("scanning place: %w", err)
		}
		p.Type = types.PlaceType(ptype)
		snap.Places = append(snap.Places, p)
	}
	return rows.Err()
}

func (s *Store) snapshotMedia(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, gramps_id, path, mime, checksum, description, change
		 FROM media ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("querying media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m types.Media
		if err := rows.Scan(&m.Handle, &m.GrampsID, &m.Path, &m.MIME,
			&m.Checksum, &m.Description, &m.Change); err != nil {
			return fmt.Errorf("scanning media: %w", err)
		}
		snap.Media = append(snap.Media, m)
	}
	return rows.Err()
}

func (s *Store) snapshotNotes(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, gramps_id, type, body, change FROM notes ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n     types.Note
			ntype string
		)
		if err := rows.Scan(&n.Handle, &n.GrampsID, &ntype, &n.Text, &n.Change); err != nil {
			return fmt.Errorf("scanning note: %w", err)
		}
		n.Type = types.NoteType(ntype)
		snap.Notes = append(snap.Notes, n)
	}
	return rows.Err()
}

// Counts holds per-kind record totals for run summaries.
type Counts struct {
	People   int
	Families int
	Events   int
	Places   int
	Media    int
	Notes    int
}

// Counts returns the number of records of each kind.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"people", &c.People},
		{"families", &c.Families},
		{"events", &c.Events},
		{"places", &c.Places},
		{"media", &c.Media},
		{"notes", &c.Notes},
	} {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("counting %s: %w", q.table, err)
		}
	}
	return c, nil
}
