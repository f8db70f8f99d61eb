// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const defaultMaxResults = 20

// QueryOptions holds filters for people queries against a kept staging
// database.
type QueryOptions struct {
	// Surname filters by exact surname.
	Surname string

	// BornAfter keeps people born strictly after this year when non-zero.
	BornAfter int

	// BornBefore keeps people born strictly before this year when non-zero.
	BornBefore int

	// MaxResults limits result count. Zero uses the default (20).
	MaxResults int
}

// PersonRow is one line of people-query output. Birth and death years are
// zero when the person has no such event.
type PersonRow struct {
	GrampsID  string `json:"gramps_id"`
	Given     string `json:"given"`
	Surname   string `json:"surname"`
	Gender    string `json:"gender"`
	BirthYear int    `json:"birth_year,omitempty"`
	DeathYear int    `json:"death_year,omitempty"`
}

// QueryPeople lists generated people with optional filters, in creation
// order. Birth and death years come from the events each person's
// birth/death reference index points at.
func (s *Store) QueryPeople(ctx context.Context, opts QueryOptions) ([]PersonRow, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT p.gramps_id, p.given, p.surname, p.gender,
			COALESCE(b.year, 0), COALESCE(d.year, 0)
		FROM people p
		LEFT JOIN events b
			ON p.birth_ref_index >= 0
			AND b.handle = json_extract(p.event_refs, '$[' || p.birth_ref_index || '].ref')
		LEFT JOIN events d
			ON p.death_ref_index >= 0
			AND d.handle = json_extract(p.event_refs, '$[' || p.death_ref_index || '].ref')
		WHERE 1=1`)

	if opts.Surname != "" {
		qb.WriteString(` AND p.surname = ?`)
		args = append(args, opts.Surname)
	}

	if opts.BornAfter != 0 {
		qb.WriteString(` AND b.year > ?`)
		args = append(args, opts.BornAfter)
	}

	if opts.BornBefore != 0 {
		qb.WriteString(` AND b.year < ?`)
		args = append(args, opts.BornBefore)
	}

	qb.WriteString(` ORDER BY p.rowid LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}
	defer rows.Close()

	var results []PersonRow
	for rows.Next() {
		var r PersonRow
		if err := rows.Scan(&r.GrampsID, &r.Given, &r.Surname, &r.Gender,
			&r.BirthYear, &r.DeathYear); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// FormatTable writes people rows as a human-readable table to w.
func FormatTable(rows []PersonRow, w io.Writer) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No people found.")
		return
	}

	fmt.Fprintf(w, "%-6s  %-20s  %-20s  %-6s  %-5s  %-5s\n",
		"ID", "Given", "Surname", "Gender", "Born", "Died")
	fmt.Fprintln(w, strings.Repeat("-", 71))

	for _, r := range rows {
		born, died := "", ""
		if r.BirthYear != 0 {
			born = fmt.Sprintf("%d", r.BirthYear)
		}
		if r.DeathYear != 0 {
			died = fmt.Sprintf("%d", r.DeathYear)
		}
		fmt.Fprintf(w, "%-6s  %-20s  %-20s  %-6s  %-5s  %-5s\n",
			r.GrampsID, truncate(r.Given, 20), truncate(r.Surname, 20),
			r.Gender, born, died)
	}

	fmt.Fprintf(w, "\n%d people\n", len(rows))
}

// FormatJSON writes people rows as indented JSON to w.
func FormatJSON(rows []PersonRow, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
