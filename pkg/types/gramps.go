// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Gender is a person's sex as recorded in the Gramps XML gender element.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = "U"
)

// EventType identifies a vital event. Values match the Gramps XML
// event type strings.
type EventType string

const (
	EventBirth    EventType = "Birth"
	EventDeath    EventType = "Death"
	EventMarriage EventType = "Marriage"
)

// PlaceType categorizes a place record. Values match the Gramps XML
// placeobj type attribute.
type PlaceType string

const (
	PlaceCity         PlaceType = "City"
	PlaceHamlet       PlaceType = "Hamlet"
	PlaceLocality     PlaceType = "Locality"
	PlaceMunicipality PlaceType = "Municipality"
	PlaceVillage      PlaceType = "Village"
	PlaceTown         PlaceType = "Town"
)

// NoteType categorizes a note record.
type NoteType string

const (
	NoteGeneral NoteType = "General"
)

// RolePrimary is the event-reference role recorded on every generated
// event reference.
const RolePrimary = "Primary"

// Date is a plain calendar date. The zero value means "no date".
type Date struct {
	Year  int `json:"year" yaml:"year"`
	Month int `json:"month" yaml:"month"`
	Day   int `json:"day" yaml:"day"`
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String renders the date in the YYYY-MM-DD form used by Gramps XML
// dateval attributes.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// EventRef links a person or family to an event record.
type EventRef struct {
	// Ref is the handle of the referenced event.
	Ref string `json:"ref" yaml:"ref"`

	// Role is the participant role, always "Primary" for generated trees.
	Role string `json:"role" yaml:"role"`
}

// Person is a generated individual record.
type Person struct {
	// Handle is the unique internal identifier (a UUID).
	Handle string `json:"handle" yaml:"handle"`

	// GrampsID is the human-facing identifier (e.g. "I0042"), assigned
	// by the store on first write.
	GrampsID string `json:"gramps_id" yaml:"gramps_id"`

	// Gender is M, F, or U.
	Gender Gender `json:"gender" yaml:"gender"`

	// Given is the first name.
	Given string `json:"given" yaml:"given"`

	// Surname is the family name.
	Surname string `json:"surname" yaml:"surname"`

	// EventRefs lists the person's events in creation order.
	EventRefs []EventRef `json:"event_refs,omitempty" yaml:"event_refs,omitempty"`

	// BirthRefIndex is the index into EventRefs of the birth event, or -1.
	BirthRefIndex int `json:"birth_ref_index" yaml:"birth_ref_index"`

	// DeathRefIndex is the index into EventRefs of the death event, or -1.
	DeathRefIndex int `json:"death_ref_index" yaml:"death_ref_index"`

	// MediaRefs lists handles of media objects attached to the person.
	MediaRefs []string `json:"media_refs,omitempty" yaml:"media_refs,omitempty"`

	// NoteRefs lists handles of notes attached to the person.
	NoteRefs []string `json:"note_refs,omitempty" yaml:"note_refs,omitempty"`

	// ParentFamilies lists handles of families in which this person is a child.
	ParentFamilies []string `json:"parent_families,omitempty" yaml:"parent_families,omitempty"`

	// Families lists handles of families in which this person is a spouse.
	Families []string `json:"families,omitempty" yaml:"families,omitempty"`

	// Change is the Unix timestamp of the last store write.
	Change int64 `json:"change" yaml:"change"`
}

// DisplayName returns the person's full name for media descriptions and
// table output.
func (p *Person) DisplayName() string {
	return strings.TrimSpace(p.Given + " " + p.Surname)
}

// BirthRef returns the person's birth event reference, if any.
func (p *Person) BirthRef() (EventRef, bool) {
	if p.BirthRefIndex < 0 || p.BirthRefIndex >= len(p.EventRefs) {
		return EventRef{}, false
	}
	return p.EventRefs[p.BirthRefIndex], true
}

// Family is a union of up to two parents and their children.
type Family struct {
	// Handle is the unique internal identifier.
	Handle string `json:"handle" yaml:"handle"`

	// GrampsID is the human-facing identifier (e.g. "F0007").
	GrampsID string `json:"gramps_id" yaml:"gramps_id"`

	// FatherHandle references the father, empty when absent.
	FatherHandle string `json:"father_handle,omitempty" yaml:"father_handle,omitempty"`

	// MotherHandle references the mother, empty when absent.
	MotherHandle string `json:"mother_handle,omitempty" yaml:"mother_handle,omitempty"`

	// EventRefs lists family events (the marriage, when present).
	EventRefs []EventRef `json:"event_refs,omitempty" yaml:"event_refs,omitempty"`

	// ChildRefs lists child person handles in birth order of creation.
	ChildRefs []string `json:"child_refs,omitempty" yaml:"child_refs,omitempty"`

	// MediaRefs lists handles of media objects attached to the family.
	MediaRefs []string `json:"media_refs,omitempty" yaml:"media_refs,omitempty"`

	// NoteRefs lists handles of notes attached to the family.
	NoteRefs []string `json:"note_refs,omitempty" yaml:"note_refs,omitempty"`

	// Change is the Unix timestamp of the last store write.
	Change int64 `json:"change" yaml:"change"`
}

// Event is a vital event (birth, death, or marriage).
type Event struct {
	// Handle is the unique internal identifier.
	Handle string `json:"handle" yaml:"handle"`

	// GrampsID is the human-facing identifier (e.g. "E0123").
	GrampsID string `json:"gramps_id" yaml:"gramps_id"`

	// Type is the event type.
	Type EventType `json:"type" yaml:"type"`

	// Date is the event date.
	Date Date `json:"date" yaml:"date"`

	// PlaceHandle references the place where the event occurred, empty
	// when unknown (marriages carry no place).
	PlaceHandle string `json:"place_handle,omitempty" yaml:"place_handle,omitempty"`

	// NoteRefs lists handles of notes attached to the event.
	NoteRefs []string `json:"note_refs,omitempty" yaml:"note_refs,omitempty"`

	// MediaRefs lists handles of media objects attached to the event
	// (wedding pictures).
	MediaRefs []string `json:"media_refs,omitempty" yaml:"media_refs,omitempty"`

	// Change is the Unix timestamp of the last store write.
	Change int64 `json:"change" yaml:"change"`
}

// Place is a location record referenced by events.
type Place struct {
	// Handle is the unique internal identifier.
	Handle string `json:"handle" yaml:"handle"`

	// GrampsID is the human-facing identifier (e.g. "P0011").
	GrampsID string `json:"gramps_id" yaml:"gramps_id"`

	// Type categorizes the place (city, village, ...).
	Type PlaceType `json:"type" yaml:"type"`

	// Name is the place name.
	Name string `json:"name" yaml:"name"`

	// Latitude and Longitude are decimal-degree strings, as Gramps
	// stores coordinates.
	Latitude  string `json:"latitude" yaml:"latitude"`
	Longitude string `json:"longitude" yaml:"longitude"`

	// Change is the Unix timestamp of the last store write.
	Change int64 `json:"change" yaml:"change"`
}

// Note is a free-text annotation attached to people, families, or events.
type Note struct {
	// Handle is the unique internal identifier.
	Handle string `json:"handle" yaml:"handle"`

	// GrampsID is the human-facing identifier (e.g. "N0031").
	GrampsID string `json:"gramps_id" yaml:"gramps_id"`

	// Type categorizes the note, always "General" for generated trees.
	Type NoteType `json:"type" yaml:"type"`

	// Text is the note body.
	Text string `json:"text" yaml:"text"`

	// Change is the Unix timestamp of the last store write.
	Change int64 `json:"change" yaml:"change"`
}

// Media is an image file referenced from the tree.
type Media struct {
	// Handle is the unique internal identifier.
	Handle string `json:"handle" yaml:"handle"`

	// GrampsID is the human-facing identifier (e.g. "O0003").
	GrampsID string `json:"gramps_id" yaml:"gramps_id"`

	// Path is the file path relative to the snapshot media path.
	Path string `json:"path" yaml:"path"`

	// MIME is the media MIME type (always "image/jpeg" here).
	MIME string `json:"mime" yaml:"mime"`

	// Checksum is the MD5 hex digest of the file content, matching the
	// checksums Gramps records for media objects.
	Checksum string `json:"checksum" yaml:"checksum"`

	// Description is a human-readable title (the person or couple name).
	Description string `json:"description" yaml:"description"`

	// Change is the Unix timestamp of the last store write.
	Change int64 `json:"change" yaml:"change"`
}

// Snapshot is the complete record set of one generation run, each kind
// in creation order, ready for export.
type Snapshot struct {
	// MediaPath is the base directory that media paths are relative to.
	MediaPath string `json:"media_path,omitempty" yaml:"media_path,omitempty"`

	// DefaultPerson is the handle of the tree's start person.
	DefaultPerson string `json:"default_person,omitempty" yaml:"default_person,omitempty"`

	People   []Person `json:"people" yaml:"people"`
	Families []Family `json:"families" yaml:"families"`
	Events   []Event  `json:"events" yaml:"events"`
	Places   []Place  `json:"places" yaml:"places"`
	Media    []Media  `json:"media" yaml:"media"`
	Notes    []Note   `json:"notes" yaml:"notes"`
}
