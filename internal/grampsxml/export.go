// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grampsxml serializes staged tree snapshots to the Gramps XML
// 1.7.1 format. The output is an uncompressed .gramps file that the
// Gramps desktop application imports directly.
//
// Element order inside each record follows the grampsxml DTD; handles
// are prefixed with an underscore on output because XML IDs cannot
// start with a digit.
package grampsxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/gramps-faker/pkg/types"
)

const (
	xmlns   = "http://gramps-project.org/xml/1.7.1/"
	docType = `<!DOCTYPE database PUBLIC "-//Gramps//DTD Gramps XML 1.7.1//EN"
"http://gramps-project.org/xml/1.7.1/grampsxml.dtd">
`
)

// document is the root element. Section order follows the DTD: header,
// events, people, families, places, objects, notes. Empty sections are
// omitted via nil pointers.
type document struct {
	XMLName  xml.Name  `xml:"database"`
	Xmlns    string    `xml:"xmlns,attr"`
	Header   header    `xml:"header"`
	Events   *events   `xml:"events"`
	People   *people   `xml:"people"`
	Families *families `xml:"families"`
	Places   *places   `xml:"places"`
	Objects  *objects  `xml:"objects"`
	Notes    *notes    `xml:"notes"`
}

type header struct {
	Created   created `xml:"created"`
	MediaPath string  `xml:"mediapath,omitempty"`
}

type created struct {
	Date    string `xml:"date,attr"`
	Version string `xml:"version,attr"`
}

type events struct {
	Events []event `xml:"event"`
}

type event struct {
	Handle  string   `xml:"handle,attr"`
	Change  int64    `xml:"change,attr"`
	ID      string   `xml:"id,attr"`
	Type    string   `xml:"type"`
	DateVal *dateVal `xml:"dateval"`
	Place   *link    `xml:"place"`
	Notes   []link   `xml:"noteref"`
	Objects []link   `xml:"objref"`
}

type dateVal struct {
	Val string `xml:"val,attr"`
}

type people struct {
	Home   string   `xml:"home,attr,omitempty"`
	People []person `xml:"person"`
}

type person struct {
	Handle    string     `xml:"handle,attr"`
	Change    int64      `xml:"change,attr"`
	ID        string     `xml:"id,attr"`
	Gender    string     `xml:"gender"`
	Name      *name      `xml:"name"`
	EventRefs []eventRef `xml:"eventref"`
	Objects   []link     `xml:"objref"`
	ChildOf   []link     `xml:"childof"`
	ParentIn  []link     `xml:"parentin"`
	Notes     []link     `xml:"noteref"`
}

type name struct {
	Type    string `xml:"type,attr"`
	First   string `xml:"first,omitempty"`
	Surname string `xml:"surname,omitempty"`
}

type eventRef struct {
	HLink string `xml:"hlink,attr"`
	Role  string `xml:"role,attr"`
}

type families struct {
	Families []family `xml:"family"`
}

type family struct {
	Handle    string     `xml:"handle,attr"`
	Change    int64      `xml:"change,attr"`
	ID        string     `xml:"id,attr"`
	Rel       *rel       `xml:"rel"`
	Father    *link      `xml:"father"`
	Mother    *link      `xml:"mother"`
	EventRefs []eventRef `xml:"eventref"`
	Objects   []link     `xml:"objref"`
	Children  []link     `xml:"childref"`
	Notes     []link     `xml:"noteref"`
}

type rel struct {
	Type string `xml:"type,attr"`
}

type places struct {
	Places []placeObj `xml:"placeobj"`
}

type placeObj struct {
	Handle string `xml:"handle,attr"`
	Change int64  `xml:"change,attr"`
	ID     string `xml:"id,attr"`
	Type   string `xml:"type,attr"`
	PName  pname  `xml:"pname"`
	Coord  *coord `xml:"coord"`
}

type pname struct {
	Value string `xml:"value,attr"`
}

type coord struct {
	Long string `xml:"long,attr"`
	Lat  string `xml:"lat,attr"`
}

type objects struct {
	Objects []object `xml:"object"`
}

type object struct {
	Handle string `xml:"handle,attr"`
	Change int64  `xml:"change,attr"`
	ID     string `xml:"id,attr"`
	File   file   `xml:"file"`
}

type file struct {
	Src         string `xml:"src,attr"`
	MIME        string `xml:"mime,attr"`
	Checksum    string `xml:"checksum,attr"`
	Description string `xml:"description,attr"`
}

type notes struct {
	Notes []note `xml:"note"`
}

type note struct {
	Handle string `xml:"handle,attr"`
	Change int64  `xml:"change,attr"`
	ID     string `xml:"id,attr"`
	Type   string `xml:"type,attr"`
	Text   string `xml:"text"`
}

type link struct {
	HLink string `xml:"hlink,attr"`
}

// Marshal renders a snapshot as an indented Gramps XML document,
// including the XML declaration and DOCTYPE.
func Marshal(snap *types.Snapshot, version string) ([]byte, error) {
	doc := buildDocument(snap, version)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(docType)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding XML: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteFile serializes a snapshot to path, creating parent directories
// as needed.
func WriteFile(path string, snap *types.Snapshot, version string) error {
	data, err := Marshal(snap, version)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func buildDocument(snap *types.Snapshot, version string) *document {
	doc := &document{
		Xmlns: xmlns,
		Header: header{
			Created: created{
				Date:    time.Now().Format("2006-01-02"),
				Version: version,
			},
			MediaPath: snap.MediaPath,
		},
	}

	if len(snap.Events) > 0 {
		sec := &events{}
		for _, e := range snap.Events {
			sec.Events = append(sec.Events, buildEvent(e))
		}
		doc.Events = sec
	}

	if len(snap.People) > 0 {
		sec := &people{}
		if snap.DefaultPerson != "" {
			sec.Home = handleRef(snap.DefaultPerson)
		}
		for _, p := range snap.People {
			sec.People = append(sec.People, buildPerson(p))
		}
		doc.People = sec
	}

	if len(snap.Families) > 0 {
		sec := &families{}
		for _, f := range snap.Families {
			sec.Families = append(sec.Families, buildFamily(f))
		}
		doc.Families = sec
	}

	if len(snap.Places) > 0 {
		sec := &places{}
		for _, p := range snap.Places {
			sec.Places = append(sec.Places, buildPlace(p))
		}
		doc.Places = sec
	}

	if len(snap.Media) > 0 {
		sec := &objects{}
		for _, m := range snap.Media {
			sec.Objects = append(sec.Objects, object{
				Handle: handleRef(m.Handle),
				Change: m.Change,
				ID:     m.GrampsID,
				File: file{
					Src:         m.Path,
					MIME:        m.MIME,
					Checksum:    m.Checksum,
					Description: m.Description,
				},
			})
		}
		doc.Objects = sec
	}

	if len(snap.Notes) > 0 {
		sec := &notes{}
		for _, n := range snap.Notes {
			sec.Notes = append(sec.Notes, note{
				Handle: handleRef(n.Handle),
				Change: n.Change,
				ID:     n.GrampsID,
				Type:   string(n.Type),
				Text:   n.Text,
			})
		}
		doc.Notes = sec
	}

	return doc
}

func buildEvent(e types.Event) event {
	out := event{
		Handle:  handleRef(e.Handle),
		Change:  e.Change,
		ID:      e.GrampsID,
		Type:    string(e.Type),
		Notes:   links(e.NoteRefs),
		Objects: links(e.MediaRefs),
	}
	if !e.Date.IsZero() {
		out.DateVal = &dateVal{Val: e.Date.String()}
	}
	if e.PlaceHandle != "" {
		out.Place = &link{HLink: handleRef(e.PlaceHandle)}
	}
	return out
}

func buildPerson(p types.Person) person {
	out := person{
		Handle:   handleRef(p.Handle),
		Change:   p.Change,
		ID:       p.GrampsID,
		Gender:   string(p.Gender),
		Objects:  links(p.MediaRefs),
		ChildOf:  links(p.ParentFamilies),
		ParentIn: links(p.Families),
		Notes:    links(p.NoteRefs),
	}
	if p.Given != "" || p.Surname != "" {
		out.Name = &name{Type: "Birth Name", First: p.Given, Surname: p.Surname}
	}
	for _, ref := range p.EventRefs {
		out.EventRefs = append(out.EventRefs, eventRef{HLink: handleRef(ref.Ref), Role: ref.Role})
	}
	return out
}

func buildFamily(f types.Family) family {
	out := family{
		Handle:   handleRef(f.Handle),
		Change:   f.Change,
		ID:       f.GrampsID,
		Rel:      &rel{Type: "Married"},
		Objects:  links(f.MediaRefs),
		Children: links(f.ChildRefs),
		Notes:    links(f.NoteRefs),
	}
	if f.FatherHandle != "" {
		out.Father = &link{HLink: handleRef(f.FatherHandle)}
	}
	if f.MotherHandle != "" {
		out.Mother = &link{HLink: handleRef(f.MotherHandle)}
	}
	for _, ref := range f.EventRefs {
		out.EventRefs = append(out.EventRefs, eventRef{HLink: handleRef(ref.Ref), Role: ref.Role})
	}
	return out
}

func buildPlace(p types.Place) placeObj {
	out := placeObj{
		Handle: handleRef(p.Handle),
		Change: p.Change,
		ID:     p.GrampsID,
		Type:   string(p.Type),
		PName:  pname{Value: p.Name},
	}
	if p.Latitude != "" && p.Longitude != "" {
		out.Coord = &coord{Long: p.Longitude, Lat: p.Latitude}
	}
	return out
}

// handleRef converts a stored handle into an XML reference. Handles are
// random UUIDs and may start with a digit, which the DTD's ID type
// forbids, so every reference carries a leading underscore.
func handleRef(h string) string {
	return "_" + h
}

func links(handles []string) []link {
	if len(handles) == 0 {
		return nil
	}
	out := make([]link, len(handles))
	for i, h := range handles {
		out[i] = link{HLink: handleRef(h)}
	}
	return out
}
