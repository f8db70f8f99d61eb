package db

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/gramps-faker/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func samplePerson(handle string) *types.Person {
	return &types.Person{
		Handle:        handle,
		Gender:        types.GenderFemale,
		Given:         "Ada",
		Surname:       "Lovelace",
		BirthRefIndex: -1,
		DeathRefIndex: -1,
	}
}

func sampleEvent(handle string, etype types.EventType, year int) *types.Event {
	return &types.Event{
		Handle: handle,
		Type:   etype,
		Date:   types.Date{Year: year, Month: 6, Day: 15},
	}
}

// addPersonWithVitals stores a person together with birth and death events
// wired through the reference indexes, the way the generator does.
func addPersonWithVitals(t *testing.T, store *Store, handle, given, surname string, gender types.Gender, birthYear, deathYear int) {
	t.Helper()
	ctx := context.Background()

	p := &types.Person{
		Handle:        handle,
		Gender:        gender,
		Given:         given,
		Surname:       surname,
		BirthRefIndex: -1,
		DeathRefIndex: -1,
	}

	birth := sampleEvent(handle+"-birth", types.EventBirth, birthYear)
	if err := store.PutEvent(ctx, birth); err != nil {
		t.Fatal(err)
	}
	p.EventRefs = append(p.EventRefs, types.EventRef{Ref: birth.Handle, Role: types.RolePrimary})
	p.BirthRefIndex = len(p.EventRefs) - 1

	if deathYear != 0 {
		death := sampleEvent(handle+"-death", types.EventDeath, deathYear)
		if err := store.PutEvent(ctx, death); err != nil {
			t.Fatal(err)
		}
		p.EventRefs = append(p.EventRefs, types.EventRef{Ref: death.Handle, Role: types.RolePrimary})
		p.DeathRefIndex = len(p.EventRefs) - 1
	}

	if err := store.PutPerson(ctx, p); err != nil {
		t.Fatal(err)
	}
}

// --- tests ---

func TestPutPersonAssignsSequentialIDs(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := samplePerson("h1")
	second := samplePerson("h2")

	if err := store.PutPerson(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.PutPerson(ctx, second); err != nil {
		t.Fatal(err)
	}

	if first.GrampsID != "I0000" {
		t.Errorf("first person ID = %q, want I0000", first.GrampsID)
	}
	if second.GrampsID != "I0001" {
		t.Errorf("second person ID = %q, want I0001", second.GrampsID)
	}
}

func TestPutPersonUpsert(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	p := samplePerson("h1")
	if err := store.PutPerson(ctx, p); err != nil {
		t.Fatal(err)
	}
	assignedID := p.GrampsID

	// Mutate the way the generator does when a parent family appears.
	p.ParentFamilies = append(p.ParentFamilies, "fam1")
	p.EventRefs = append(p.EventRefs, types.EventRef{Ref: "ev1", Role: types.RolePrimary})
	p.BirthRefIndex = 0
	if err := store.PutPerson(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := store.Person(ctx, "h1")
	if err != nil {
		t.Fatal(err)
	}
	if got.GrampsID != assignedID {
		t.Errorf("GrampsID changed on upsert: %q -> %q", assignedID, got.GrampsID)
	}
	if len(got.ParentFamilies) != 1 || got.ParentFamilies[0] != "fam1" {
		t.Errorf("ParentFamilies = %v, want [fam1]", got.ParentFamilies)
	}
	if got.BirthRefIndex != 0 || len(got.EventRefs) != 1 {
		t.Errorf("event refs not updated: index %d, refs %v", got.BirthRefIndex, got.EventRefs)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts.People != 1 {
		t.Errorf("people count = %d after upsert, want 1", counts.People)
	}
}

func TestPersonNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.Person(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestEventRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	e := sampleEvent("ev1", types.EventBirth, 1954)
	e.PlaceHandle = "pl1"
	e.NoteRefs = []string{"n1"}
	if err := store.PutEvent(ctx, e); err != nil {
		t.Fatal(err)
	}
	if e.GrampsID != "E0000" {
		t.Errorf("event ID = %q, want E0000", e.GrampsID)
	}

	got, err := store.Event(ctx, "ev1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != types.EventBirth {
		t.Errorf("type = %q, want Birth", got.Type)
	}
	if got.Date != (types.Date{Year: 1954, Month: 6, Day: 15}) {
		t.Errorf("date = %v", got.Date)
	}
	if got.PlaceHandle != "pl1" {
		t.Errorf("place = %q, want pl1", got.PlaceHandle)
	}
	if len(got.NoteRefs) != 1 || got.NoteRefs[0] != "n1" {
		t.Errorf("note refs = %v, want [n1]", got.NoteRefs)
	}
}

func TestPutPlacesBatch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	places := []*types.Place{
		{Handle: "p1", Type: types.PlaceCity, Name: "Springfield", Latitude: "39.8", Longitude: "-89.6"},
		{Handle: "p2", Type: types.PlaceVillage, Name: "Shelbyville"},
		{Handle: "p3", Type: types.PlaceTown, Name: "Ogdenville"},
	}
	if err := store.PutPlaces(ctx, places); err != nil {
		t.Fatal(err)
	}

	for i, want := range []string{"P0000", "P0001", "P0002"} {
		if places[i].GrampsID != want {
			t.Errorf("place %d ID = %q, want %q", i, places[i].GrampsID, want)
		}
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Places) != 3 {
		t.Fatalf("snapshot has %d places, want 3", len(snap.Places))
	}
	if snap.Places[0].Name != "Springfield" || snap.Places[2].Name != "Ogdenville" {
		t.Errorf("places out of creation order: %v", snap.Places)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SetMediaPath(ctx, "/work/dir"); err != nil {
		t.Fatal(err)
	}

	event := sampleEvent("ev1", types.EventBirth, 1980)
	if err := store.PutEvent(ctx, event); err != nil {
		t.Fatal(err)
	}

	person := samplePerson("h1")
	person.EventRefs = []types.EventRef{{Ref: "ev1", Role: types.RolePrimary}}
	person.BirthRefIndex = 0
	person.NoteRefs = []string{"n1"}
	person.MediaRefs = []string{"m1"}
	if err := store.PutPerson(ctx, person); err != nil {
		t.Fatal(err)
	}
	if err := store.SetDefaultPerson(ctx, person.Handle); err != nil {
		t.Fatal(err)
	}

	family := &types.Family{
		Handle:       "fam1",
		FatherHandle: "h2",
		MotherHandle: "h3",
		ChildRefs:    []string{"h1"},
		EventRefs:    []types.EventRef{{Ref: "ev2", Role: types.RolePrimary}},
	}
	if err := store.PutFamily(ctx, family); err != nil {
		t.Fatal(err)
	}

	note := &types.Note{Handle: "n1", Type: types.NoteGeneral, Text: "a note"}
	if err := store.PutNote(ctx, note); err != nil {
		t.Fatal(err)
	}

	media := &types.Media{Handle: "m1", Path: "images/people/color/00001.jpg",
		MIME: "image/jpeg", Checksum: "abc123", Description: "Ada Lovelace"}
	if err := store.PutMedia(ctx, media); err != nil {
		t.Fatal(err)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if snap.MediaPath != "/work/dir" {
		t.Errorf("media path = %q", snap.MediaPath)
	}
	if snap.DefaultPerson != "h1" {
		t.Errorf("default person = %q", snap.DefaultPerson)
	}
	if len(snap.People) != 1 || len(snap.Families) != 1 || len(snap.Events) != 1 ||
		len(snap.Notes) != 1 || len(snap.Media) != 1 {
		t.Fatalf("snapshot counts: %d people, %d families, %d events, %d notes, %d media",
			len(snap.People), len(snap.Families), len(snap.Events), len(snap.Notes), len(snap.Media))
	}

	p := snap.People[0]
	if p.Given != "Ada" || p.BirthRefIndex != 0 || len(p.EventRefs) != 1 {
		t.Errorf("person round trip: %+v", p)
	}
	f := snap.Families[0]
	if f.FatherHandle != "h2" || f.MotherHandle != "h3" || len(f.ChildRefs) != 1 {
		t.Errorf("family round trip: %+v", f)
	}
	if snap.Media[0].Checksum != "abc123" {
		t.Errorf("media round trip: %+v", snap.Media[0])
	}
	if snap.Notes[0].Text != "a note" {
		t.Errorf("note round trip: %+v", snap.Notes[0])
	}
}

func TestFileDatabaseResumesCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage", "tree.db")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	p := samplePerson("h1")
	if err := store.PutPerson(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	q := samplePerson("h2")
	if err := reopened.PutPerson(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	if q.GrampsID != "I0001" {
		t.Errorf("ID after reopen = %q, want I0001", q.GrampsID)
	}
}

func TestMetadataUnsetIsEmpty(t *testing.T) {
	store := testStore(t)

	got, err := store.MediaPath(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("unset media path = %q, want empty", got)
	}
}

func TestQueryPeople(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	addPersonWithVitals(t, store, "h1", "Ada", "Lovelace", types.GenderFemale, 1815, 1852)
	addPersonWithVitals(t, store, "h2", "Charles", "Babbage", types.GenderMale, 1791, 1871)
	addPersonWithVitals(t, store, "h3", "Alan", "Turing", types.GenderMale, 1912, 0)

	tests := []struct {
		name    string
		opts    QueryOptions
		wantIDs []string
	}{
		{
			name:    "no filters returns all in creation order",
			opts:    QueryOptions{},
			wantIDs: []string{"I0000", "I0001", "I0002"},
		},
		{
			name:    "surname filter",
			opts:    QueryOptions{Surname: "Babbage"},
			wantIDs: []string{"I0001"},
		},
		{
			name:    "born after",
			opts:    QueryOptions{BornAfter: 1800},
			wantIDs: []string{"I0000", "I0002"},
		},
		{
			name:    "born before",
			opts:    QueryOptions{BornBefore: 1800},
			wantIDs: []string{"I0001"},
		},
		{
			name:    "combined range",
			opts:    QueryOptions{BornAfter: 1800, BornBefore: 1900},
			wantIDs: []string{"I0000"},
		},
		{
			name:    "limit",
			opts:    QueryOptions{MaxResults: 2},
			wantIDs: []string{"I0000", "I0001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := store.QueryPeople(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			var gotIDs []string
			for _, r := range rows {
				gotIDs = append(gotIDs, r.GrampsID)
			}
			if len(gotIDs) != len(tt.wantIDs) {
				t.Fatalf("got %v, want %v", gotIDs, tt.wantIDs)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.wantIDs[i] {
					t.Fatalf("got %v, want %v", gotIDs, tt.wantIDs)
				}
			}
		})
	}
}

func TestQueryPeopleYears(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	addPersonWithVitals(t, store, "h1", "Alan", "Turing", types.GenderMale, 1912, 0)

	rows, err := store.QueryPeople(ctx, QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].BirthYear != 1912 {
		t.Errorf("birth year = %d, want 1912", rows[0].BirthYear)
	}
	if rows[0].DeathYear != 0 {
		t.Errorf("death year = %d, want 0 (alive)", rows[0].DeathYear)
	}
}

func TestFormatTable(t *testing.T) {
	rows := []PersonRow{
		{GrampsID: "I0000", Given: "Ada", Surname: "Lovelace", Gender: "F", BirthYear: 1815, DeathYear: 1852},
		{GrampsID: "I0001", Given: "Alan", Surname: "Turing", Gender: "M", BirthYear: 1912},
	}

	var buf bytes.Buffer
	FormatTable(rows, &buf)
	out := buf.String()

	for _, want := range []string{"ID", "Surname", "I0000", "Lovelace", "1815", "1852", "2 people"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	if !strings.Contains(buf.String(), "No people found.") {
		t.Errorf("empty table output = %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	rows := []PersonRow{
		{GrampsID: "I0000", Given: "Ada", Surname: "Lovelace", Gender: "F", BirthYear: 1815},
	}

	var buf bytes.Buffer
	if err := FormatJSON(rows, &buf); err != nil {
		t.Fatal(err)
	}

	var decoded []PersonRow
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Surname != "Lovelace" {
		t.Errorf("decoded = %+v", decoded)
	}
}
