// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tree invents a plausible multi-generation family tree and
// stages it as Gramps records. Generation starts from a single person
// born in recent decades and walks ancestry backwards, inventing
// parents, marriages, siblings, deaths, notes, and portrait images as
// it goes.
package tree

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/pdiddy/gramps-faker/internal/db"
	"github.com/pdiddy/gramps-faker/pkg/types"
)

const (
	// Parents are born this many years before a child.
	minParentLead = 20
	maxParentLead = 40

	// Couples marry once both are at least this old.
	marriageableAge = 18

	maxSiblings   = 9
	probUnmarried = 0.05
	probRelocated = 0.2

	probPersonHasNote = 0.5
	probEventHasNote  = 0.5

	minAgeAtDeath = 55
	maxAgeAtDeath = 90

	minNoteLen = 200
	maxNoteLen = 2000

	// The starting person is born somewhere in this range.
	minStartBirthYear = 1970
	maxStartBirthYear = 2000

	// Portrait availability: color photos from the mid 20th century,
	// monochrome from the late 19th, nothing before.
	colorPhotoYear = 1940
	monoPhotoYear  = 1860

	// Family and wedding portraits use the marriage year instead.
	colorPortraitYear = 1950
	monoPortraitYear  = 1880
)

var placeTypes = []types.PlaceType{
	types.PlaceCity,
	types.PlaceTown,
	types.PlaceVillage,
	types.PlaceHamlet,
	types.PlaceMunicipality,
	types.PlaceLocality,
}

// Generator stages one invented tree into a db.Store. It is not safe
// for concurrent use; create one per run.
type Generator struct {
	store *db.Store
	cfg   types.TreeConfig

	seed  uint64
	rng   *rand.Rand
	faker *gofakeit.Faker

	places      []*types.Place
	media       *mediaPool
	currentYear int
}

// NewGenerator prepares a generator for one run. A zero seed in cfg is
// replaced with a clock-derived one; the same non-zero seed always
// produces the same tree.
func NewGenerator(store *db.Store, cfg types.TreeConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		store:       store,
		cfg:         cfg,
		seed:        seed,
		rng:         rand.New(rand.NewSource(int64(seed))),
		faker:       gofakeit.New(seed),
		currentYear: time.Now().Year(),
	}
}

// Seed reports the seed in effect, after zero-seed resolution.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Build generates the whole tree and returns the staged record counts.
func (g *Generator) Build(ctx context.Context) (db.Counts, error) {
	pool, err := scanImages(g.cfg.ImagesDir)
	if err != nil {
		return db.Counts{}, fmt.Errorf("scanning images: %w", err)
	}
	g.media = pool

	if err := g.store.SetMediaPath(ctx, pool.root); err != nil {
		return db.Counts{}, err
	}

	if err := g.addPlaces(ctx); err != nil {
		return db.Counts{}, err
	}

	start, err := g.addStartPerson(ctx)
	if err != nil {
		return db.Counts{}, err
	}

	if err := g.addFamily(ctx, start, 0); err != nil {
		return db.Counts{}, err
	}

	return g.store.Counts(ctx)
}

// addPlaces invents the pool of places every event draws from.
func (g *Generator) addPlaces(ctx context.Context) error {
	places := make([]*types.Place, 0, g.cfg.Places)
	for i := 0; i < g.cfg.Places; i++ {
		places = append(places, &types.Place{
			Handle:    g.newHandle(),
			Type:      placeTypes[g.rng.Intn(len(placeTypes))],
			Name:      g.faker.City(),
			Latitude:  fmt.Sprintf("%.6f", g.faker.Latitude()),
			Longitude: fmt.Sprintf("%.6f", g.faker.Longitude()),
		})
	}
	if err := g.store.PutPlaces(ctx, places); err != nil {
		return err
	}
	g.places = places
	return nil
}

// addStartPerson creates the tree's root: a recent birth with a note
// and a color portrait, marked as the default person.
func (g *Generator) addStartPerson(ctx context.Context) (*types.Person, error) {
	p := g.newPerson(g.randomGender(), g.faker.FirstName(), g.faker.LastName())

	year := g.randInt(minStartBirthYear, maxStartBirthYear)
	if err := g.addBirth(ctx, p, year, g.randomPlace()); err != nil {
		return nil, err
	}
	if err := g.addPersonNote(ctx, p); err != nil {
		return nil, err
	}
	if err := g.attachImage(ctx, &p.MediaRefs, "people", "color", p.DisplayName()); err != nil {
		return nil, err
	}

	if err := g.store.PutPerson(ctx, p); err != nil {
		return nil, err
	}
	if err := g.store.SetDefaultPerson(ctx, p.Handle); err != nil {
		return nil, err
	}
	return p, nil
}

// addFamily invents the family a child was born into: father, mother,
// their marriage and deaths, siblings, and portraits. It then recurses
// into each parent with a probability that fades out as depth
// approaches the configured generation count.
func (g *Generator) addFamily(ctx context.Context, child *types.Person, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	childBirth, err := g.birthOf(ctx, child)
	if err != nil {
		return err
	}
	childYear := childBirth.Date.Year
	childPlace := childBirth.PlaceHandle

	// The father passes the family surname down; the mother keeps her
	// own.
	father := g.newPerson(types.GenderMale, g.faker.FirstName(), child.Surname)
	fatherYear := g.randInt(childYear-maxParentLead, childYear-minParentLead)
	if err := g.addBirth(ctx, father, fatherYear, g.maybeRelocated(childPlace)); err != nil {
		return err
	}

	mother := g.newPerson(types.GenderFemale, g.faker.FirstName(), g.faker.LastName())
	motherYear := g.randInt(childYear-maxParentLead, childYear-minParentLead)
	if err := g.addBirth(ctx, mother, motherYear, g.maybeRelocated(childPlace)); err != nil {
		return err
	}

	youngest := fatherYear
	if motherYear > youngest {
		youngest = motherYear
	}
	marriageYear := g.randInt(youngest+marriageableAge, childYear-1)

	family := &types.Family{
		Handle:       g.newHandle(),
		FatherHandle: father.Handle,
		MotherHandle: mother.Handle,
	}
	var marriage *types.Event
	if !g.chance(probUnmarried) {
		var err error
		marriage, err = g.addMarriage(ctx, family, marriageYear)
		if err != nil {
			return err
		}
	}

	// Parents always get a death somewhere after the marriage; the
	// year may land in the future.
	fatherDeath := fatherYear + g.randInt(marriageYear-fatherYear+1, maxAgeAtDeath)
	if err := g.addDeath(ctx, father, fatherDeath, childPlace); err != nil {
		return err
	}
	motherDeath := motherYear + g.randInt(marriageYear-motherYear+1, maxAgeAtDeath)
	if err := g.addDeath(ctx, mother, motherDeath, childPlace); err != nil {
		return err
	}

	for _, parent := range []*types.Person{father, mother} {
		if g.chance(probPersonHasNote) {
			if err := g.addPersonNote(ctx, parent); err != nil {
				return err
			}
		}
		if err := g.attachPortrait(ctx, parent); err != nil {
			return err
		}
		parent.Families = append(parent.Families, family.Handle)
		if err := g.store.PutPerson(ctx, parent); err != nil {
			return err
		}
	}

	child.ParentFamilies = append(child.ParentFamilies, family.Handle)
	family.ChildRefs = append(family.ChildRefs, child.Handle)
	if err := g.store.PutPerson(ctx, child); err != nil {
		return err
	}

	// Siblings arrive a few years apart from the marriage on, skipping
	// a slot that would crowd the child and stopping once the mother is
	// past childbearing age or a parent's death is too close.
	year := marriageYear + 1
	for i, n := 0, g.randInt(0, maxSiblings); i < n; i++ {
		year += g.randInt(2, 6)
		if abs(year-childYear) < 2 {
			continue
		}
		if year > motherYear+40 || year > motherDeath-2 || year > fatherDeath-1 {
			break
		}

		sibling := g.newPerson(g.randomGender(), g.faker.FirstName(), child.Surname)
		if err := g.addBirth(ctx, sibling, year, childPlace); err != nil {
			return err
		}
		if age := g.randInt(minAgeAtDeath, maxAgeAtDeath); year+age < g.currentYear {
			if err := g.addDeath(ctx, sibling, year+age, g.maybeRelocated(childPlace)); err != nil {
				return err
			}
		}
		if g.chance(probPersonHasNote) {
			if err := g.addPersonNote(ctx, sibling); err != nil {
				return err
			}
		}
		sibling.ParentFamilies = append(sibling.ParentFamilies, family.Handle)
		family.ChildRefs = append(family.ChildRefs, sibling.Handle)
		if err := g.store.PutPerson(ctx, sibling); err != nil {
			return err
		}
	}

	couple := fmt.Sprintf("%s & %s", father.DisplayName(), mother.DisplayName())
	switch {
	case marriageYear > colorPortraitYear:
		if err := g.attachImage(ctx, &family.MediaRefs, "family", "color", couple); err != nil {
			return err
		}
		if err := g.attachWeddingPicture(ctx, marriage, couple); err != nil {
			return err
		}
	case marriageYear > monoPortraitYear:
		if err := g.attachImage(ctx, &family.MediaRefs, "family", "grayscale", couple); err != nil {
			return err
		}
		if err := g.attachWeddingPicture(ctx, marriage, couple); err != nil {
			return err
		}
	}

	if err := g.store.PutFamily(ctx, family); err != nil {
		return err
	}

	for _, parent := range []*types.Person{father, mother} {
		if g.rng.Float64() < 1-float64(depth)/float64(g.cfg.Generations) {
			if err := g.addFamily(ctx, parent, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// birthOf reads a person's birth event back from the store.
func (g *Generator) birthOf(ctx context.Context, p *types.Person) (*types.Event, error) {
	ref, ok := p.BirthRef()
	if !ok {
		return nil, fmt.Errorf("person %s has no birth event", p.Handle)
	}
	return g.store.Event(ctx, ref.Ref)
}

func (g *Generator) newPerson(gender types.Gender, given, surname string) *types.Person {
	return &types.Person{
		Handle:        g.newHandle(),
		Gender:        gender,
		Given:         given,
		Surname:       surname,
		BirthRefIndex: -1,
		DeathRefIndex: -1,
	}
}

// addBirth stages a birth event and wires it into the person.
func (g *Generator) addBirth(ctx context.Context, p *types.Person, year int, placeHandle string) error {
	event, err := g.addEvent(ctx, types.EventBirth, year, placeHandle)
	if err != nil {
		return err
	}
	p.EventRefs = append(p.EventRefs, types.EventRef{Ref: event.Handle, Role: types.RolePrimary})
	p.BirthRefIndex = len(p.EventRefs) - 1
	return nil
}

// addDeath stages a death event and wires it into the person.
func (g *Generator) addDeath(ctx context.Context, p *types.Person, year int, placeHandle string) error {
	event, err := g.addEvent(ctx, types.EventDeath, year, placeHandle)
	if err != nil {
		return err
	}
	p.EventRefs = append(p.EventRefs, types.EventRef{Ref: event.Handle, Role: types.RolePrimary})
	p.DeathRefIndex = len(p.EventRefs) - 1
	return nil
}

// addMarriage stages a marriage event and wires it into the family.
// Marriage events carry no place. The event is returned so a wedding
// picture can be hung on it later.
func (g *Generator) addMarriage(ctx context.Context, f *types.Family, year int) (*types.Event, error) {
	event, err := g.addEvent(ctx, types.EventMarriage, year, "")
	if err != nil {
		return nil, err
	}
	f.EventRefs = append(f.EventRefs, types.EventRef{Ref: event.Handle, Role: types.RolePrimary})
	return event, nil
}

// attachWeddingPicture puts a wedding picture on the marriage event and
// stores the event again. Wedding pictures stay color in both portrait
// eras; an unmarried couple has no marriage event to hold one.
func (g *Generator) attachWeddingPicture(ctx context.Context, marriage *types.Event, couple string) error {
	if marriage == nil {
		return nil
	}
	if err := g.attachImage(ctx, &marriage.MediaRefs, "wedding", "color", couple); err != nil {
		return err
	}
	return g.store.PutEvent(ctx, marriage)
}

// addEvent stages one dated event, attaching a note half the time.
func (g *Generator) addEvent(ctx context.Context, etype types.EventType, year int, placeHandle string) (*types.Event, error) {
	event := &types.Event{
		Handle:      g.newHandle(),
		Type:        etype,
		Date:        g.randomDate(year),
		PlaceHandle: placeHandle,
	}
	if g.chance(probEventHasNote) {
		handle, err := g.addNote(ctx)
		if err != nil {
			return nil, err
		}
		event.NoteRefs = append(event.NoteRefs, handle)
	}
	if err := g.store.PutEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// addPersonNote stages a biographical note and wires it into the
// person. The person record itself is stored by the caller.
func (g *Generator) addPersonNote(ctx context.Context, p *types.Person) error {
	handle, err := g.addNote(ctx)
	if err != nil {
		return err
	}
	p.NoteRefs = append(p.NoteRefs, handle)
	return nil
}

// addNote stages a general note with a few paragraphs of invented text
// and returns its handle.
func (g *Generator) addNote(ctx context.Context) (string, error) {
	note := &types.Note{
		Handle: g.newHandle(),
		Type:   types.NoteGeneral,
		Text:   g.noteText(),
	}
	if err := g.store.PutNote(ctx, note); err != nil {
		return "", err
	}
	return note.Handle, nil
}

// noteText invents filler prose of a random length between minNoteLen
// and maxNoteLen characters.
func (g *Generator) noteText() string {
	target := g.randInt(minNoteLen, maxNoteLen)
	var b []byte
	for len(b) < target {
		if len(b) > 0 {
			b = append(b, ' ')
		}
		b = append(b, g.faker.Sentence(10)...)
	}
	return string(b)
}

// randomDate spreads an event across its year. Days stop at 28 so the
// result is valid in any month.
func (g *Generator) randomDate(year int) types.Date {
	return types.Date{
		Year:  year,
		Month: g.randInt(1, 12),
		Day:   g.randInt(1, 28),
	}
}

// maybeRelocated keeps the home place most of the time and picks a
// random one for the one-in-five who moved.
func (g *Generator) maybeRelocated(home string) string {
	if g.chance(probRelocated) {
		return g.randomPlace()
	}
	return home
}

// randomPlace picks a place from the pool. With no places configured
// events simply carry no place.
func (g *Generator) randomPlace() string {
	if len(g.places) == 0 {
		return ""
	}
	return g.places[g.rng.Intn(len(g.places))].Handle
}

func (g *Generator) randomGender() types.Gender {
	if g.chance(0.5) {
		return types.GenderFemale
	}
	return types.GenderMale
}

// newHandle mints a UUID handle from the generator's random stream, so
// seeded runs reproduce their handles too.
func (g *Generator) newHandle() string {
	return uuid.Must(uuid.NewRandomFromReader(g.rng)).String()
}

// randInt returns a uniform integer in [lo, hi].
func (g *Generator) randInt(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
