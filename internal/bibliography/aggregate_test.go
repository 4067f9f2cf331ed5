// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"testing"

	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

var testCategoryOrder = []string{"TIDSSKRIFTPUBL", "BOK", "BOKRAPPORTDEL", "RAPPORT", "FOREDRAG", "MEDIEBIDRAG"}

func pub(id string, year int, code, surname, title string) types.Publication {
	return types.Publication{
		ID:           types.PublicationID(id),
		Year:         year,
		Category:     types.ParseCategory(code),
		CategoryCode: code,
		Title:        title,
		Authors:      []types.Person{{Surname: surname}},
	}
}

func TestDeduplicateKeepsFirstSeen(t *testing.T) {
	pubs := []types.Publication{
		pub("123", 2010, "TIDSSKRIFTPUBL", "Gjuvsland", "First copy"),
		pub("456", 2011, "TIDSSKRIFTPUBL", "Plahte", "Other record"),
		pub("123", 2010, "TIDSSKRIFTPUBL", "Gjuvsland", "Second copy"),
	}

	deduped, removed := Deduplicate(pubs)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(deduped) != 2 {
		t.Fatalf("len(deduped) = %d, want 2", len(deduped))
	}
	if deduped[0].Title != "First copy" {
		t.Errorf("kept %q, want first-seen record", deduped[0].Title)
	}
}

func TestDeduplicateKeepsRecordsWithoutID(t *testing.T) {
	pubs := []types.Publication{
		pub("", 2010, "TIDSSKRIFTPUBL", "A", "One"),
		pub("", 2010, "TIDSSKRIFTPUBL", "B", "Two"),
	}
	deduped, removed := Deduplicate(pubs)
	if removed != 0 || len(deduped) != 2 {
		t.Errorf("got %d records, %d removed; want 2 kept, 0 removed", len(deduped), removed)
	}
}

func TestAggregateYearsDescendUndatedLast(t *testing.T) {
	pubs := []types.Publication{
		pub("1", 2008, "TIDSSKRIFTPUBL", "A", "t"),
		pub("2", 0, "TIDSSKRIFTPUBL", "B", "t"),
		pub("3", 2014, "TIDSSKRIFTPUBL", "C", "t"),
		pub("4", 2011, "TIDSSKRIFTPUBL", "D", "t"),
	}

	bib := Aggregate(pubs, testCategoryOrder)
	if len(bib.Categories) != 1 {
		t.Fatalf("len(Categories) = %d, want 1", len(bib.Categories))
	}
	var years []int
	for _, g := range bib.Categories[0].Groups {
		years = append(years, g.Year)
	}
	want := []int{2014, 2011, 2008, 0}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("year order = %v, want %v", years, want)
		}
	}
}

func TestAggregateEntriesSortBySurnameThenTitle(t *testing.T) {
	pubs := []types.Publication{
		pub("1", 2010, "TIDSSKRIFTPUBL", "Plahte", "Analysis"),
		pub("2", 2010, "TIDSSKRIFTPUBL", "Gjuvsland", "Zebrafish"),
		pub("3", 2010, "TIDSSKRIFTPUBL", "Gjuvsland", "Alleles"),
	}

	bib := Aggregate(pubs, testCategoryOrder)
	entries := bib.Categories[0].Groups[0].Entries
	got := []string{entries[0].Title, entries[1].Title, entries[2].Title}
	want := []string{"Alleles", "Zebrafish", "Analysis"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry order = %v, want %v", got, want)
		}
	}
}

func TestAggregateCategoryOrder(t *testing.T) {
	pubs := []types.Publication{
		pub("1", 2010, "ZZZ-UKJENT", "A", "t"),
		pub("2", 2010, "BOK", "B", "t"),
		pub("3", 2010, "TIDSSKRIFTPUBL", "C", "t"),
		pub("4", 2010, "AAA-UKJENT", "D", "t"),
	}

	bib := Aggregate(pubs, testCategoryOrder)
	var codes []string
	for _, cg := range bib.Categories {
		codes = append(codes, cg.Code)
	}
	// Configured order first, unknown codes last alphabetically.
	want := []string{"TIDSSKRIFTPUBL", "BOK", "AAA-UKJENT", "ZZZ-UKJENT"}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("category order = %v, want %v", codes, want)
		}
	}
}

func TestAggregateDeduplicates(t *testing.T) {
	pubs := []types.Publication{
		pub("123", 2010, "TIDSSKRIFTPUBL", "A", "t"),
		pub("123", 2010, "TIDSSKRIFTPUBL", "A", "t"),
	}
	bib := Aggregate(pubs, testCategoryOrder)
	if n := len(bib.Categories[0].Groups[0].Entries); n != 1 {
		t.Errorf("entries = %d, want 1 after dedup", n)
	}
}

func TestAggregateEmpty(t *testing.T) {
	bib := Aggregate(nil, testCategoryOrder)
	if !bib.Empty() {
		t.Error("Empty() = false for no input")
	}
}
