// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibliography merges publication records into a grouped,
// deterministically ordered structure and renders it as HTML.
package bibliography

import (
	"sort"

	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

// YearGroup holds the publications of one year within a category.
// Year 0 is the undated bucket.
type YearGroup struct {
	Year    int
	Entries []types.Publication
}

// CategoryGroup holds the year groups of one hovedkategori.
type CategoryGroup struct {
	Category types.Category
	Code     string
	Groups   []YearGroup
}

// GroupedBibliography is the fully ordered result of aggregation.
// Built once, never mutated afterwards.
type GroupedBibliography struct {
	Categories []CategoryGroup
}

// Empty reports whether the bibliography contains no entries.
func (b GroupedBibliography) Empty() bool {
	return len(b.Categories) == 0
}

// Deduplicate removes records sharing a publication ID, keeping the
// first-seen record. Duplicates are expected to be identical copies of
// the same registry record reached through different author queries.
// Records without an ID cannot be matched and are all kept.
func Deduplicate(pubs []types.Publication) ([]types.Publication, int) {
	seen := make(map[types.PublicationID]bool, len(pubs))
	deduped := make([]types.Publication, 0, len(pubs))
	removed := 0

	for _, p := range pubs {
		if p.ID != "" {
			if seen[p.ID] {
				removed++
				continue
			}
			seen[p.ID] = true
		}
		deduped = append(deduped, p)
	}
	return deduped, removed
}

// Aggregate deduplicates the records and groups them by category and
// year. Ordering: categories follow the configured display order with
// unrecognized codes last (alphabetically among themselves); years
// descend with the undated bucket after all dated years; entries within
// a bucket sort by first-author surname, ties broken by title.
func Aggregate(pubs []types.Publication, categoryOrder []string) GroupedBibliography {
	deduped, _ := Deduplicate(pubs)

	byCategory := make(map[string]map[int][]types.Publication)
	for _, p := range deduped {
		years := byCategory[p.CategoryCode]
		if years == nil {
			years = make(map[int][]types.Publication)
			byCategory[p.CategoryCode] = years
		}
		years[p.Year] = append(years[p.Year], p)
	}

	rank := make(map[string]int, len(categoryOrder))
	for i, code := range categoryOrder {
		rank[code] = i
	}
	categoryRank := func(code string) int {
		if r, ok := rank[code]; ok {
			return r
		}
		return len(categoryOrder)
	}

	codes := make([]string, 0, len(byCategory))
	for code := range byCategory {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		ri, rj := categoryRank(codes[i]), categoryRank(codes[j])
		if ri != rj {
			return ri < rj
		}
		return codes[i] < codes[j]
	})

	var bib GroupedBibliography
	for _, code := range codes {
		years := byCategory[code]

		yearKeys := make([]int, 0, len(years))
		for y := range years {
			yearKeys = append(yearKeys, y)
		}
		// Descending, with the undated bucket (0) at the end.
		sort.Slice(yearKeys, func(i, j int) bool {
			yi, yj := yearKeys[i], yearKeys[j]
			if yi == 0 {
				return false
			}
			if yj == 0 {
				return true
			}
			return yi > yj
		})

		cg := CategoryGroup{
			Category: types.ParseCategory(code),
			Code:     code,
		}
		for _, y := range yearKeys {
			entries := years[y]
			sort.Slice(entries, func(i, j int) bool {
				si, sj := entries[i].FirstAuthorSurname(), entries[j].FirstAuthorSurname()
				if si != sj {
					return si < sj
				}
				return entries[i].Title < entries[j].Title
			})
			cg.Groups = append(cg.Groups, YearGroup{Year: y, Entries: entries})
		}
		bib.Categories = append(bib.Categories, cg)
	}
	return bib
}
