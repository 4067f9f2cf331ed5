// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"strings"
	"unicode/utf8"

	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

// FormatAuthor renders a contributor as "Surname IN", with one initial
// per given name. Hyphenated given names contribute one initial per
// part ("Odd-Even Strange" → "Strange OE").
func FormatAuthor(p types.Person) string {
	given := strings.FieldsFunc(p.GivenName, func(r rune) bool {
		return r == ' ' || r == '-'
	})
	var initials strings.Builder
	for _, g := range given {
		r, _ := utf8.DecodeRuneInString(g)
		initials.WriteRune(r)
	}
	if initials.Len() == 0 {
		return p.Surname
	}
	return p.Surname + " " + initials.String()
}

// FormatAuthors joins all contributors with commas, in registry order.
func FormatAuthors(authors []types.Person) string {
	parts := make([]string, len(authors))
	for i, a := range authors {
		parts[i] = FormatAuthor(a)
	}
	return strings.Join(parts, ", ")
}

// FormatPages returns the page designation for a citation: a page
// range when one exists, else a page count, else the article number
// for electronic-only journals.
func FormatPages(p types.Publication) string {
	switch {
	case p.PageFrom != "":
		return p.PageFrom + "-" + p.PageTo
	case p.PageCount != "":
		return p.PageCount + " pages"
	default:
		return p.ArticleNo
	}
}
