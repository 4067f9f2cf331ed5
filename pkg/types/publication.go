// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category is a CRISTIN hovedkategori code classifying a publication.
// Codes outside the known set map to CategoryUnknown at ingestion; the
// raw code is kept on the Publication for display.
type Category string

const (
	CategoryJournal     Category = "TIDSSKRIFTPUBL"
	CategoryBook        Category = "BOK"
	CategoryBookChapter Category = "BOKRAPPORTDEL"
	CategoryReport      Category = "RAPPORT"
	CategoryLecture     Category = "FOREDRAG"
	CategoryMedia       Category = "MEDIEBIDRAG"
	CategoryProduct     Category = "PRODUKT"
	CategoryInfo        Category = "INFORMASJONSMATR"
	CategoryCommercial  Category = "KOMMERSIALISERING"
	CategoryArt         Category = "KUNSTPRODUKSJON"
	CategoryUnknown     Category = ""
)

// categoryNames maps known codes to English display names.
var categoryNames = map[Category]string{
	CategoryJournal:     "Journal publications",
	CategoryBook:        "Books",
	CategoryBookChapter: "Book and report chapters",
	CategoryReport:      "Reports and theses",
	CategoryLecture:     "Lectures and presentations",
	CategoryMedia:       "Media contributions",
	CategoryProduct:     "Products",
	CategoryInfo:        "Information material",
	CategoryCommercial:  "Commercialization",
	CategoryArt:         "Artistic productions",
}

// ParseCategory validates a hovedkategori code against the known set.
func ParseCategory(code string) Category {
	c := Category(code)
	if _, ok := categoryNames[c]; ok {
		return c
	}
	return CategoryUnknown
}

// DisplayName returns the English heading for the category.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// PublicationID is the registry's stable identifier for a publication.
// Two records with the same ID are the same publication regardless of
// which author query produced them.
type PublicationID string

// Person is one contributor to a publication, in registry order.
type Person struct {
	Surname   string `json:"surname" yaml:"surname"`
	GivenName string `json:"given_name" yaml:"given_name"`
}

// Publication is a flattened registry record. Produced by the registry
// client and read-only downstream.
type Publication struct {
	// ID is the CRISTIN result id.
	ID PublicationID `json:"id" yaml:"id"`

	// Title is the publication title.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year; 0 means undated.
	Year int `json:"year" yaml:"year"`

	// Category is the validated hovedkategori of the record.
	Category Category `json:"category" yaml:"category"`

	// CategoryCode is the raw hovedkategori code as sent by the
	// registry, kept so unrecognized codes still render.
	CategoryCode string `json:"category_code" yaml:"category_code"`

	// Authors lists contributors in registry order.
	Authors []Person `json:"authors" yaml:"authors"`

	// Journal is the venue name, when the record is a journal article.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Volume and Issue identify the journal volume and issue.
	Volume string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue  string `json:"issue,omitempty" yaml:"issue,omitempty"`

	// PageFrom/PageTo give the page range; PageCount is used when the
	// registry reports only a page count; ArticleNo is the article
	// number for electronic-only journals.
	PageFrom  string `json:"page_from,omitempty" yaml:"page_from,omitempty"`
	PageTo    string `json:"page_to,omitempty" yaml:"page_to,omitempty"`
	PageCount string `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	ArticleNo string `json:"article_no,omitempty" yaml:"article_no,omitempty"`

	// DOI is the bare DOI, without resolver prefix.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// FirstAuthorSurname returns the surname of the first listed author,
// or an empty string for records without contributors.
func (p Publication) FirstAuthorSurname() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0].Surname
}
