// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

// Wire structures for the ws results endpoint. Every field is a string
// on the wire, numbers included.
type wsEnvelope struct {
	Results []wsResult `json:"forskningsresultat"`
}

type wsResult struct {
	Common   wsCommon       `json:"fellesdata"`
	Category wsCategoryData `json:"kategoridata"`
}

type wsCommon struct {
	ID       string     `json:"id"`
	Year     string     `json:"ar"`
	Title    string     `json:"tittel"`
	DOI      string     `json:"doi"`
	Category wsCategory `json:"kategori"`
	Persons  personList `json:"person"`
}

type wsCategory struct {
	Main wsCode `json:"hovedkategori"`
	Sub  wsCode `json:"underkategori"`
}

type wsCode struct {
	Code string `json:"kode"`
	Name string `json:"navn"`
}

type wsPerson struct {
	Surname   string `json:"etternavn"`
	GivenName string `json:"fornavn"`
	Order     string `json:"rekkefolgenr"`
}

// personList tolerates the registry's single-author quirk: one-author
// records carry a bare object in "person", multi-author records a list.
type personList []wsPerson

func (p *personList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var one wsPerson
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*p = personList{one}
		return nil
	}
	var many []wsPerson
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*p = many
	return nil
}

type wsCategoryData struct {
	JournalArticle *wsJournalArticle `json:"tidsskriftsartikkel"`
}

type wsJournalArticle struct {
	Journal   wsJournal `json:"tidsskrift"`
	Volume    string    `json:"volum"`
	Issue     string    `json:"hefte"`
	Pages     *wsPages  `json:"sideangivelse"`
	ArticleNo string    `json:"artikkelnr"`
	DOI       string    `json:"doi"`
}

type wsJournal struct {
	Name string `json:"navn"`
	ISSN string `json:"issn"`
}

type wsPages struct {
	From  string `json:"sideFra"`
	To    string `json:"sideTil"`
	Count string `json:"antallSider"`
}

// toPublication flattens one wire record into the shared model. Missing
// or malformed fields degrade to zero values; a year that does not
// parse leaves the record undated.
func (r wsResult) toPublication() types.Publication {
	c := r.Common
	p := types.Publication{
		ID:           types.PublicationID(c.ID),
		Title:        c.Title,
		Category:     types.ParseCategory(c.Category.Main.Code),
		CategoryCode: c.Category.Main.Code,
		DOI:          c.DOI,
	}

	if year, err := strconv.Atoi(c.Year); err == nil && year > 0 {
		p.Year = year
	}

	for _, a := range c.Persons {
		p.Authors = append(p.Authors, types.Person{
			Surname:   a.Surname,
			GivenName: a.GivenName,
		})
	}

	if ja := r.Category.JournalArticle; ja != nil {
		p.Journal = ja.Journal.Name
		p.Volume = ja.Volume
		p.Issue = ja.Issue
		p.ArticleNo = ja.ArticleNo
		if ja.Pages != nil {
			p.PageFrom = ja.Pages.From
			p.PageTo = ja.Pages.To
			p.PageCount = ja.Pages.Count
		}
		// The article-level DOI wins over the one in fellesdata.
		if ja.DOI != "" {
			p.DOI = ja.DOI
		}
	}

	return p
}

// decodeResults parses a ws results page into publications.
func decodeResults(data []byte) ([]types.Publication, error) {
	var env wsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	var pubs []types.Publication
	for _, r := range env.Results {
		pubs = append(pubs, r.toPublication())
	}
	return pubs, nil
}

// v1Person is one match from the persons search endpoint.
type v1Person struct {
	CristinPersonID int    `json:"cristin_person_id"`
	FirstName       string `json:"first_name"`
	Surname         string `json:"surname"`
}

// decodePersons parses a persons search page.
func decodePersons(data []byte) ([]v1Person, error) {
	var persons []v1Person
	if err := json.Unmarshal(data, &persons); err != nil {
		return nil, err
	}
	return persons, nil
}
