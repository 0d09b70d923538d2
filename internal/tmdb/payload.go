package tmdb

import (
	"strings"

	"github.com/flicklab/tmdb-enricher/internal/dataset"
)

// topCast is how many cast members, in listed order, make the cast column.
const topCast = 5

type namedEntity struct {
	Name string `json:"name"`
}

type crewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type countryRef struct {
	ISO31661 string `json:"iso_3166_1"`
}

type moviePayload struct {
	Overview            string        `json:"overview"`
	Tagline             string        `json:"tagline"`
	ReleaseDate         string        `json:"release_date"`
	Runtime             *int64        `json:"runtime"`
	OriginalLanguage    string        `json:"original_language"`
	OriginalTitle       string        `json:"original_title"`
	Status              string        `json:"status"`
	Budget              *int64        `json:"budget"`
	Revenue             *int64        `json:"revenue"`
	VoteAverage         *float64      `json:"vote_average"`
	VoteCount           *int64        `json:"vote_count"`
	Popularity          *float64      `json:"popularity"`
	Adult               bool          `json:"adult"`
	Homepage            string        `json:"homepage"`
	ProductionCompanies []namedEntity `json:"production_companies"`
	ProductionCountries []countryRef  `json:"production_countries"`
	Credits             struct {
		Cast []namedEntity `json:"cast"`
		Crew []crewMember  `json:"crew"`
	} `json:"credits"`
	Keywords struct {
		Keywords []namedEntity `json:"keywords"`
	} `json:"keywords"`
}

func (p moviePayload) normalize() dataset.Enrichment {
	cast := p.Credits.Cast
	if len(cast) > topCast {
		cast = cast[:topCast]
	}
	castNames := make([]string, 0, len(cast))
	for _, member := range cast {
		castNames = append(castNames, member.Name)
	}

	var directors []string
	for _, member := range p.Credits.Crew {
		if member.Job == "Director" {
			directors = append(directors, member.Name)
		}
	}

	keywords := make([]string, 0, len(p.Keywords.Keywords))
	for _, kw := range p.Keywords.Keywords {
		keywords = append(keywords, kw.Name)
	}

	companies := make([]string, 0, len(p.ProductionCompanies))
	for _, company := range p.ProductionCompanies {
		companies = append(companies, company.Name)
	}

	countries := make([]string, 0, len(p.ProductionCountries))
	for _, country := range p.ProductionCountries {
		countries = append(countries, country.ISO31661)
	}

	return dataset.Enrichment{
		Synopsis:            p.Overview,
		Tagline:             p.Tagline,
		ReleaseDate:         p.ReleaseDate,
		Runtime:             p.Runtime,
		OriginalLanguage:    p.OriginalLanguage,
		OriginalTitle:       p.OriginalTitle,
		Status:              p.Status,
		Budget:              p.Budget,
		Revenue:             p.Revenue,
		VoteAverage:         p.VoteAverage,
		VoteCount:           p.VoteCount,
		Popularity:          p.Popularity,
		Cast:                strings.Join(castNames, dataset.ListDelimiter),
		Director:            strings.Join(directors, dataset.ListDelimiter),
		Keywords:            strings.Join(keywords, dataset.ListDelimiter),
		ProductionCompanies: strings.Join(companies, dataset.ListDelimiter),
		ProductionCountries: strings.Join(countries, dataset.ListDelimiter),
		Adult:               p.Adult,
		Homepage:            p.Homepage,
	}
}
