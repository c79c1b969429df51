package scraper

import (
	"fmt"

	"go-job-harvester/internal/extract"
	"go-job-harvester/internal/models"
)

// Site describes the markup of one job board: where the results live, how to
// find the "next" control and how to read each field of a listing. Selector
// knowledge about the board stays in this package.
type Site struct {
	Name string
	//Navigation
	ResultsSelector string
	NextSelector    string
	//Extraction
	ListingSelectors []string
	Fields           extract.Table
}

// DefaultSite returns the strategy table for the example job board. Older
// selectors are kept after the current ones so a markup change degrades to a
// fallback instead of an unknown field.
func DefaultSite() Site {
	return Site{
		Name:             "example-jobs",
		ResultsSelector:  ".job-listing, .job-card, [data-testid=job-results]",
		NextSelector:     "a[rel=next], .pagination .next:not(.disabled), button[aria-label='Next page']",
		ListingSelectors: []string{".job-listing", ".job-card", "li[data-job-id]"},
		Fields: extract.Table{
			models.FieldTitle: {
				extract.Text("h2"),
				extract.Text(".job-title"),
				extract.Text("h3"),
				extract.Attr("a[title]", "title"),
			},
			models.FieldCompany: {
				extract.Text(".company"),
				extract.Text(".company-name"),
				extract.Attr("", "data-company"),
			},
			models.FieldLocation: {
				extract.Text(".location"),
				extract.Text(".job-location"),
				extract.Text("address"),
				extract.Attr("", "data-location"),
			},
			models.FieldLink: {
				extract.Attr("a", "href"),
				extract.Attr("", "data-href"),
				extract.Attr("[data-url]", "data-url"),
			},
			models.FieldPostedDate: {
				extract.Attr("time[datetime]", "datetime"),
				extract.Text("time"),
				extract.Text(".posted-date, .date"),
			},
		},
	}
}

// ExtractPage parses one page snapshot and returns the raw fields of every
// listing on it, in page order. No listing is dropped.
func (s Site) ExtractPage(html string, pageIndex int, sink extract.Sink) ([]models.RawFields, error) {
	nodes, err := extract.Listings(html, s.ListingSelectors)
	if err != nil {
		return nil, fmt.Errorf("%s page %d: %w", s.Name, pageIndex, err)
	}

	out := make([]models.RawFields, 0, len(nodes))
	for i, node := range nodes {
		pos := extract.Position{Page: pageIndex, Listing: i}
		out = append(out, extract.ExtractAll(node, pos, s.Fields, sink))
	}
	return out, nil
}
