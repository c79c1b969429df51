package models

import (
	"time"
)

// Unknown is stored in place of any field that could not be extracted.
const Unknown = "unknown"

type Field string

const (
	FieldTitle      Field = "title"
	FieldCompany    Field = "company"
	FieldLocation   Field = "location"
	FieldLink       Field = "link"
	FieldPostedDate Field = "posted_date"
)

// Fields lists every extracted field in record order.
var Fields = []Field{FieldTitle, FieldCompany, FieldLocation, FieldLink, FieldPostedDate}

// RawFields holds the values of one listing as extracted, before normalization.
type RawFields map[Field]string

type JobRecord struct {
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	Location   string    `json:"location"`
	Link       string    `json:"link"`
	PostedDate string    `json:"posted_date"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// StoredJob is a JobRecord as read back from the store.
type StoredJob struct {
	ID int64 `json:"id"`
	JobRecord
}

// ExportColumns is the fixed header of the snapshot file.
var ExportColumns = []string{"id", "title", "company", "location", "link", "posted_date", "scraped_at"}

// PaginationCursor tracks one crawl run. It is discarded when the run ends.
type PaginationCursor struct {
	PageIndex      int  `json:"page_index"`
	Stopped        bool `json:"stopped"`
	TotalCollected int  `json:"total_collected"`
}
