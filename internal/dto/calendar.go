package dto

import "time"

// GenerateBlocksRequest asks the calendar service to materialise blocks for
// a date range. AcademicYearStart anchors academic block numbering; when
// zero it defaults to RangeStart.
type GenerateBlocksRequest struct {
	RangeStart        time.Time `json:"rangeStart" validate:"required"`
	RangeEnd          time.Time `json:"rangeEnd" validate:"required"`
	AcademicYearStart time.Time `json:"academicYearStart,omitempty"`
}

// GenerateBlocksResponse reports how many blocks were created and skipped.
type GenerateBlocksResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
