// Package domain holds DTOs for the hearings read API
package domain

// ListInput are the recognized query filters for listing hearings
type ListInput struct {
	Limit      int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100" example:"25"`
	Offset     int    `json:"offset,omitempty" validate:"omitempty,min=0" example:"0"`
	Date       string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2026-08-24"`
	DateFrom   string `json:"dateFrom,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2026-08-01"`
	DateTo     string `json:"dateTo,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2026-08-31"`
	CaseNumber string `json:"caseNumber,omitempty" validate:"omitempty,max=100" example:"202512345 A 1"`
	Division   string `json:"division,omitempty" validate:"omitempty,oneof=Criminal Civil" example:"Criminal"`
	Search     string `json:"search,omitempty" validate:"omitempty,max=200" example:"smith"`
	SortBy     string `json:"sortBy,omitempty" validate:"omitempty,oneof=hearing_datetime case_number created_at"`
	SortOrder  string `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}

// Hearing is the wire shape of one hearing row
type Hearing struct {
	ID                    string  `json:"id"`
	ListDate              string  `json:"list_date" example:"2026-08-24"`
	CaseNumber            string  `json:"case_number" example:"202512345 A 1"`
	Time                  string  `json:"time" example:"10:30am"`
	HearingDatetime       string  `json:"hearing_datetime" example:"2026-08-24T09:30:00Z"`
	Venue                 *string `json:"venue"`
	Judge                 *string `json:"judge"`
	CaseDetails           string  `json:"case_details"`
	HearingType           string  `json:"hearing_type"`
	AdditionalInformation string  `json:"additional_information"`
	Division              string  `json:"division" example:"Criminal"`
	SourceURL             string  `json:"source_url"`
	ScrapedAt             string  `json:"scraped_at"`
}

// Pagination is the paging block of a list response
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ListResult is the list response envelope
type ListResult struct {
	Data       []Hearing  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// DateCount is one row of the dates aggregate
type DateCount struct {
	Date     string `json:"date" example:"2026-08-24"`
	Division string `json:"division" example:"Criminal"`
	Count    int    `json:"count" example:"14"`
}
