package domain

import (
	"net/url"
	"strings"
)

// Filter field names, as used on the wire.
const (
	FilterCustomerName = "customer_name"
	FilterPONo         = "po_no"
	FilterStartDate    = "start_date"
	FilterEndDate      = "end_date"
)

// FilterCriteria narrows the invoice listing. Empty fields do not constrain.
type FilterCriteria struct {
	CustomerName string
	PONo         string
	StartDate    string
	EndDate      string
}

// Set updates the named criterion.
func (c *FilterCriteria) Set(field, value string) error {
	switch field {
	case FilterCustomerName:
		c.CustomerName = value
	case FilterPONo:
		c.PONo = value
	case FilterStartDate:
		c.StartDate = value
	case FilterEndDate:
		c.EndDate = value
	default:
		return ErrUnknownField
	}
	return nil
}

func (c FilterCriteria) Get(field string) string {
	switch field {
	case FilterCustomerName:
		return c.CustomerName
	case FilterPONo:
		return c.PONo
	case FilterStartDate:
		return c.StartDate
	case FilterEndDate:
		return c.EndDate
	default:
		return ""
	}
}

// Query encodes the non-empty criteria as URL query parameters.
func (c FilterCriteria) Query() url.Values {
	q := url.Values{}
	for _, kv := range [][2]string{
		{FilterCustomerName, c.CustomerName},
		{FilterPONo, c.PONo},
		{FilterStartDate, c.StartDate},
		{FilterEndDate, c.EndDate},
	} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			q.Set(kv[0], v)
		}
	}
	return q
}

// CriteriaFromQuery is the inverse of Query.
func CriteriaFromQuery(q url.Values) FilterCriteria {
	return FilterCriteria{
		CustomerName: strings.TrimSpace(q.Get(FilterCustomerName)),
		PONo:         strings.TrimSpace(q.Get(FilterPONo)),
		StartDate:    strings.TrimSpace(q.Get(FilterStartDate)),
		EndDate:      strings.TrimSpace(q.Get(FilterEndDate)),
	}
}
