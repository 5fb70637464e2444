// Package listfilter shapes in-memory record collections for the list
// pages: keyword search, status filtering and calendar-date filtering,
// AND-composed into a single pure pass that removes records without
// reordering the survivors.
//
// The date predicate is deliberately lenient. An unparseable filter value
// disables date filtering entirely, and a record with no extractable date
// passes. Record "date" fields written as three slash-separated segments
// are disambiguated by the first segment: a value above 12 is read as a
// day (dd/mm/yyyy), otherwise as a month (mm/dd/yyyy). Known limitation:
// dates like 05/06/2024 where both readings are valid default to mm/dd.
package listfilter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one decoded JSON object from a list endpoint.
type Record = map[string]any

// Spec configures one filtering pass. The zero value passes everything.
type Spec struct {
	// SearchQuery is matched case-insensitively as a substring against
	// SearchFields.
	SearchQuery string

	// StatusFilter is a filter token mapped through StatusMap. "all" (or
	// empty) bypasses the status predicate.
	StatusFilter string

	// DateFilter is a calendar date in mm/dd/yyyy form. Unparseable values
	// disable date filtering (fail-open).
	DateFilter string

	// SearchFields lists the record fields searched by SearchQuery.
	// Default: name, title.
	SearchFields []string

	// StatusField is the record field holding the status. Default: status.
	StatusField string

	// StatusMap translates filter tokens into backend status labels.
	// Default: pending/approved/rejected → Pending/Approved/Rejected.
	StatusMap map[string]string
}

var defaultStatusMap = map[string]string{
	"pending":  "Pending",
	"approved": "Approved",
	"rejected": "Rejected",
}

// Apply filters records per spec. The input may be a []Record or []any of
// objects; anything else (including nil) yields an empty slice. Surviving
// records keep their relative order.
func Apply(records any, spec Spec) []Record {
	items := coerce(records)
	if len(items) == 0 {
		return []Record{}
	}

	if len(spec.SearchFields) == 0 {
		spec.SearchFields = []string{"name", "title"}
	}
	if spec.StatusField == "" {
		spec.StatusField = "status"
	}
	if spec.StatusMap == nil {
		spec.StatusMap = defaultStatusMap
	}

	filterDate, hasFilterDate := parseMonthFirst(spec.DateFilter)

	out := make([]Record, 0, len(items))
	for _, item := range items {
		if !matchStatus(item, spec) {
			continue
		}
		if !matchKeyword(item, spec) {
			continue
		}
		if hasFilterDate && !matchDate(item, filterDate) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func coerce(records any) []Record {
	switch v := records.(type) {
	case []Record:
		return v
	case []any:
		items := make([]Record, 0, len(v))
		for _, e := range v {
			if m, ok := e.(Record); ok {
				items = append(items, m)
			}
		}
		return items
	default:
		return nil
	}
}

func matchStatus(item Record, spec Spec) bool {
	if spec.StatusFilter == "" || spec.StatusFilter == "all" {
		return true
	}
	want := spec.StatusMap[spec.StatusFilter]
	got, _ := item[spec.StatusField].(string)
	return got == want
}

func matchKeyword(item Record, spec Spec) bool {
	if spec.SearchQuery == "" {
		return true
	}
	query := strings.ToLower(spec.SearchQuery)
	for _, field := range spec.SearchFields {
		v, ok := item[field]
		if !ok || v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), query) {
			return true
		}
	}
	return false
}

func matchDate(item Record, filter time.Time) bool {
	got, ok := recordDate(item)
	if !ok {
		// No extractable date on the record: pass.
		return true
	}
	return got.Year() == filter.Year() &&
		got.Month() == filter.Month() &&
		got.Day() == filter.Day()
}

// parseMonthFirst parses mm/dd/yyyy, rejecting impossible calendar dates
// such as 02/30/2024.
func parseMonthFirst(s string) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	m, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	d, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	y, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil || m == 0 || d == 0 || y == 0 {
		return time.Time{}, false
	}
	dt := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if dt.Year() != y || dt.Month() != time.Month(m) || dt.Day() != d {
		return time.Time{}, false
	}
	return dt, true
}

// recordDate extracts the comparison date from a record, trying in order:
// an ISO-parseable createdAt, a slash-separated date with first-segment
// disambiguation, and a createDate assumed dd/mm/yyyy.
func recordDate(item Record) (time.Time, bool) {
	if v, ok := item["createdAt"]; ok && v != nil {
		if dt, ok := parseISO(fmt.Sprint(v)); ok {
			return dt, true
		}
	}
	if v, ok := item["date"]; ok && v != nil {
		segs := strings.Split(fmt.Sprint(v), "/")
		if len(segs) == 3 {
			first, err1 := strconv.Atoi(strings.TrimSpace(segs[0]))
			second, err2 := strconv.Atoi(strings.TrimSpace(segs[1]))
			year, err3 := strconv.Atoi(strings.TrimSpace(segs[2]))
			if err1 == nil && err2 == nil && err3 == nil {
				if first > 12 {
					// Day-first: dd/mm/yyyy.
					return time.Date(year, time.Month(second), first, 0, 0, 0, 0, time.UTC), true
				}
				return time.Date(year, time.Month(first), second, 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	if v, ok := item["createDate"]; ok && v != nil {
		segs := strings.Split(fmt.Sprint(v), "/")
		if len(segs) == 3 {
			d, err1 := strconv.Atoi(strings.TrimSpace(segs[0]))
			m, err2 := strconv.Atoi(strings.TrimSpace(segs[1]))
			y, err3 := strconv.Atoi(strings.TrimSpace(segs[2]))
			if err1 == nil && err2 == nil && err3 == nil {
				return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	return time.Time{}, false
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}
