package publication

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// yearRe matches a 19xx/20xx token that is not the tail of a longer digit run,
// so article numbers like 062007 don't count while "IAQVEC2024" and "(2024)" do.
var yearRe = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})`)

// dotDateRe matches the sheet's native YYYY.MM.DD date format.
var dotDateRe = regexp.MustCompile(`^((?:19|20)\d{2})\.(\d{2})\.(\d{2})$`)

// dateLayouts are renderings a spreadsheet may produce for a date cell.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006/01/02",
	"2006/1/2",
	"01-02-06",
	"1/2/06",
	"1/2/06 15:04",
	"01/02/2006",
}

// Excel serial numbers for 1970-01-01 .. 2099-12-31. The lower bound keeps
// bare years and 19xxx/20xxx article numbers out of the serial path.
const (
	minExcelSerial = 25569
	maxExcelSerial = 73415
)

// IsMissing reports whether a cell holds no usable value.
func IsMissing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-" || strings.EqualFold(s, "nan")
}

// ParseYear returns the first year token found in the given fields, in order.
func ParseYear(fields ...string) (int, bool) {
	for _, f := range fields {
		m := yearRe.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y, true
		}
	}
	return 0, false
}

// ParseDate converts a date cell into YYYYMMDD. A cell with only a year token
// yields YYYY0000; a missing or unparseable cell yields 0.
func ParseDate(s string) int {
	s = strings.TrimSpace(s)
	if IsMissing(s) {
		return 0
	}

	m := dotDateRe.FindStringSubmatch(s)
	if m == nil {
		if y, ok := ParseYear(s); ok {
			return y * 10000
		}
		return 0
	}

	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return y*10000 + mo*100 + d
}

// NormalizeDateCell rewrites the ways a spreadsheet can render a date cell
// into YYYY.MM.DD. Values that are not recognizable dates are returned as-is.
func NormalizeDateCell(s string) string {
	s = strings.TrimSpace(s)
	if IsMissing(s) || dotDateRe.MatchString(s) {
		return s
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006.01.02")
		}
	}

	// Date cells without a number format come through as serial numbers.
	if n, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "eE") {
		if n >= minExcelSerial && n <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(n, false); err == nil {
				return t.Format("2006.01.02")
			}
		}
	}

	return s
}

// FormatImpact returns a suffix like " (IF 6.9, Top 4.95%)", or "" when both
// values are missing. Numeric values are rounded; anything else is kept verbatim.
// topVal may be a plain number or a percent-formatted cell such as "4.95%".
func FormatImpact(ifVal, topVal string) string {
	ifVal = strings.TrimSpace(ifVal)
	// Percent-formatted cells already carry the sign.
	topVal = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(topVal), "%"))

	var parts []string
	if !IsMissing(ifVal) {
		if f, err := strconv.ParseFloat(ifVal, 64); err == nil {
			parts = append(parts, fmt.Sprintf("IF %.1f", f))
		} else {
			parts = append(parts, "IF "+ifVal)
		}
	}
	if !IsMissing(topVal) {
		if f, err := strconv.ParseFloat(topVal, 64); err == nil {
			parts = append(parts, fmt.Sprintf("Top %.2f%%", f))
		} else {
			parts = append(parts, "Top "+topVal+"%")
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// JoinVenue combines the venue name with its volume/pages detail.
func JoinVenue(main, detail string) string {
	if detail == "" || IsMissing(detail) {
		return main
	}
	if main == "" {
		return detail
	}
	return main + " " + detail
}

// YearInferrer resolves record years in sheet order, carrying the last
// resolved year forward to rows that have no year token of their own.
// It assumes the sheet is ordered newest to oldest.
type YearInferrer struct {
	last  int
	known bool
}

// Resolve returns the year found in fields, or the carried-forward year.
// Before any year has been seen the result is 0.
func (y *YearInferrer) Resolve(fields ...string) int {
	if year, ok := ParseYear(fields...); ok {
		y.last = year
		y.known = true
		return year
	}
	if y.known {
		return y.last
	}
	return 0
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
