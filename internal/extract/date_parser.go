package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/david/termin-watch/internal/models"
)

// germanMonths maps the month names used in calendar headings to their
// index. Maerz covers pages that avoid the umlaut.
var germanMonths = map[string]time.Month{
	"Januar":    time.January,
	"Februar":   time.February,
	"März":      time.March,
	"Maerz":     time.March,
	"April":     time.April,
	"Mai":       time.May,
	"Juni":      time.June,
	"Juli":      time.July,
	"August":    time.August,
	"September": time.September,
	"Oktober":   time.October,
	"November":  time.November,
	"Dezember":  time.December,
}

var (
	// A date may be glued to surrounding words but not to other digits.
	explicitDateRegex = regexp.MustCompile(`(?:^|\D)(\d{2})\.(\d{2})\.(\d{4})`)
	looseDateRegex    = regexp.MustCompile(`(?:^|\D)(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	monthYearRegex    = regexp.MustCompile(`(Januar|Februar|März|Maerz|April|Mai|Juni|Juli|August|September|Oktober|November|Dezember)\s+(\d{4})`)
	nonDigitRegex     = regexp.MustCompile(`\D+`)
)

// MonthFromName looks up a German month name.
func MonthFromName(name string) (time.Month, bool) {
	m, ok := germanMonths[strings.TrimSpace(name)]
	return m, ok
}

// ParseExplicit returns the first DD.MM.YYYY date in text. A match that
// is not a real calendar day yields false, it is not skipped.
func ParseExplicit(text string) (models.Date, bool) {
	m := explicitDateRegex.FindStringSubmatch(text)
	if m == nil {
		return models.Date{}, false
	}
	return dateFromParts(m[1], m[2], m[3])
}

// ParseFromHeading combines a calendar cell's day number with the month
// and year named in the calendar heading ("Oktober 2025").
func ParseFromHeading(dayToken, heading string) (models.Date, bool) {
	digits := nonDigitRegex.ReplaceAllString(dayToken, "")
	if digits == "" {
		return models.Date{}, false
	}
	day, err := strconv.Atoi(digits)
	if err != nil {
		return models.Date{}, false
	}

	m := monthYearRegex.FindStringSubmatch(heading)
	if m == nil {
		return models.Date{}, false
	}
	month, ok := germanMonths[m[1]]
	if !ok {
		return models.Date{}, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return models.Date{}, false
	}
	return models.NewDate(year, month, day)
}

// HasMonthYear reports whether text names a month and a year.
func HasMonthYear(text string) bool {
	return monthYearRegex.MatchString(text)
}

// FindAllDates collects every D.M.YYYY shaped date in text, dropping
// impossible ones, deduplicated and sorted ascending.
func FindAllDates(text string) []models.Date {
	seen := make(map[models.Date]struct{})
	var out []models.Date
	for _, m := range looseDateRegex.FindAllStringSubmatch(text, -1) {
		d, ok := dateFromParts(m[1], m[2], m[3])
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func dateFromParts(dayStr, monthStr, yearStr string) (models.Date, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return models.Date{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return models.Date{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return models.Date{}, false
	}
	return models.NewDate(year, time.Month(month), day)
}

// parseLooseDate parses a single D.M.YYYY token.
func parseLooseDate(token string) (models.Date, bool) {
	m := looseDateRegex.FindStringSubmatch(token)
	if m == nil {
		return models.Date{}, false
	}
	return dateFromParts(m[1], m[2], m[3])
}
