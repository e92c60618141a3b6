package statement

import (
	"regexp"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
)

var (
	isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	dmyDatePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
)

// ParseDate reads the date formats found on bank statements. ISO dates are
// tried first, then day-first dates separated by '/' or '-'. Two digit years
// above 50 are taken as 19xx, the rest as 20xx. ok is false when nothing
// matches or the day does not exist.
func ParseDate(s string) (d civil.Date, ok bool) {
	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := dmyDatePattern.FindStringSubmatch(s); m != nil {
		year := m[3]
		switch len(year) {
		case 2:
			yy, _ := strconv.Atoi(year)
			if yy > 50 {
				year = strconv.Itoa(1900 + yy)
			} else {
				year = strconv.Itoa(2000 + yy)
			}
		case 3:
			return civil.Date{}, false
		}
		return buildDate(year, m[2], m[1])
	}
	return civil.Date{}, false
}

func buildDate(year, month, day string) (civil.Date, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	dd, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return civil.Date{}, false
	}
	d := civil.Date{Year: y, Month: time.Month(m), Day: dd}
	if !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}
