package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// sessionPattern matches academic session labels such as 2024-25, 2024_2025 or 202425
var sessionPattern = regexp.MustCompile(`^(\d{4})[_-]?(\d{2,4})$`)

// SessionVariants returns the label as given plus its hyphen and underscore spellings,
// de-duplicated in that order. Empty labels yield nothing.
func SessionVariants(session string) []string {
	candidates := []string{
		session,
		strings.ReplaceAll(session, "_", "-"),
		strings.ReplaceAll(session, "-", "_"),
	}

	seen := make(map[string]bool, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		variants = append(variants, c)
	}
	return variants
}

// MonthsForSession lists the twelve YYYY-MM months of an academic session, April of the first
// year through March of the second. Labels that do not parse fall back to the twelve calendar
// months ending at now, oldest first.
func MonthsForSession(session string, now time.Time) []string {
	m := sessionPattern.FindStringSubmatch(strings.TrimSpace(session))
	if m == nil {
		return trailingMonths(now, 12)
	}

	y1, _ := strconv.Atoi(m[1])
	y2, _ := strconv.Atoi(m[2])
	if len(m[2]) == 2 {
		y2 = y1/100*100 + y2
	}

	months := make([]string, 0, 12)
	for mm := 4; mm <= 12; mm++ {
		months = append(months, monthToken(y1, mm))
	}
	for mm := 1; mm <= 3; mm++ {
		months = append(months, monthToken(y2, mm))
	}
	return months
}

func trailingMonths(now time.Time, n int) []string {
	months := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		d := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		months = append(months, monthToken(d.Year(), int(d.Month())))
	}
	return months
}

func monthToken(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// LastMonths returns the final n entries of months.
func LastMonths(months []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(months) <= n {
		return months
	}
	return months[len(months)-n:]
}

// DaysForMonths expands YYYY-MM tokens into their YYYY-MM-DD days in order, leaving out the
// given weekdays. Tokens that do not parse are ignored.
func DaysForMonths(months []string, skip []time.Weekday) []string {
	skipped := make(map[time.Weekday]bool, len(skip))
	for _, wd := range skip {
		skipped[wd] = true
	}

	var days []string
	for _, token := range months {
		first, err := time.Parse("2006-01", token)
		if err != nil {
			continue
		}
		for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
			if skipped[d.Weekday()] {
				continue
			}
			days = append(days, d.Format(time.DateOnly))
		}
	}
	return days
}
