package styling

import (
	"regexp"
	"strconv"
)

var (
	eraRangePattern  = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
	eraYearPattern   = regexp.MustCompile(`^(\d{4})$`)
	eraEarlyPattern  = regexp.MustCompile(`^early_(\d{4})s$`)
	eraLatePattern   = regexp.MustCompile(`^late_(\d{4})s$`)
	defaultItemYear  = 2024
)

// parseEra interprets the era mini-grammar. ok is false for anything
// unparseable, in which case callers apply no era filter at all. That
// silent no-op matches the shipped behavior and is deliberately kept;
// see DESIGN.md before changing it to an error.
func parseEra(era string) (from, to int, ok bool) {
	if m := eraRangePattern.FindStringSubmatch(era); m != nil {
		from, _ = strconv.Atoi(m[1])
		to, _ = strconv.Atoi(m[2])
		return from, to, from <= to
	}
	if m := eraYearPattern.FindStringSubmatch(era); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, y, true
	}
	if m := eraEarlyPattern.FindStringSubmatch(era); m != nil {
		decade, _ := strconv.Atoi(m[1])
		return decade, decade + 3, true
	}
	if m := eraLatePattern.FindStringSubmatch(era); m != nil {
		decade, _ := strconv.Atoi(m[1])
		return decade + 6, decade + 9, true
	}
	return 0, 0, false
}

// itemYear substitutes the default year for items ingested without one.
func itemYear(year int) int {
	if year <= 0 {
		return defaultItemYear
	}
	return year
}
