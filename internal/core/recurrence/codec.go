package recurrence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// weekdayNames maps the short names accepted from CLI/config input.
var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekdays parses a comma-separated list of short weekday names
// (e.g. "mon,wed,fri") into a weekday slice.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}

// EncodeWeekdays encodes a weekday set as a sorted numeric CSV ("1,3,5")
// for storage.
func EncodeWeekdays(set map[time.Weekday]bool) string {
	var nums []int
	for d := range set {
		if set[d] {
			nums = append(nums, int(d))
		}
	}
	sort.Ints(nums)
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// DecodeWeekdays decodes the stored numeric CSV form. Out-of-range values
// are dropped rather than rejected; a stale row must not break evaluation.
func DecodeWeekdays(s string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		set[time.Weekday(n)] = true
	}
	return set
}

// ParseMonthDays parses a comma-separated list of day-of-month values
// ("1,15,31"). Values outside 1..31 are rejected.
func ParseMonthDays(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var days []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 31 {
			return nil, fmt.Errorf("invalid day of month %q", part)
		}
		days = append(days, strconv.Itoa(n))
	}
	return days, nil
}

// EncodeMonthDays encodes a month-day set as a sorted CSV for storage.
func EncodeMonthDays(set map[string]bool) string {
	var nums []int
	for d := range set {
		if !set[d] {
			continue
		}
		n, err := strconv.Atoi(d)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// DecodeMonthDays decodes the stored CSV form.
func DecodeMonthDays(s string) map[string]bool {
	set := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		set[part] = true
	}
	return set
}
