package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays_SkipsWeekend(t *testing.T) {
	// 2025-01-01 is a Wednesday.
	start := day(2025, time.January, 1)
	assert.Equal(t, day(2025, time.January, 15), AddBusinessDays(start, 10))
	assert.Equal(t, day(2025, time.January, 2), AddBusinessDays(start, 1))
	assert.Equal(t, day(2025, time.January, 6), AddBusinessDays(start, 3))
}

func TestAddBusinessDays_FromSaturday(t *testing.T) {
	sat := day(2025, time.January, 4)
	assert.Equal(t, day(2025, time.January, 6), AddBusinessDays(sat, 1))
}

func TestAddBusinessDays_NonPositive(t *testing.T) {
	start := day(2025, time.January, 4)
	assert.Equal(t, start, AddBusinessDays(start, 0))
	assert.Equal(t, start, AddBusinessDays(start, -2))
}

func TestBusinessDaysBetween(t *testing.T) {
	wed := day(2025, time.January, 1)
	assert.Equal(t, 0, BusinessDaysBetween(wed, wed))
	assert.Equal(t, 0, BusinessDaysBetween(wed, wed.AddDate(0, 0, -3)))
	assert.Equal(t, 0, BusinessDaysBetween(wed, day(2025, time.January, 2)))
	// Thu 2, Fri 3
	assert.Equal(t, 2, BusinessDaysBetween(wed, day(2025, time.January, 5)))
	assert.Equal(t, 2, BusinessDaysBetween(wed, day(2025, time.January, 6)))
	assert.Equal(t, 3, BusinessDaysBetween(wed, day(2025, time.January, 7)))
}

func TestBusinessDaysBetween_ExcludesEndpoints(t *testing.T) {
	fri := day(2025, time.January, 3)
	mon := day(2025, time.January, 6)
	assert.Equal(t, 0, BusinessDaysBetween(fri, mon))
	assert.Equal(t, 0, BusinessDaysBetween(fri, mon.Add(8*time.Hour)))

	// Jan 2..14 excluding weekends
	start := day(2025, time.January, 1)
	assert.Equal(t, 9, BusinessDaysBetween(start, AddBusinessDays(start, 10)))
}

func TestBusinessDaysBetween_OneLessThanAddOnWeekdays(t *testing.T) {
	start := day(2024, time.March, 4) // Monday
	for n := 1; n < 40; n++ {
		for off := 0; off < 5; off++ {
			from := start.AddDate(0, 0, off)
			if !IsBusinessDay(from) {
				continue
			}
			// AddBusinessDays always lands on a weekday, which is excluded.
			assert.Equal(t, n-1, BusinessDaysBetween(from, AddBusinessDays(from, n)), "from=%s n=%d", from, n)
		}
	}
}
