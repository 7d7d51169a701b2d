// Package taskview filters, sorts and groups task lists for the list, board,
// calendar and timeline views. Everything here is a pure function of its
// inputs; the current time is always passed in.
package taskview

import (
	"math"
	"time"

	jnow "github.com/jinzhu/now"
)

// Clock supplies the current time to code that classifies due dates.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// DaysUntil returns the number of calendar days from now's day to due's day,
// both taken in now's location. Negative values are in the past.
func DaysUntil(due, now time.Time) int {
	from := jnow.With(now).BeginningOfDay()
	to := jnow.With(due.In(now.Location())).BeginningOfDay()
	// Round instead of truncating so DST shifts do not lose a day.
	return int(math.Round(to.Sub(from).Hours() / 24))
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	return DaysUntil(a, b) == 0
}

// DueBucket classifies a due date relative to now.
type DueBucket string

const (
	BucketOverdue   DueBucket = "overdue"
	BucketToday     DueBucket = "today"
	BucketThisWeek  DueBucket = "this_week"
	BucketThisMonth DueBucket = "this_month"
	BucketLater     DueBucket = "later"
	BucketNoDueDate DueBucket = "no_due_date"
)

// DueBuckets is the display order of the due-date groups.
var DueBuckets = []DueBucket{
	BucketOverdue, BucketToday, BucketThisWeek, BucketThisMonth, BucketLater, BucketNoDueDate,
}

var dueBucketLabels = map[DueBucket]string{
	BucketOverdue:   "Overdue",
	BucketToday:     "Due Today",
	BucketThisWeek:  "Due This Week",
	BucketThisMonth: "Due This Month",
	BucketLater:     "Due Later",
	BucketNoDueDate: "No Due Date",
}

func (b DueBucket) Label() string {
	if l, ok := dueBucketLabels[b]; ok {
		return l
	}
	return string(b)
}

const (
	weekDays  = 7
	monthDays = 30
)

// ClassifyDue puts a due date into exactly one bucket. A task due at any time
// on today's date is "today", never "overdue".
func ClassifyDue(due *time.Time, now time.Time) DueBucket {
	if due == nil {
		return BucketNoDueDate
	}
	d := DaysUntil(*due, now)
	switch {
	case d < 0:
		return BucketOverdue
	case d == 0:
		return BucketToday
	case d <= weekDays:
		return BucketThisWeek
	case d <= monthDays:
		return BucketThisMonth
	default:
		return BucketLater
	}
}
