package views

import (
	"errors"
	"time"

	"exchangedesk/internal/model"
	"exchangedesk/internal/taskview"
)

// TimelineLookback is how far before its due date a task's bar starts.
// Tasks have no start date; this is a display estimate.
const TimelineLookback = 3 * 24 * time.Hour

var ErrEmptyRange = errors.New("timeline range is empty")

type TimelineBar struct {
	Task  model.Task `json:"task"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
	// Offset and Width are percentages of the visible range.
	Offset float64 `json:"offset"`
	Width  float64 `json:"width"`
}

type Timeline struct {
	From time.Time     `json:"from"`
	To   time.Time     `json:"to"`
	Bars []TimelineBar `json:"bars"`
}

// BuildTimeline places a bar per dated task that overlaps [from, to].
// Bars start TimelineLookback before the due date, clamped to from.
func BuildTimeline(tasks []model.Task, from, to time.Time) (Timeline, error) {
	span := to.Sub(from)
	if span <= 0 {
		return Timeline{}, ErrEmptyRange
	}

	tl := Timeline{From: from, To: to, Bars: []TimelineBar{}}
	for _, t := range taskview.Sort(tasks, taskview.SortSpec{Field: taskview.SortDueDate, Direction: taskview.Asc}) {
		if t.DueDate == nil {
			continue
		}
		end := *t.DueDate
		start := end.Add(-TimelineLookback)
		if end.Before(from) || start.After(to) {
			continue
		}
		if start.Before(from) {
			start = from
		}
		visibleEnd := end
		if visibleEnd.After(to) {
			visibleEnd = to
		}
		tl.Bars = append(tl.Bars, TimelineBar{
			Task:   t,
			Start:  start,
			End:    end,
			Offset: percent(start.Sub(from), span),
			Width:  percent(visibleEnd.Sub(start), span),
		})
	}
	return tl, nil
}

func percent(d, span time.Duration) float64 {
	return float64(d) / float64(span) * 100
}
