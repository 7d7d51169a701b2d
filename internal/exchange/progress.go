// Package exchange computes where an exchange stands against its statutory
// identification and completion deadlines.
package exchange

import (
	"time"

	jnow "github.com/jinzhu/now"

	"exchangedesk/internal/model"
	"exchangedesk/internal/taskview"
)

type Phase string

const (
	PhaseNotStarted     Phase = "not_started"
	PhaseIdentification Phase = "identification"
	PhaseExchange       Phase = "exchange"
	PhaseExpired        Phase = "expired"
	PhaseCompleted      Phase = "completed"
	PhaseCancelled      Phase = "cancelled"
)

// Deadlines returns the end of the 45th and 180th day after start.
func Deadlines(start time.Time) (identification, completion time.Time) {
	identification = jnow.With(start.AddDate(0, 0, model.IdentificationPeriodDays)).EndOfDay()
	completion = jnow.With(start.AddDate(0, 0, model.ExchangePeriodDays)).EndOfDay()
	return identification, completion
}

// FillDeadlines sets missing deadlines from the start date. Deadlines that
// are already set are left alone.
func FillDeadlines(e *model.Exchange) {
	if e.StartDate == nil {
		return
	}
	ident, completion := Deadlines(*e.StartDate)
	if e.IdentificationDeadline == nil {
		e.IdentificationDeadline = &ident
	}
	if e.CompletionDeadline == nil {
		e.CompletionDeadline = &completion
	}
}

// Progress is the derived state of an exchange at a point in time.
type Progress struct {
	Phase                   Phase      `json:"phase"`
	IdentificationDeadline  *time.Time `json:"identification_deadline,omitempty"`
	CompletionDeadline      *time.Time `json:"completion_deadline,omitempty"`
	DaysElapsed             int        `json:"days_elapsed"`
	DaysUntilIdentification *int       `json:"days_until_identification,omitempty"`
	DaysUntilCompletion     *int       `json:"days_until_completion,omitempty"`
	// Percent is the share of the exchange period that has passed.
	Percent        int `json:"percent"`
	TasksTotal     int `json:"tasks_total"`
	TasksCompleted int `json:"tasks_completed"`
	TasksOverdue   int `json:"tasks_overdue"`
}

// Compute derives the progress of e and its tasks as of now.
func Compute(e model.Exchange, tasks []model.Task, now time.Time) Progress {
	FillDeadlines(&e)
	p := Progress{
		IdentificationDeadline: e.IdentificationDeadline,
		CompletionDeadline:     e.CompletionDeadline,
		TasksTotal:             len(tasks),
	}
	for _, t := range tasks {
		switch {
		case t.Status == model.StatusCompleted:
			p.TasksCompleted++
		case taskview.ClassifyDue(t.DueDate, now) == taskview.BucketOverdue:
			p.TasksOverdue++
		}
	}

	if e.IdentificationDeadline != nil {
		d := taskview.DaysUntil(*e.IdentificationDeadline, now)
		p.DaysUntilIdentification = &d
	}
	if e.CompletionDeadline != nil {
		d := taskview.DaysUntil(*e.CompletionDeadline, now)
		p.DaysUntilCompletion = &d
	}
	if e.StartDate != nil {
		p.DaysElapsed = max(0, -taskview.DaysUntil(*e.StartDate, now))
		p.Percent = min(100, p.DaysElapsed*100/model.ExchangePeriodDays)
	}
	p.Phase = phase(e, now)
	if p.Phase == PhaseCompleted {
		p.Percent = 100
	}
	return p
}

func phase(e model.Exchange, now time.Time) Phase {
	switch e.Status {
	case model.ExchangeCompleted:
		return PhaseCompleted
	case model.ExchangeCancelled:
		return PhaseCancelled
	}
	if e.StartDate == nil || now.Before(*e.StartDate) {
		return PhaseNotStarted
	}
	if e.IdentificationDeadline != nil && !now.After(*e.IdentificationDeadline) {
		return PhaseIdentification
	}
	if e.CompletionDeadline != nil && !now.After(*e.CompletionDeadline) {
		return PhaseExchange
	}
	return PhaseExpired
}
