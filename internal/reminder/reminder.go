// Package reminder runs a periodic sweep over every user's todos and logs a
// due-date summary. It is a read-only consumer of the record store; nothing
// is mutated.
package reminder

import (
	"log/slog"
	"time"

	"github.com/nurbekov/csvtodo/internal/store"
	"github.com/robfig/cron/v3"
)

// dueSoonWindow is how far ahead a due date counts as "due soon".
const dueSoonWindow = 48 * time.Hour

// Run starts the cron job with the given spec (standard 5-field cron
// expression) and returns a stop function. An invalid spec is reported to the
// caller instead of silently doing nothing.
func Run(st *store.Store, spec string) (func(), error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { sweep(st, time.Now().UTC()) }); err != nil {
		return nil, err
	}
	c.Start()
	return func() { c.Stop() }, nil
}

// sweep logs one summary line per user that has overdue or due-soon open
// todos. Users with nothing pending stay out of the log.
func sweep(st *store.Store, now time.Time) {
	users, err := st.ListUsers()
	if err != nil {
		slog.Error("reminder: list users", "error", err)
		return
	}
	for _, u := range users {
		todos, err := st.GetTodosByUser(u.ID)
		if err != nil {
			slog.Error("reminder: list todos", "user_id", u.ID, "error", err)
			continue
		}
		var overdue, dueSoon int
		for _, t := range todos {
			if t.Completed || t.DueDate == nil {
				continue
			}
			switch {
			case now.After(*t.DueDate):
				overdue++
			case t.DueDate.Sub(now) <= dueSoonWindow:
				dueSoon++
			}
		}
		if overdue == 0 && dueSoon == 0 {
			continue
		}
		slog.Info("todo reminder",
			"user", u.Username,
			"overdue", overdue,
			"due_soon", dueSoon)
	}
}
