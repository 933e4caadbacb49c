package app

import "github.com/assocsite/portal/internal/modules/tasks/crontask"

func (a *App) registerCronJobs() {
	crontask.New(a.sessions, a.registry, a.logger).Register(a.sched)
}
