package worker

import (
	"github.com/spec-kit/sla-engine/internal/service"
)

// StartBreachMonitor registers breach observation handlers.
func StartBreachMonitor(monitor *service.BreachMonitor) {
	if monitor == nil {
		return
	}
	monitor.RegisterHandlers()
}
