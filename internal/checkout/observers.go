package checkout

import (
	"context"
	"time"
)

type attemptRecorder interface {
	ObserveAttempt(outcome string, duration time.Duration)
}

// MetricsObserver counts finished attempts by state.
func MetricsObserver(recorder attemptRecorder) Observer {
	return ObserverFunc(func(_ context.Context, report Report) {
		outcome := string(report.State)
		if report.State == StateIdle {
			outcome = "dismissed"
		}
		recorder.ObserveAttempt(outcome, report.Duration())
	})
}
