package kafka

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// cappedBackoff — экспонента от initial с джиттером 25%, не выше ceiling.
// Число попыток не ограничено: остановка только по контексту.
func cappedBackoff(initial, ceiling time.Duration) func() retry.Backoff {
	initial = durationOr(initial, time.Second)
	ceiling = durationOr(ceiling, 30*time.Second)
	if ceiling < initial {
		ceiling = initial
	}
	return func() retry.Backoff {
		b := retry.NewExponential(initial)
		b = retry.WithJitterPercent(25, b)
		return retry.WithCappedDuration(ceiling, b)
	}
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
