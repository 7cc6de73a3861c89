package credit

import (
	"time"

	"cloud.google.com/go/civil"
)

// Clock reports the current calendar date used for activity and recency checks.
type Clock func() civil.Date

func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() civil.Date {
		return civil.DateOf(time.Now().In(loc))
	}
}
