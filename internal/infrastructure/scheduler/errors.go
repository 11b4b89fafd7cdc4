package scheduler

import "errors"

// ErrInvalidSchedule is returned for a cron expression outside "minute hour * * *"
var ErrInvalidSchedule = errors.New("invalid snapshot schedule")
