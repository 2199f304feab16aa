package strategy

import (
	"fmt"
	"time"
)

// PolicyAction represents the time bucket override applied to a decision.
type PolicyAction int

const (
	Allow PolicyAction = iota
	Block
	Reverse
)

// String stringifies the provided policy action.
func (a PolicyAction) String() string {
	switch a {
	case Allow:
		return "allow"
	case Block:
		return "block"
	case Reverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// TimeBucket identifies a recurring fifteen minute window of the week.
type TimeBucket struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// NewTimeBucket initializes a validated time bucket. The minute must sit on
// a fifteen minute boundary.
func NewTimeBucket(weekday time.Weekday, hour int, minute int) (TimeBucket, error) {
	if hour < 0 || hour > 23 {
		return TimeBucket{}, fmt.Errorf("bucket hour must be in [0,23], got %d", hour)
	}
	if minute%15 != 0 || minute < 0 || minute > 45 {
		return TimeBucket{}, fmt.Errorf("bucket minute must be one of 0,15,30,45, got %d", minute)
	}

	return TimeBucket{Weekday: weekday, Hour: hour, Minute: minute}, nil
}

// BucketOf returns the time bucket containing the provided instant.
func BucketOf(at time.Time) TimeBucket {
	return TimeBucket{
		Weekday: at.Weekday(),
		Hour:    at.Hour(),
		Minute:  (at.Minute() / 15) * 15,
	}
}

// TimeBucketPolicy overrides signal output for specific recurring time
// windows. It is static configuration, never mutated at runtime.
type TimeBucketPolicy struct {
	actions map[TimeBucket]PolicyAction
}

// NewTimeBucketPolicy initializes a policy from the provided bucket actions.
func NewTimeBucketPolicy(actions map[TimeBucket]PolicyAction) *TimeBucketPolicy {
	cloned := make(map[TimeBucket]PolicyAction, len(actions))
	for bucket, action := range actions {
		cloned[bucket] = action
	}

	return &TimeBucketPolicy{actions: cloned}
}

// ActionAt returns the policy action for the bucket containing the provided
// instant. Buckets without an entry allow.
func (p *TimeBucketPolicy) ActionAt(at time.Time) PolicyAction {
	if p == nil {
		return Allow
	}

	return p.actions[BucketOf(at)]
}

// Size returns the number of configured bucket overrides.
func (p *TimeBucketPolicy) Size() int {
	if p == nil {
		return 0
	}

	return len(p.actions)
}
