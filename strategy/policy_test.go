package strategy

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestPolicyActionString(t *testing.T) {
	tests := []struct {
		name   string
		action PolicyAction
		want   string
	}{
		{
			name:   "allow",
			action: Allow,
			want:   "allow",
		},
		{
			name:   "block",
			action: Block,
			want:   "block",
		},
		{
			name:   "reverse",
			action: Reverse,
			want:   "reverse",
		},
		{
			name:   "unknown",
			action: PolicyAction(999),
			want:   "unknown",
		},
	}

	for _, test := range tests {
		str := test.action.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}
}

func TestNewTimeBucket(t *testing.T) {
	// Ensure buckets sit on fifteen minute boundaries with valid hours.
	_, err := NewTimeBucket(time.Monday, 24, 0)
	assert.Error(t, err)

	_, err = NewTimeBucket(time.Monday, -1, 0)
	assert.Error(t, err)

	_, err = NewTimeBucket(time.Monday, 10, 7)
	assert.Error(t, err)

	bucket, err := NewTimeBucket(time.Monday, 10, 45)
	assert.NoError(t, err)
	assert.Equal(t, bucket.Hour, 10)
	assert.Equal(t, bucket.Minute, 45)
}

func TestBucketOf(t *testing.T) {
	// 2024-03-04 is a monday. Minutes floor to the fifteen minute boundary.
	at := time.Date(2024, 3, 4, 14, 37, 12, 0, time.UTC)
	bucket := BucketOf(at)
	assert.Equal(t, bucket.Weekday, time.Monday)
	assert.Equal(t, bucket.Hour, 14)
	assert.Equal(t, bucket.Minute, 30)
}

func TestTimeBucketPolicy(t *testing.T) {
	mondayMidnight, err := NewTimeBucket(time.Monday, 0, 0)
	assert.NoError(t, err)

	tuesdayNoon, err := NewTimeBucket(time.Tuesday, 12, 15)
	assert.NoError(t, err)

	policy := NewTimeBucketPolicy(map[TimeBucket]PolicyAction{
		mondayMidnight: Block,
		tuesdayNoon:    Reverse,
	})
	assert.Equal(t, policy.Size(), 2)

	// Any instant inside a configured bucket resolves to its action.
	blocked := time.Date(2024, 3, 4, 0, 8, 0, 0, time.UTC)
	assert.Equal(t, policy.ActionAt(blocked), Block)

	reversed := time.Date(2024, 3, 5, 12, 20, 0, 0, time.UTC)
	assert.Equal(t, policy.ActionAt(reversed), Reverse)

	// Unconfigured buckets allow.
	allowed := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, policy.ActionAt(allowed), Allow)

	// A nil policy allows everything.
	var nilPolicy *TimeBucketPolicy
	assert.Equal(t, nilPolicy.ActionAt(blocked), Allow)
	assert.Equal(t, nilPolicy.Size(), 0)
}
