package domain

import "time"

func ParseEpochSeconds(value int64) *time.Time {
	if value <= 0 {
		return nil
	}
	parsed := time.Unix(value, 0).UTC()
	return &parsed
}

// ResetTime normalizes the two reset encodings the usage endpoint has used:
// an absolute epoch timestamp, or a relative seconds-until-reset counter.
// The relative form wins when both are present since it is anchored to the
// response rather than the caller's clock skew.
func ResetTime(now time.Time, resetAfterSeconds *int64, resetAtEpoch *int64) *time.Time {
	if resetAfterSeconds != nil && *resetAfterSeconds >= 0 {
		t := now.Add(time.Duration(*resetAfterSeconds) * time.Second).UTC()
		return &t
	}
	if resetAtEpoch != nil {
		return ParseEpochSeconds(*resetAtEpoch)
	}
	return nil
}
