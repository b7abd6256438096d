package services

import "time"

// ResolveTimezone maps an optional IANA timezone name to a concrete
// location. Absent, empty, or unknown names fall back to UTC; resolution
// failures are absorbed here and never surfaced to the caller.
func ResolveTimezone(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
