package core

import "strings"

const (
	DefaultMinAge = 0
	DefaultMaxAge = 100
)

// AgeFilter narrows families by their members' ages. A nil Min or Max uses
// the 0..100 default bound. The filter is inactive when BabiesOnly is false
// and neither bound is set.
type AgeFilter struct {
	BabiesOnly bool
	Min        *int
	Max        *int
}

// FamilyFilter is the family list search. An empty Status or "All" matches
// every status.
type FamilyFilter struct {
	Query  string
	Status Status
	Age    AgeFilter
}

func (a AgeFilter) Active() bool {
	return a.BabiesOnly || a.Min != nil || a.Max != nil
}

func (a AgeFilter) Match(f Family) bool {
	if a.BabiesOnly {
		for _, m := range f.Members {
			if m.AgeType == AgeMonths || m.AgeInYears() < 1 {
				return true
			}
		}
		return false
	}
	if a.Min == nil && a.Max == nil {
		return true
	}
	lo, hi := float64(DefaultMinAge), float64(DefaultMaxAge)
	if a.Min != nil {
		lo = float64(*a.Min)
	}
	if a.Max != nil {
		hi = float64(*a.Max)
	}
	for _, m := range f.Members {
		age := m.AgeInYears()
		if age >= lo && age <= hi {
			return true
		}
	}
	return false
}

func (ff FamilyFilter) Match(f Family) bool {
	if q := strings.ToLower(ff.Query); q != "" {
		if !strings.Contains(strings.ToLower(f.Name), q) &&
			!strings.Contains(strings.ToLower(f.Code), q) &&
			!strings.Contains(strings.ToLower(f.ResponsibleName), q) {
			return false
		}
	}
	if ff.Status != "" && ff.Status != "All" && f.Status != ff.Status {
		return false
	}
	return ff.Age.Match(f)
}

// FilterFamilies returns the matching families, preserving order.
func FilterFamilies(families []Family, ff FamilyFilter) []Family {
	out := make([]Family, 0, len(families))
	for _, f := range families {
		if ff.Match(f) {
			out = append(out, f)
		}
	}
	return out
}
