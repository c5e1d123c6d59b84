package models

import "sort"

// PharmacySchedule is one dated row of a duty table. Instances are built once by a
// parsing strategy and never mutated afterwards.
type PharmacySchedule struct {
	Date   DutyDate                    `json:"date"`
	Shifts map[DutyTimeSpan][]Pharmacy `json:"shifts"`

	// Zones is set only for rural health-zone tables (ZBS). Every zone printed in the
	// table is present, including zones with no pharmacy assigned for the date.
	Zones []ZoneDuty `json:"zones,omitempty"`
}

// ZoneDuty is the rotation of a single rural health zone for one date.
type ZoneDuty struct {
	ZoneID     string     `json:"zone_id"`
	Pharmacies []Pharmacy `json:"pharmacies"`
}

// NewFullDaySchedule builds a single-shift entry.
func NewFullDaySchedule(date DutyDate, pharmacies ...Pharmacy) PharmacySchedule {
	return PharmacySchedule{
		Date:   date,
		Shifts: map[DutyTimeSpan][]Pharmacy{FullDay: nonNil(pharmacies)},
	}
}

// NewCapitalSchedule builds a day/night entry.
func NewCapitalSchedule(date DutyDate, day, night []Pharmacy) PharmacySchedule {
	return PharmacySchedule{
		Date: date,
		Shifts: map[DutyTimeSpan][]Pharmacy{
			CapitalDay:   nonNil(day),
			CapitalNight: nonNil(night),
		},
	}
}

// NewZoneSchedule builds a rural entry. The FullDay list is the union of all zones in
// table order, each pharmacy tagged with its zone.
func NewZoneSchedule(date DutyDate, zones []ZoneDuty) PharmacySchedule {
	var all []Pharmacy
	tagged := make([]ZoneDuty, len(zones))
	for i, z := range zones {
		list := make([]Pharmacy, len(z.Pharmacies))
		for j, p := range z.Pharmacies {
			p.ZoneID = z.ZoneID
			list[j] = p
		}
		tagged[i] = ZoneDuty{ZoneID: z.ZoneID, Pharmacies: list}
		all = append(all, list...)
	}
	return PharmacySchedule{
		Date:   date,
		Shifts: map[DutyTimeSpan][]Pharmacy{FullDay: nonNil(all)},
		Zones:  tagged,
	}
}

// Pharmacies returns the list assigned to span, or nil.
func (s PharmacySchedule) Pharmacies(span DutyTimeSpan) []Pharmacy {
	return s.Shifts[span]
}

// HasSpan reports whether span is one of the keys of the entry.
func (s PharmacySchedule) HasSpan(span DutyTimeSpan) bool {
	_, ok := s.Shifts[span]
	return ok
}

// Spans returns the keys ordered by kind.
func (s PharmacySchedule) Spans() []DutyTimeSpan {
	spans := make([]DutyTimeSpan, 0, len(s.Shifts))
	for span := range s.Shifts {
		spans = append(spans, span)
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Kind != spans[j].Kind {
			return spans[i].Kind < spans[j].Kind
		}
		return spans[i].Start < spans[j].Start
	})
	return spans
}

// IsZoned reports whether the entry comes from a rural health-zone table.
func (s PharmacySchedule) IsZoned() bool {
	return s.Zones != nil
}

// Zone returns the pharmacies of zoneID. The boolean is false when the zone is not part
// of the table; an empty list with true means the zone has no duty coverage that day.
func (s PharmacySchedule) Zone(zoneID string) ([]Pharmacy, bool) {
	want := Fold(zoneID)
	for _, z := range s.Zones {
		if z.ZoneID == zoneID || Fold(z.ZoneID) == want {
			return z.Pharmacies, true
		}
	}
	return nil, false
}

// ZoneIDs lists the zones in table order.
func (s PharmacySchedule) ZoneIDs() []string {
	ids := make([]string, len(s.Zones))
	for i, z := range s.Zones {
		ids[i] = z.ZoneID
	}
	return ids
}

func nonNil(p []Pharmacy) []Pharmacy {
	if p == nil {
		return []Pharmacy{}
	}
	return p
}
