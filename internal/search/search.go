// Package search finds pharmacies by approximate name or address across loaded calendars
// and lists their upcoming duty dates.
package search

import (
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"guardia/pkg/models"
)

// Duty is one date a pharmacy is assigned to.
type Duty struct {
	Date models.DutyDate    `json:"date"`
	Span models.DutyTimeSpan `json:"span"`
	Zone string             `json:"zone,omitempty"`
}

// Entry is a pharmacy and every duty it has in one region's calendar.
type Entry struct {
	Region   models.RegionID `json:"region"`
	Pharmacy models.Pharmacy `json:"pharmacy"`
	Duties   []Duty          `json:"duties"`
}

// Match is a search hit. Lower Distance is closer.
type Match struct {
	Entry    *Entry `json:"entry"`
	Distance int    `json:"distance"`
	Upcoming []Duty `json:"upcoming"`
}

// Index holds the pharmacies of the calendars added to it.
type Index struct {
	entries []*Entry
	targets []string
	byKey   map[string]*Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byKey: make(map[string]*Entry)}
}

// Len returns the number of distinct pharmacies indexed.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Add indexes every pharmacy assigned in schedules. A pharmacy is identified by region,
// name and address, ignoring case and accents.
func (ix *Index) Add(region models.RegionID, schedules []models.PharmacySchedule) {
	for _, s := range schedules {
		if s.IsZoned() {
			for _, z := range s.Zones {
				for _, p := range z.Pharmacies {
					ix.record(region, p, Duty{Date: s.Date, Span: models.FullDay, Zone: z.ZoneID})
				}
			}
			continue
		}
		for _, span := range s.Spans() {
			for _, p := range s.Pharmacies(span) {
				ix.record(region, p, Duty{Date: s.Date, Span: span})
			}
		}
	}
}

func (ix *Index) record(region models.RegionID, p models.Pharmacy, d Duty) {
	if strings.TrimSpace(p.Name) == "" {
		return
	}
	key := string(region) + "|" + models.Fold(p.Name) + "|" + models.Fold(p.Address)
	e, ok := ix.byKey[key]
	if !ok {
		e = &Entry{Region: region, Pharmacy: p}
		ix.byKey[key] = e
		ix.entries = append(ix.entries, e)
		ix.targets = append(ix.targets, strings.TrimSpace(p.Name+" "+p.Address))
	}
	e.Duties = append(e.Duties, d)
}

// Search ranks pharmacies whose name or address contains the letters of query in order,
// closest first. Upcoming holds the duties on or after the calendar day of from, in date
// order. A limit of zero or less returns every hit.
func (ix *Index) Search(query string, from time.Time, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(query, ix.targets)
	sort.Stable(ranks)

	today := models.NewDutyDate(from)
	matches := make([]Match, 0, len(ranks))
	for _, r := range ranks {
		e := ix.entries[r.OriginalIndex]
		matches = append(matches, Match{
			Entry:    e,
			Distance: r.Distance,
			Upcoming: upcoming(e.Duties, today),
		})
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches
}

func upcoming(duties []Duty, today models.DutyDate) []Duty {
	out := make([]Duty, 0, len(duties))
	for _, d := range duties {
		if d.Date.Compare(today) >= 0 {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Compare(out[j].Date) < 0
	})
	return out
}
