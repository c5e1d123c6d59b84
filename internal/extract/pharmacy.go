package extract

import (
	"io"
	"regexp"
	"strings"

	"github.com/gocarina/gocsv"

	"guardia/pkg/models"
)

// PlaceholderAddress is shown for pharmacies known only by their code.
const PlaceholderAddress = "Dirección no disponible"

var (
	cellSeparator = regexp.MustCompile(`\s+[-–—]\s+`)
	phonePattern  = regexp.MustCompile(`(?i)\s*(?:tel[eé]?f?(?:ono)?\.?:?|tfno\.?:?)?\s*((?:\+34\s*)?[689]\d{2}(?:[\s.]?\d{2,3}){3})\s*$`)
	hoursSuffix   = regexp.MustCompile(`(?i)\s*\(?\s*(?:de\s+)?(\d{1,2}(?:[:.h]\d{2})?\s*h?\s*(?:-|–|a)\s*\d{1,2}(?:[:.h]\d{2})?\s*h?|24\s*h(?:oras)?)\s*\)?\s*$`)
)

// parsePharmacyCell reads "Name - Address [Tel]" into a Pharmacy. Hours printed at the
// end of the cell are moved to OperatingHours.
func parsePharmacyCell(text string) models.Pharmacy {
	text = strings.Join(strings.Fields(text), " ")

	var p models.Pharmacy
	if loc := hoursSuffix.FindStringIndex(text); loc != nil && loc[0] > 0 {
		annotation := strings.TrimSpace(text[loc[0]:])
		if hours, ok := parseHours(annotation); ok {
			p.OperatingHours = &hours
			p.Notes = annotation
			text = strings.TrimSpace(text[:loc[0]])
		}
	}
	if m := phonePattern.FindStringSubmatchIndex(text); m != nil && m[0] > 0 {
		p.Phone = text[m[2]:m[3]]
		text = strings.TrimSpace(text[:m[0]])
	}

	parts := cellSeparator.Split(text, 2)
	p.Name = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		p.Address = strings.TrimSpace(parts[1])
	}
	return p
}

// annotationOnly parses a line that holds nothing but an hours annotation.
func annotationOnly(line string) (models.TimeRange, bool) {
	loc := hoursSuffix.FindStringIndex(line)
	if loc == nil || strings.TrimSpace(line[:loc[0]]) != "" {
		return models.TimeRange{}, false
	}
	return parseHours(line)
}

// parseHours only accepts annotations carrying an "h" or ":" marker, so that street
// numbers such as "5-7" are not read as opening hours.
func parseHours(s string) (models.TimeRange, bool) {
	if !strings.ContainsAny(strings.ToLower(s), "h:") {
		return models.TimeRange{}, false
	}
	return models.ParseTimeRange(s)
}

// CodeTable resolves the short pharmacy codes printed in the town calendars.
type CodeTable map[string]models.Pharmacy

// Lookup finds code ignoring case and accents.
func (t CodeTable) Lookup(code string) (models.Pharmacy, bool) {
	if p, ok := t[code]; ok {
		return p, true
	}
	want := models.Fold(code)
	for k, p := range t {
		if models.Fold(k) == want {
			return p, true
		}
	}
	return models.Pharmacy{}, false
}

// Resolve returns the pharmacy for code, or a pharmacy named by the raw code with the
// placeholder address when the code is unknown.
func (t CodeTable) Resolve(code string) (models.Pharmacy, bool) {
	if p, ok := t.Lookup(code); ok {
		return p, true
	}
	return models.Pharmacy{Name: code, Address: PlaceholderAddress}, false
}

// CodeRecord is one row of a pharmacy code file.
type CodeRecord struct {
	Region  string `csv:"region"`
	Code    string `csv:"code"`
	Name    string `csv:"name"`
	Address string `csv:"address"`
	Phone   string `csv:"phone"`
}

// LoadCodeTables reads a CSV file with the columns region, code, name, address, phone.
func LoadCodeTables(r io.Reader) (map[models.RegionID]CodeTable, error) {
	var records []CodeRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, err
	}

	tables := make(map[models.RegionID]CodeTable)
	for _, rec := range records {
		region := models.RegionID(strings.TrimSpace(rec.Region))
		if tables[region] == nil {
			tables[region] = make(CodeTable)
		}
		tables[region][strings.TrimSpace(rec.Code)] = models.Pharmacy{
			Name:    strings.TrimSpace(rec.Name),
			Address: strings.TrimSpace(rec.Address),
			Phone:   strings.TrimSpace(rec.Phone),
		}
	}
	return tables, nil
}
