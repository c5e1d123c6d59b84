package models

import (
	"fmt"
	"strings"
)

// RegionID identifies a served region. It selects the parsing strategy and the cache
// partition.
type RegionID string

const (
	RegionCapital   RegionID = "segovia-capital"
	RegionCuellar   RegionID = "cuellar"
	RegionElEspinar RegionID = "el-espinar"
	RegionRural     RegionID = "segovia-rural"
)

// ShiftPattern is the structural shape of a region's duty table.
type ShiftPattern int

const (
	PatternUnknown ShiftPattern = iota
	// PatternSingle has one FullDay entry per date.
	PatternSingle
	// PatternSplit has CapitalDay and CapitalNight entries per date.
	PatternSplit
)

func (p ShiftPattern) String() string {
	switch p {
	case PatternSingle:
		return "single"
	case PatternSplit:
		return "split"
	}
	return "unknown"
}

// Region is a served area with its published duty calendar.
type Region struct {
	ID          RegionID     `json:"id"`
	Name        string       `json:"name"`
	Icon        string       `json:"icon"`
	DocumentURL string       `json:"document_url"`
	Pattern     ShiftPattern `json:"-"`
	Zoned       bool         `json:"zoned"`
}

func (r Region) String() string {
	return string(r.ID)
}

var defaultRegions = []Region{
	{
		ID:          RegionCapital,
		Name:        "Segovia capital",
		Icon:        "building.2",
		DocumentURL: "https://www.cofsegovia.com/guardias/CAPITAL.pdf",
		Pattern:     PatternSplit,
	},
	{
		ID:          RegionCuellar,
		Name:        "Cuéllar",
		Icon:        "house",
		DocumentURL: "https://www.cofsegovia.com/guardias/CUELLAR.pdf",
		Pattern:     PatternSingle,
	},
	{
		ID:          RegionElEspinar,
		Name:        "El Espinar",
		Icon:        "mountain.2",
		DocumentURL: "https://www.cofsegovia.com/guardias/EL-ESPINAR.pdf",
		Pattern:     PatternSingle,
	},
	{
		ID:          RegionRural,
		Name:        "Segovia rural (ZBS)",
		Icon:        "leaf",
		DocumentURL: "https://www.cofsegovia.com/guardias/RURAL.pdf",
		Pattern:     PatternSingle,
		Zoned:       true,
	},
}

// Regions returns the served regions with their default document URLs.
func Regions() []Region {
	out := make([]Region, len(defaultRegions))
	copy(out, defaultRegions)
	return out
}

// LookupRegion finds a region by ID or by a case- and accent-insensitive name.
func LookupRegion(key string) (Region, error) {
	folded := Fold(key)
	for _, r := range defaultRegions {
		if string(r.ID) == key || Fold(r.Name) == folded || strings.ReplaceAll(folded, " ", "-") == string(r.ID) {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("unknown region %q", key)
}
