package report

import (
	"sort"
	"strings"

	"github.com/habedi/rentdesk/client"
)

// AreaGroup is a set of apartments sharing a location label.
type AreaGroup struct {
	Name       string
	Apartments []client.Apartment
}

// OtherArea labels apartments without area, city or region.
const OtherArea = "Other"

// GroupByArea groups by area, falling back to city, then region, then OtherArea.
// Groups are sorted by name with OtherArea last.
func GroupByArea(apartments []client.Apartment) []AreaGroup {
	index := make(map[string]int)
	var groups []AreaGroup
	for _, a := range apartments {
		name := firstNonEmpty(a.Area, a.City, a.Region)
		if name == "" {
			name = OtherArea
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, AreaGroup{Name: name})
		}
		groups[i].Apartments = append(groups[i].Apartments, a)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if (groups[i].Name == OtherArea) != (groups[j].Name == OtherArea) {
			return groups[j].Name == OtherArea
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
