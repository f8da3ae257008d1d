package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/cs2-cal/internal/generator"
)

// SortOrder represents the available report orderings
type SortOrder string

const (
	SortByConfig SortOrder = "config"
	SortByName   SortOrder = "name"
	SortByEvents SortOrder = "events"
)

// sortTeams orders team reports in place. SortByConfig and unknown orders
// keep the order of the config file.
func sortTeams(teams []generator.TeamReport, order SortOrder) {
	switch order {
	case SortByName:
		sort.SliceStable(teams, func(i, j int) bool {
			return strings.ToLower(teams[i].Team) < strings.ToLower(teams[j].Team)
		})
	case SortByEvents:
		sort.SliceStable(teams, func(i, j int) bool {
			ei := teams[i].Upcoming + teams[i].Results
			ej := teams[j].Upcoming + teams[j].Results
			if ei != ej {
				return ei > ej
			}
			// If counts are equal, sort by name
			return strings.ToLower(teams[i].Team) < strings.ToLower(teams[j].Team)
		})
	}
}
