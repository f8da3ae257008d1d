// Package config loads the team list file and derives the immutable runtime
// Settings.
//
// The file is JSON when its extension is .json and YAML otherwise. Team
// entries are either a plain name or an object with a name and an HLTV id:
//
//	{"teams": ["FURIA", {"name": "MIBR", "id": 9215}], "future_days": 90, "past_results": 5}
package config
