package session

import "github.com/park285/playdate-bot/internal/domain"

// Rule names the achievement it grants when the predicate holds. Rules must only ever
// add; Evaluate never removes an entry.
type Rule struct {
	Name string
	Met  func(domain.SessionState) bool
}

const CenturyName = "Century"

// Century: both players together reached 100 points.
var Century = Rule{
	Name: CenturyName,
	Met:  func(st domain.SessionState) bool { return st.Score.Total() >= 100 },
}

// Evaluate returns the achievement list after applying rules to st. Existing entries keep
// their order; new ones are appended once.
func Evaluate(st domain.SessionState, rules []Rule) []string {
	out := append([]string(nil), st.Achievements...)
	for _, r := range rules {
		if r.Met == nil || r.Name == "" {
			continue
		}
		if contains(out, r.Name) || !r.Met(st) {
			continue
		}
		out = append(out, r.Name)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
