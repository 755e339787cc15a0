package domain

import "strings"

// SkillProposal is one NEW directive from a manager evaluation.
type SkillProposal struct {
	Name        string
	Description string
}

// Decision is the parsed outcome of one manager evaluation. It is
// acted on immediately and never persisted.
type Decision struct {
	Start  []string
	Stop   []string
	Create []SkillProposal
	Reason string
}

func (d Decision) Empty() bool {
	return len(d.Start) == 0 && len(d.Stop) == 0 && len(d.Create) == 0
}

const noneSentinel = "none"

// ParseDecision reads the line-oriented decision protocol:
//
//	START: name1, name2   (or none)
//	STOP: name3           (or none)
//	NEW: name: description
//	REASON: free text
//
// Unrecognized lines are ignored. A NEW directive without a
// colon-separated description is discarded. A response containing no
// directive at all yields ErrNoDirectives.
func ParseDecision(response string) (Decision, error) {
	var (
		decision Decision
		found    bool
	)

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "START:"):
			found = true
			decision.Start = splitNames(strings.TrimPrefix(line, "START:"))
		case strings.HasPrefix(line, "STOP:"):
			found = true
			decision.Stop = splitNames(strings.TrimPrefix(line, "STOP:"))
		case strings.HasPrefix(line, "NEW:"):
			found = true
			value := strings.TrimSpace(strings.TrimPrefix(line, "NEW:"))
			if strings.EqualFold(value, noneSentinel) {
				continue
			}
			name, description, ok := strings.Cut(value, ":")
			if !ok || strings.TrimSpace(name) == "" {
				continue
			}
			decision.Create = append(decision.Create, SkillProposal{
				Name:        strings.TrimSpace(name),
				Description: strings.TrimSpace(description),
			})
		case strings.HasPrefix(line, "REASON:"):
			found = true
			decision.Reason = strings.TrimSpace(strings.TrimPrefix(line, "REASON:"))
		}
	}

	if !found {
		return Decision{}, ErrNoDirectives
	}
	return decision, nil
}

func splitNames(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, noneSentinel) {
		return nil
	}

	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
