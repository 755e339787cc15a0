package domain

import "strings"

// NoUpdateSentinel is the engine's way of declining to change a skill.
const NoUpdateSentinel = "NO_UPDATE"

const resourceMarker = "NEW_FILE:"

// Distillation is the parsed outcome of one observer distillation.
// The zero value means "no change this round".
type Distillation struct {
	Details   string
	Resources map[string]string
}

func (d Distillation) Empty() bool {
	return d.Details == "" && len(d.Resources) == 0
}

// ParseDistillation reads the distillation protocol: either the exact
// NO_UPDATE sentinel, or replacement details content followed by zero
// or more blocks introduced by "NEW_FILE: <filename>", each running to
// the next marker or the end of the response. A marker without a
// filename is treated as ordinary content.
func ParseDistillation(response string) Distillation {
	response = strings.TrimSpace(response)
	if response == "" || response == NoUpdateSentinel {
		return Distillation{}
	}

	var (
		details []string
		current string
		blocks  = map[string][]string{}
	)

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, resourceMarker) {
			if name := strings.TrimSpace(strings.TrimPrefix(trimmed, resourceMarker)); name != "" {
				current = name
				blocks[name] = nil
				continue
			}
		}
		if current != "" {
			blocks[current] = append(blocks[current], line)
			continue
		}
		details = append(details, line)
	}

	result := Distillation{Details: strings.TrimSpace(strings.Join(details, "\n"))}
	if len(blocks) > 0 {
		result.Resources = make(map[string]string, len(blocks))
		for name, lines := range blocks {
			result.Resources[name] = strings.TrimSpace(strings.Join(lines, "\n"))
		}
	}
	return result
}
