package domain

import "strings"

// Target is the address of one collaboration space (site or web).
type Target string

// String returns the target address.
func (t Target) String() string {
	return string(t)
}

// ParseTargets converts raw input lines into targets.
// Lines are trimmed and blank lines are skipped.
func ParseTargets(lines []string) []Target {
	targets := make([]Target, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		targets = append(targets, Target(line))
	}
	return targets
}

// Join appends a file name to the target address with a single slash.
func (t Target) Join(name string) string {
	return strings.TrimRight(string(t), "/") + "/" + name
}
