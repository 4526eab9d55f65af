package merge

import "strings"

// Conflict marker lines, one block per overlapping region. The block layout
// is part of the external contract: users edit it by hand and the daemon
// re-parses it to observe resolution.
const (
	markerBegin = "<<<<<<< SOURCE\n"
	markerSep   = "=======\n"
	markerEnd   = ">>>>>>> TARGET\n"
)

func HasMarkers(content []byte) bool {
	s := string(content)
	return strings.Contains(s, strings.TrimRight(markerBegin, "\n")) ||
		strings.Contains(s, strings.TrimRight(markerEnd, "\n"))
}

// ResolveWithSource strips every marker block keeping the SOURCE half.
func ResolveWithSource(content []byte) []byte {
	return resolve(content, true)
}

// ResolveWithTarget strips every marker block keeping the TARGET half.
func ResolveWithTarget(content []byte) []byte {
	return resolve(content, false)
}

func resolve(content []byte, keepSource bool) []byte {
	lines := splitKeepEnds(string(content))

	var out strings.Builder
	inConflict := false
	inSource := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "<<<<<<< SOURCE"):
			inConflict = true
			inSource = true
		case inConflict && strings.HasPrefix(line, "======="):
			inSource = false
		case inConflict && strings.HasPrefix(line, ">>>>>>> TARGET"):
			inConflict = false
		case !inConflict || inSource == keepSource:
			out.WriteString(line)
		}
	}

	return []byte(out.String())
}

// splitKeepEnds splits on newlines without normalizing a missing final one,
// unlike splitLines, so resolution round-trips the file byte for byte.
func splitKeepEnds(content string) []string {
	var lines []string
	start := 0

	for idx := 0; idx < len(content); idx++ {
		if content[idx] == '\n' {
			lines = append(lines, content[start:idx+1])
			start = idx + 1
		}
	}

	if start < len(content) {
		lines = append(lines, content[start:])
	}

	return lines
}
