package merge

// chunk is one contiguous edit relative to the base line sequence: base lines
// [BaseStart, BaseEnd) are replaced by Lines. An insertion has BaseStart ==
// BaseEnd, a deletion has empty Lines.
type chunk struct {
	BaseStart int
	BaseEnd   int
	Lines     []string
}

// diffChunks computes the edit chunks turning base into other, aligned by a
// longest-common-subsequence over whole lines.
func diffChunks(base, other []string) []chunk {
	lcs := lcsTable(base, other)

	var chunks []chunk
	i, j := 0, 0
	bi, bj := 0, 0
	open := false

	flush := func() {
		if !open {
			return
		}
		chunks = append(chunks, chunk{
			BaseStart: bi,
			BaseEnd:   i,
			Lines:     append([]string(nil), other[bj:j]...),
		})
		open = false
	}

	for i < len(base) || j < len(other) {
		switch {
		case i < len(base) && j < len(other) && base[i] == other[j]:
			flush()
			i++
			j++
		case j < len(other) && (i == len(base) || lcs[i][j+1] >= lcs[i+1][j]):
			if !open {
				bi, bj = i, j
				open = true
			}
			j++
		default:
			if !open {
				bi, bj = i, j
				open = true
			}
			i++
		}
	}
	flush()

	return chunks
}

// lcsTable returns the standard DP table where lcs[i][j] is the length of the
// longest common subsequence of base[i:] and other[j:].
func lcsTable(base, other []string) [][]int {
	lcs := make([][]int, len(base)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(other)+1)
	}

	for i := len(base) - 1; i >= 0; i-- {
		for j := len(other) - 1; j >= 0; j-- {
			if base[i] == other[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	return lcs
}

// splitLines breaks content into lines, each keeping its trailing newline.
// A missing final newline is normalized in, so both merge inputs compare
// consistently line by line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}

	var lines []string
	start := 0
	for idx := 0; idx < len(content); idx++ {
		if content[idx] == '\n' {
			lines = append(lines, content[start:idx+1])
			start = idx + 1
		}
	}

	if start < len(content) {
		lines = append(lines, content[start:]+"\n")
	}

	return lines
}
