package merge

import (
	"strings"

	"github.com/Stebibastian/kas-filesync/internal/util"
)

type Kind int

const (
	KindUnchanged Kind = iota
	KindPropagate
	KindMerged
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnchanged:
		return "unchanged"
	case KindPropagate:
		return "propagate"
	case KindMerged:
		return "merged"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

type Direction string

const (
	DirectionNone           Direction = ""
	DirectionSourceToTarget Direction = "source->target"
	DirectionTargetToSource Direction = "target->source"
)

// Result is the outcome of a 3-way merge decision. Content is meaningful for
// every kind except Unchanged: the winning side for Propagate, the combined
// text for Merged, the marker-annotated text for Conflict.
type Result struct {
	Kind      Kind
	Direction Direction
	Content   []byte
	Conflicts int
}

// Merge decides how a pair reconverges given the last agreed base and the
// current content of both sides. It is pure: identical inputs always produce
// identical output, and conflict output retains both versions in full.
func Merge(base, source, target []byte) Result {
	if string(source) == string(target) {
		return Result{Kind: KindUnchanged}
	}

	if string(source) == string(base) {
		return Result{Kind: KindPropagate, Direction: DirectionTargetToSource, Content: target}
	}

	if string(target) == string(base) {
		return Result{Kind: KindPropagate, Direction: DirectionSourceToTarget, Content: source}
	}

	// All three differ. Binary content is never line-merged; the whole file
	// becomes a single conflict region.
	if util.IsBinary(base) || util.IsBinary(source) || util.IsBinary(target) {
		return Result{
			Kind:      KindConflict,
			Content:   []byte(wholeFileConflict(string(source), string(target))),
			Conflicts: 1,
		}
	}

	content, conflicts := diff3(string(base), string(source), string(target))

	if conflicts > 0 {
		return Result{Kind: KindConflict, Content: []byte(content), Conflicts: conflicts}
	}

	return Result{Kind: KindMerged, Content: []byte(content)}
}

// diff3 applies both edit sets to base in ascending base-line order. Edits
// touching the same base lines (or inserting at the same point) form one
// region: identical edits collapse, differing edits become a marker block.
func diff3(base, source, target string) (string, int) {
	baseLines := splitLines(base)
	sourceChunks := diffChunks(baseLines, splitLines(source))
	targetChunks := diffChunks(baseLines, splitLines(target))

	var out []string
	conflicts := 0
	i := 0
	si, ti := 0, 0

	for si < len(sourceChunks) || ti < len(targetChunks) {
		start := nextStart(sourceChunks, si, targetChunks, ti)

		for ; i < start; i++ {
			out = append(out, baseLines[i])
		}

		sGroup, tGroup, hi := groupRegion(sourceChunks, &si, targetChunks, &ti, start)

		switch {
		case len(tGroup) == 0:
			out = append(out, renderRegion(baseLines, start, hi, sGroup)...)
		case len(sGroup) == 0:
			out = append(out, renderRegion(baseLines, start, hi, tGroup)...)
		default:
			sourceVersion := renderRegion(baseLines, start, hi, sGroup)
			targetVersion := renderRegion(baseLines, start, hi, tGroup)

			if linesEqual(sourceVersion, targetVersion) {
				// Both sides made the same edit; nothing to reconcile.
				out = append(out, sourceVersion...)
			} else {
				conflicts++
				out = append(out, markerBegin)
				out = append(out, sourceVersion...)
				out = append(out, markerSep)
				out = append(out, targetVersion...)
				out = append(out, markerEnd)
			}
		}

		i = hi
	}

	for ; i < len(baseLines); i++ {
		out = append(out, baseLines[i])
	}

	return strings.Join(out, ""), conflicts
}

func nextStart(sourceChunks []chunk, si int, targetChunks []chunk, ti int) int {
	switch {
	case si >= len(sourceChunks):
		return targetChunks[ti].BaseStart
	case ti >= len(targetChunks):
		return sourceChunks[si].BaseStart
	default:
		return min(sourceChunks[si].BaseStart, targetChunks[ti].BaseStart)
	}
}

// groupRegion consumes every chunk belonging to the edit region beginning at
// start and returns the per-side groups plus the region's base end index.
// Overlap rules: ranges overlap when they share a base line; an insertion
// overlaps a range it falls strictly inside of; two insertions overlap only
// at the exact same point. Adjacent edits stay separate regions.
func groupRegion(sourceChunks []chunk, si *int, targetChunks []chunk, ti *int, start int) (sGroup, tGroup []chunk, hi int) {
	hi = start

	sAt := *si < len(sourceChunks) && sourceChunks[*si].BaseStart == start
	tAt := *ti < len(targetChunks) && targetChunks[*ti].BaseStart == start

	switch {
	case sAt && tAt:
		sInsert := sourceChunks[*si].BaseEnd == start
		tInsert := targetChunks[*ti].BaseEnd == start

		// An insertion at the boundary of a rewritten range precedes it
		// rather than conflicting with it.
		if sInsert && !tInsert {
			sGroup = append(sGroup, sourceChunks[*si])
			*si++
			return sGroup, nil, start
		}
		if tInsert && !sInsert {
			tGroup = append(tGroup, targetChunks[*ti])
			*ti++
			return nil, tGroup, start
		}

		sGroup = append(sGroup, sourceChunks[*si])
		tGroup = append(tGroup, targetChunks[*ti])
		hi = max(sourceChunks[*si].BaseEnd, targetChunks[*ti].BaseEnd)
		*si++
		*ti++

	case sAt:
		sGroup = append(sGroup, sourceChunks[*si])
		hi = sourceChunks[*si].BaseEnd
		*si++

	default:
		tGroup = append(tGroup, targetChunks[*ti])
		hi = targetChunks[*ti].BaseEnd
		*ti++
	}

	for {
		switch {
		case *si < len(sourceChunks) && touches(sourceChunks[*si], start, hi):
			sGroup = append(sGroup, sourceChunks[*si])
			hi = max(hi, sourceChunks[*si].BaseEnd)
			*si++
		case *ti < len(targetChunks) && touches(targetChunks[*ti], start, hi):
			tGroup = append(tGroup, targetChunks[*ti])
			hi = max(hi, targetChunks[*ti].BaseEnd)
			*ti++
		default:
			return sGroup, tGroup, hi
		}
	}
}

func touches(c chunk, lo, hi int) bool {
	if lo == hi {
		return false
	}

	if c.BaseStart == c.BaseEnd {
		return lo < c.BaseStart && c.BaseStart < hi
	}

	return c.BaseStart < hi && c.BaseEnd > lo
}

// renderRegion produces one side's version of base[lo:hi) by applying that
// side's chunks in order.
func renderRegion(baseLines []string, lo, hi int, chunks []chunk) []string {
	var out []string
	i := lo

	for _, c := range chunks {
		for ; i < c.BaseStart; i++ {
			out = append(out, baseLines[i])
		}
		out = append(out, c.Lines...)
		if c.BaseEnd > i {
			i = c.BaseEnd
		}
	}

	for ; i < hi; i++ {
		out = append(out, baseLines[i])
	}

	return out
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func wholeFileConflict(source, target string) string {
	var b strings.Builder
	b.WriteString(markerBegin)
	b.WriteString(ensureNewline(source))
	b.WriteString(markerSep)
	b.WriteString(ensureNewline(target))
	b.WriteString(markerEnd)
	return b.String()
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}
