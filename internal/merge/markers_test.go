package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasMarkers(t *testing.T) {
	t.Parallel()

	assert.False(t, HasMarkers([]byte("A\nB\nC\n")))
	assert.False(t, HasMarkers([]byte("=======\n")))
	assert.True(t, HasMarkers([]byte("A\n<<<<<<< SOURCE\nB1\n=======\nB2\n>>>>>>> TARGET\nC\n")))
	assert.True(t, HasMarkers([]byte(">>>>>>> TARGET\n")))
}

func TestResolve_KeepsChosenSide(t *testing.T) {
	t.Parallel()

	marked := []byte("A\n<<<<<<< SOURCE\nB1\n=======\nB2\n>>>>>>> TARGET\nC\n")

	assert.Equal(t, "A\nB1\nC\n", string(ResolveWithSource(marked)))
	assert.Equal(t, "A\nB2\nC\n", string(ResolveWithTarget(marked)))
}

func TestResolve_MultipleBlocks(t *testing.T) {
	t.Parallel()

	marked := []byte("<<<<<<< SOURCE\nX\n=======\nY\n>>>>>>> TARGET\n" +
		"mid\n" +
		"<<<<<<< SOURCE\n1\n2\n=======\n3\n>>>>>>> TARGET\nend\n")

	assert.Equal(t, "X\nmid\n1\n2\nend\n", string(ResolveWithSource(marked)))
	assert.Equal(t, "Y\nmid\n3\nend\n", string(ResolveWithTarget(marked)))
}

func TestResolve_NoMarkersIsIdentity(t *testing.T) {
	t.Parallel()

	content := []byte("just\nsome\nlines without trailing newline")

	assert.Equal(t, content, ResolveWithSource(content))
	assert.Equal(t, content, ResolveWithTarget(content))
}

// A separator line in ordinary content must not be mistaken for a marker.
func TestResolve_SeparatorOutsideBlockKept(t *testing.T) {
	t.Parallel()

	content := []byte("title\n=======\nbody\n")

	assert.Equal(t, content, ResolveWithSource(content))
	assert.Equal(t, content, ResolveWithTarget(content))
}
