package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareManifestsPartition(t *testing.T) {
	from := []FileRef{
		{FileID: 1, Name: "manuscript.pdf", Size: 100, Hash: "aaa"},
		{FileID: 2, Name: "figures.zip", Size: 200, Hash: "bbb"},
		{FileID: 3, Name: "appendix.pdf", Size: 300, Hash: "ccc"},
	}
	to := []FileRef{
		{FileID: 1, Name: "manuscript.pdf", Size: 150, Hash: "aa2"}, // size changed
		{FileID: 2, Name: "figures.zip", Size: 200, Hash: "bbb"},    // untouched
		{FileID: 4, Name: "cover-letter.pdf", Size: 50, Hash: "ddd"},
	}

	added, modified, removed := CompareManifests(from, to)

	require.Len(t, added, 1)
	assert.Equal(t, 4, added[0].FileID)

	require.Len(t, modified, 1)
	assert.Equal(t, 1, modified[0].FileID)

	require.Len(t, removed, 1)
	assert.Equal(t, 3, removed[0].FileID)

	// The three sets are disjoint and never contain the unchanged file.
	seen := map[int]int{}
	for _, set := range [][]FileRef{added, modified, removed} {
		for _, f := range set {
			seen[f.FileID]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "file %d appears in more than one diff set", id)
	}
	assert.NotContains(t, seen, 2)
}

func TestCompareManifestsHashChangeSameSize(t *testing.T) {
	from := []FileRef{{FileID: 1, Name: "manuscript.pdf", Size: 100, Hash: "aaa"}}
	to := []FileRef{{FileID: 1, Name: "manuscript.pdf", Size: 100, Hash: "zzz"}}

	added, modified, removed := CompareManifests(from, to)

	assert.Empty(t, added)
	assert.Empty(t, removed)
	require.Len(t, modified, 1)
	assert.Equal(t, 1, modified[0].FileID)
}

func TestCompareManifestsMissingHashFallsBackToSize(t *testing.T) {
	// Without a signature on both sides, equal size means unchanged.
	from := []FileRef{{FileID: 1, Name: "manuscript.pdf", Size: 100}}
	to := []FileRef{{FileID: 1, Name: "manuscript.pdf", Size: 100, Hash: "zzz"}}

	added, modified, removed := CompareManifests(from, to)

	assert.Empty(t, added)
	assert.Empty(t, modified)
	assert.Empty(t, removed)
}

func TestCompareManifestsRenameIsNotAChange(t *testing.T) {
	// Files are keyed by identifier, so a rename with identical content is
	// neither an add+remove pair nor a modification.
	from := []FileRef{{FileID: 1, Name: "draft.pdf", Size: 100, Hash: "aaa"}}
	to := []FileRef{{FileID: 1, Name: "final.pdf", Size: 100, Hash: "aaa"}}

	added, modified, removed := CompareManifests(from, to)

	assert.Empty(t, added)
	assert.Empty(t, modified)
	assert.Empty(t, removed)
}

func TestCompareManifestsSortedOutput(t *testing.T) {
	from := []FileRef{}
	to := []FileRef{
		{FileID: 9, Size: 1},
		{FileID: 2, Size: 1},
		{FileID: 5, Size: 1},
	}

	added, _, _ := CompareManifests(from, to)

	require.Len(t, added, 3)
	assert.Equal(t, 2, added[0].FileID)
	assert.Equal(t, 5, added[1].FileID)
	assert.Equal(t, 9, added[2].FileID)
}

func TestCompareManifestsEmptySides(t *testing.T) {
	refs := []FileRef{{FileID: 1, Size: 100, Hash: "aaa"}}

	added, modified, removed := CompareManifests(nil, refs)
	assert.Len(t, added, 1)
	assert.Empty(t, modified)
	assert.Empty(t, removed)

	added, modified, removed = CompareManifests(refs, nil)
	assert.Empty(t, added)
	assert.Empty(t, modified)
	assert.Len(t, removed, 1)
}
