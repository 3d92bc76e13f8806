package hashstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/watchdag/internal/adapters/hashstore"
)

func TestFile_SaveThenLoad_PersistsAcrossInstances(t *testing.T) {
	root := t.TempDir()

	f1 := hashstore.NewFile(root)
	require.NoError(t, f1.Save("build", "deadbeef"))

	f2 := hashstore.NewFile(root)
	digest, ok, err := f2.Load("build")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "deadbeef", digest)

	_, err = os.Stat(filepath.Join(root, ".watchdag", "hashes"))
	assert.NoError(t, err)
}

func TestFile_Load_MissingFileReturnsNotFound(t *testing.T) {
	f := hashstore.NewFile(t.TempDir())
	_, ok, err := f.Load("build")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_Prune_RemovesInactiveTasks(t *testing.T) {
	root := t.TempDir()
	f := hashstore.NewFile(root)
	require.NoError(t, f.Save("build", "a"))
	require.NoError(t, f.Save("removed-task", "b"))

	require.NoError(t, f.Prune([]string{"build"}))

	_, ok, err := f.Load("removed-task")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = f.Load("build")
	require.NoError(t, err)
	assert.True(t, ok)
}
