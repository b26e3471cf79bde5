package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystem_Mount(t *testing.T) {
	t.Parallel()

	fs := NewFS(createTestConfig())
	root := fs.Mount()
	defer fs.Unmount()

	assert.Equal(t, uint64(1000), root)
	assert.True(t, fs.Mounted())
	assert.NotEmpty(t, fs.Session())
	assert.False(t, fs.MountTime().IsZero())

	dirs, files := fs.NodeCount()
	assert.Equal(t, 1, dirs)
	assert.Zero(t, files)
}

func TestFileSystem_Mount_CustomRootID(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig()
	cfg.RootID = 5000
	fs := NewFS(cfg)
	root := fs.Mount()
	defer fs.Unmount()

	assert.Equal(t, uint64(5000), root)
	id, err := fs.CreateFile(root, "f")
	require.NoError(t, err)
	assert.Equal(t, uint64(5001), id)
}

func TestFileSystem_Mount_Twice(t *testing.T) {
	t.Parallel()
	fs, root := mountTestFS(t)

	id, err := fs.CreateFile(root, "keep")
	require.NoError(t, err)
	session := fs.Session()

	assert.Equal(t, root, fs.Mount())
	assert.Equal(t, session, fs.Session(), "second mount must keep the tree")
	assert.Equal(t, id, fs.Resolve(root, "keep").ID)
}

func TestFileSystem_Unmount_ReleasesEverything(t *testing.T) {
	t.Parallel()

	fs := NewFS(createTestConfig())
	root := fs.Mount()

	d, err := fs.MakeDirectory(root, "d")
	require.NoError(t, err)
	sub, err := fs.MakeDirectory(d, "sub")
	require.NoError(t, err)
	f, err := fs.CreateFile(sub, "f")
	require.NoError(t, err)
	_, err = fs.Write(f, 0, []byte("content"), false)
	require.NoError(t, err)
	file, ok := fs.FindFile(f)
	require.True(t, ok)
	dir, ok := fs.FindDirectory(sub)
	require.True(t, ok)

	fs.Unmount()

	assert.False(t, fs.Mounted())
	assert.Empty(t, fs.Session())
	dirs, files := fs.NodeCount()
	assert.Zero(t, dirs)
	assert.Zero(t, files)
	assert.True(t, file.IsRemoved())
	assert.Zero(t, file.Size(), "content must be freed")
	assert.True(t, dir.IsRemoved())
	_, err = fs.Read(f, 0, 1)
	assert.Error(t, err)
}

func TestFileSystem_Unmount_Idempotent(t *testing.T) {
	t.Parallel()

	fs := NewFS(createTestConfig())
	assert.NotPanics(t, fs.Unmount, "unmount before mount")

	fs.Mount()
	fs.Unmount()
	assert.NotPanics(t, fs.Unmount, "second unmount")
}

func TestFileSystem_RemountResetsIDs(t *testing.T) {
	t.Parallel()

	fs := NewFS(createTestConfig())
	root := fs.Mount()
	first, err := fs.CreateFile(root, "a")
	require.NoError(t, err)
	_, err = fs.MakeDirectory(root, "b")
	require.NoError(t, err)
	firstSession := fs.Session()

	fs.Unmount()
	root = fs.Mount()
	defer fs.Unmount()

	again, err := fs.MakeDirectory(root, "other")
	require.NoError(t, err)
	assert.Equal(t, first, again, "counter reset must be exact")
	assert.NotEqual(t, firstSession, fs.Session())
	assert.False(t, fs.Resolve(root, "a").Found(), "old tree must be gone")
}

func TestFileSystem_Unmount_ConcurrentNodeReaders(t *testing.T) {
	t.Parallel()

	fs := NewFS(createTestConfig())
	root := fs.Mount()
	sub, err := fs.MakeDirectory(root, "d")
	require.NoError(t, err)
	id, err := fs.CreateFile(sub, "f")
	require.NoError(t, err)
	_, err = fs.Write(id, 0, []byte("payload"), false)
	require.NoError(t, err)

	dir, ok := fs.FindDirectory(sub)
	require.True(t, ok)
	file, ok := fs.FindFile(id)
	require.True(t, ok)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				dir.Len()
				file.Size()
				dir.IsRemoved()
			}
		}
	}()

	fs.Unmount()
	close(stop)
	<-done

	assert.True(t, dir.IsRemoved())
	assert.True(t, file.IsRemoved())
	assert.Zero(t, file.Size())
	subdirs, files := dir.Len()
	assert.Zero(t, subdirs)
	assert.Zero(t, files)
}
