package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFolders(t *testing.T) config.Folders {
	t.Helper()
	base := t.TempDir()
	return config.Folders{
		InputImages:  filepath.Join(base, "in", "images"),
		OutputImages: filepath.Join(base, "out", "images"),
		InputVideos:  filepath.Join(base, "in", "videos"),
		OutputVideos: filepath.Join(base, "out", "videos"),
	}
}

func TestNewService(t *testing.T) {
	t.Run("creates all configured directories", func(t *testing.T) {
		folders := testFolders(t)
		svc, err := NewService(folders)
		require.NoError(t, err)

		for _, dir := range []string{folders.InputImages, folders.OutputImages, folders.InputVideos, folders.OutputVideos} {
			info, err := os.Stat(dir)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
		assert.False(t, svc.HasRole(RoleInputAudio))
	})

	t.Run("audio role is optional", func(t *testing.T) {
		folders := testFolders(t)
		folders.InputAudio = filepath.Join(t.TempDir(), "audio")
		svc, err := NewService(folders)
		require.NoError(t, err)
		assert.True(t, svc.HasRole(RoleInputAudio))
		assert.DirExists(t, folders.InputAudio)
	})
}

func TestOutputPath(t *testing.T) {
	svc, err := NewService(testFolders(t))
	require.NoError(t, err)

	out := svc.OutputPath(RoleOutputImages, "/somewhere/else/photo.JPG")
	assert.Equal(t, filepath.Join(svc.Path(RoleOutputImages), "photo.JPG"), out)
}

func TestList(t *testing.T) {
	svc, err := NewService(testFolders(t))
	require.NoError(t, err)

	dir := svc.Path(RoleInputImages)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	files, err := svc.List(RoleInputImages)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.jpg"),
	}, files)

	t.Run("unconfigured role lists nothing", func(t *testing.T) {
		files, err := svc.List(RoleInputAudio)
		assert.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestRemoveIfExists(t *testing.T) {
	svc, err := NewService(testFolders(t))
	require.NoError(t, err)

	path := filepath.Join(svc.Path(RoleOutputImages), "partial.jpg")
	require.NoError(t, os.WriteFile(path, []byte("partial"), 0644))

	assert.NoError(t, svc.RemoveIfExists(path))
	assert.False(t, svc.Exists(path))

	// Deleting an already-missing file is not an error.
	assert.NoError(t, svc.RemoveIfExists(path))
}
