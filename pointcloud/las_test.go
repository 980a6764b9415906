package pointcloud

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lastiler/geometry"
	"github.com/stretchr/testify/require"
)

func testFileInfo(points uint64, bounds geometry.Extent) FileInfo {
	return FileInfo{
		PointCount: points,
		Bounds:     bounds,
		MinZ:       -2.5,
		MaxZ:       30,
		ScaleX:     0.01,
		ScaleY:     0.01,
		ScaleZ:     0.001,
	}
}

func TestLASInspectorInspectFile(t *testing.T) {
	dir := t.TempDir()
	want := testFileInfo(42, geometry.Extent{MinX: 85000, MinY: 440000, MaxX: 85500.5, MaxY: 440300.25})

	for _, minor := range []uint8{0, 2, 3, 4} {
		path := filepath.Join(dir, "file.las")
		require.NoError(t, WriteTestFile(path, want, minor))

		info, err := LASInspector{}.InspectFile(path)
		require.NoError(t, err)

		want.Path = path
		require.Equal(t, want, info)
	}
}

func TestLASInspectorInspectFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LASInspector{}.InspectFile(filepath.Join(dir, "missing.las"))
		require.True(t, errors.IsType(err, ErrTypeInspection))
	})

	t.Run("truncated header", func(t *testing.T) {
		path := filepath.Join(dir, "truncated.las")
		require.NoError(t, os.WriteFile(path, []byte("LASF"), 0o644))

		_, err := LASInspector{}.InspectFile(path)
		require.True(t, errors.IsType(err, ErrTypeInspection))
	})

	t.Run("bad signature", func(t *testing.T) {
		path := filepath.Join(dir, "bad.las")
		require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{1}, 400), 0o644))

		_, err := LASInspector{}.InspectFile(path)
		require.True(t, errors.IsType(err, ErrTypeInspection))
	})
}

func TestLASInspectorInspectFolder(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteTestFile(filepath.Join(dir, "a.las"), testFileInfo(10, geometry.Extent{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5}), 2))
	require.NoError(t, WriteTestFile(filepath.Join(dir, "b.LAZ"), testFileInfo(20, geometry.Extent{MinX: 5, MinY: -1, MaxX: 8, MaxY: 3}), 4))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.las"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	t.Run("folder", func(t *testing.T) {
		folder, err := LASInspector{}.InspectFolder(dir)
		require.NoError(t, err)
		require.Len(t, folder.Files, 2)
		require.Len(t, folder.Invalid, 1)
		require.Equal(t, filepath.Join(dir, "c.las"), folder.Invalid[0].Path)
		require.Equal(t, uint64(30), folder.PointCount)
		require.Equal(t, geometry.Extent{MinX: 0, MinY: -1, MaxX: 8, MaxY: 5}, folder.Bounds)
		require.Equal(t, 0.01, folder.ScaleX)
	})

	t.Run("single file", func(t *testing.T) {
		folder, err := LASInspector{}.InspectFolder(filepath.Join(dir, "a.las"))
		require.NoError(t, err)
		require.Len(t, folder.Files, 1)
		require.Equal(t, uint64(10), folder.PointCount)
	})

	t.Run("missing folder", func(t *testing.T) {
		_, err := LASInspector{}.InspectFolder(filepath.Join(dir, "missing"))
		require.True(t, errors.IsType(err, ErrTypeInspection))
	})

	t.Run("empty folder", func(t *testing.T) {
		folder, err := LASInspector{}.InspectFolder(t.TempDir())
		require.NoError(t, err)
		require.Empty(t, folder.Files)
		require.False(t, folder.Bounds.Valid())
	})
}

func TestLASInspectorConcurrent(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 8; i++ {
		path := filepath.Join(dir, string(rune('a'+i))+".las")
		require.NoError(t, WriteTestFile(path, testFileInfo(uint64(i+1), geometry.Extent{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}), 2))
		paths = append(paths, path)
	}

	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			info, err := LASInspector{}.InspectFile(p)
			require.NoError(t, err)
			require.Equal(t, uint64(i+1), info.PointCount)
		}(i, p)
	}
	wg.Wait()
}

func TestIsPointCloudFile(t *testing.T) {
	require.True(t, IsPointCloudFile("a.las"))
	require.True(t, IsPointCloudFile("a.LAZ"))
	require.False(t, IsPointCloudFile("a.txt"))
}
