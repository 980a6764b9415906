package pointcloud

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lastiler/geometry"
)

// ErrTypeInspection is the error type of point cloud files that can't be
// inspected.
const ErrTypeInspection = "inspection_error"

// FileInfo describes a point cloud file without reading its points.
type FileInfo struct {
	Path       string          `json:"path"`
	PointCount uint64          `json:"point_count"`
	Bounds     geometry.Extent `json:"bounds"`
	MinZ       float64         `json:"min_z"`
	MaxZ       float64         `json:"max_z"`
	ScaleX     float64         `json:"scale_x"`
	ScaleY     float64         `json:"scale_y"`
	ScaleZ     float64         `json:"scale_z"`
}

// InvalidFile is a file of a folder that failed inspection.
type InvalidFile struct {
	Path string
	Err  error
}

// FolderInfo aggregates the inspection of all the point cloud files of a
// folder.
type FolderInfo struct {
	Files      []FileInfo
	Invalid    []InvalidFile
	PointCount uint64
	Bounds     geometry.Extent
	ScaleX     float64
	ScaleY     float64
}

// Inspector returns the point count and bounding box of point cloud files.
// Implementations must be safe for concurrent use on distinct files.
type Inspector interface {
	InspectFile(path string) (FileInfo, error)

	// Inspects a folder, or a single file when path is a file. Files that
	// can't be inspected are reported in FolderInfo.Invalid.
	InspectFolder(path string) (FolderInfo, error)
}

// IsPointCloudFile reports whether the path has a LAS or LAZ extension.
func IsPointCloudFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".las", ".laz":
		return true
	default:
		return false
	}
}

// ListFiles returns the sorted point cloud files of a folder. When path is a
// file, it is returned as the only element.
func ListFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New("reading input path failed").
			WithType(ErrTypeInspection).
			WithTag("path", path).
			Wrap(err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.New("listing folder failed").
			WithType(ErrTypeInspection).
			WithTag("path", path).
			Wrap(err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsPointCloudFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}

	sort.Strings(files)
	return files, nil
}

// inspectFolder aggregates the inspection of the given files.
func inspectFolder(path string, inspect func(string) (FileInfo, error)) (FolderInfo, error) {
	files, err := ListFiles(path)
	if err != nil {
		return FolderInfo{}, err
	}

	folder := FolderInfo{
		Files:  make([]FileInfo, 0, len(files)),
		Bounds: geometry.EmptyExtent(),
	}

	for _, f := range files {
		info, err := inspect(f)
		if err != nil {
			folder.Invalid = append(folder.Invalid, InvalidFile{Path: f, Err: err})
			continue
		}

		if len(folder.Files) == 0 {
			folder.ScaleX = info.ScaleX
			folder.ScaleY = info.ScaleY
		}

		folder.Files = append(folder.Files, info)
		folder.PointCount += info.PointCount
		folder.Bounds = folder.Bounds.Union(info.Bounds)
	}

	return folder, nil
}
