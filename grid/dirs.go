package grid

import (
	"path/filepath"

	"github.com/aukilabs/lastiler/fsutil"
)

// TileDir returns the output directory of a tile.
func TileDir(root string, t Tile) string {
	return filepath.Join(root, t.Name)
}

// CreateTileDirs creates the output directory of every tile under root.
// Directories that already exist are left untouched.
func (g *TileGrid) CreateTileDirs(root string) error {
	for _, t := range g.Tiles {
		if err := fsutil.MkdirAll(TileDir(root, t)); err != nil {
			return err
		}
	}
	return nil
}
