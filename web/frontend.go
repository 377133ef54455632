package web

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/b1naryth1ef/mosaic/internal/fileutil"
)

// ManifestName is the file the frontend reads to discover maps and tiles.
const ManifestName = "manifest.json"

type FrontendData struct {
	Maps []MapData `json:"maps"`
}

type MapData struct {
	Name   string      `json:"name"`
	Layers []LayerData `json:"layers"`
}

type LayerData struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	TileSize int        `json:"tileSize"`
	Opacity  float64    `json:"opacity"`
	Tiles    []TileData `json:"tiles"`
}

// TileData locates one region tile.
type TileData struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// WriteManifest writes data as the manifest of the output directory path.
func WriteManifest(path string, data FrontendData) error {
	dataSerialized, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return fileutil.WithWriteFile(filepath.Join(path, ManifestName), fileutil.PublicMode, func(w io.Writer) error {
		_, err := w.Write(dataSerialized)
		return err
	})
}

// ReadManifest reads the manifest of the output directory path.
func ReadManifest(path string) (*FrontendData, error) {
	raw, err := os.ReadFile(filepath.Join(path, ManifestName))
	if err != nil {
		return nil, err
	}

	var data FrontendData
	err = json.Unmarshal(raw, &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}
