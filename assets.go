package mosaic

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path"
	"sort"
)

// AssetLoader holds the files of a palette archive in memory.
type AssetLoader struct {
	Files map[string][]byte
}

// NewAssetLoaderFromArchive reads a gzipped tar archive.
func NewAssetLoaderFromArchive(path string) (*AssetLoader, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	return NewAssetLoader(fd)
}

func NewAssetLoader(r io.Reader) (*AssetLoader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open palette archive: %w", err)
	}
	defer gz.Close()

	files := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read palette archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from palette archive: %w", hdr.Name, err)
		}
		files[path.Clean(hdr.Name)] = data
	}

	return &AssetLoader{
		Files: files,
	}, nil
}

func (a *AssetLoader) Has(name string) bool {
	_, ok := a.Files[name]
	return ok
}

func (a *AssetLoader) LoadPNG(name string) (image.Image, error) {
	data, err := a.LoadRaw(name)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(data))
}

func (a *AssetLoader) LoadRaw(name string) ([]byte, error) {
	data, ok := a.Files[name]
	if !ok {
		return nil, fmt.Errorf("file %s does not exist", name)
	}
	return data, nil
}

func (a *AssetLoader) Names() []string {
	names := make([]string, 0, len(a.Files))
	for name := range a.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
