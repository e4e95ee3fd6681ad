package export

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"gorm.io/gorm"

	"github.com/rmitchellscott/bayerlab/internal/database"
	"github.com/rmitchellscott/bayerlab/internal/logging"
	"github.com/rmitchellscott/bayerlab/internal/version"
)

const (
	metadataName = "metadata.json"
	palettesName = "database/saved_palettes.json"
	rendersName  = "database/render_records.json"
	imagesPrefix = "images/"
)

// ExportMetadata describes an archive. It is always the first entry.
type ExportMetadata struct {
	BayerlabVersion string    `json:"bayerlab_version"`
	GitCommit       string    `json:"git_commit"`
	ExportTimestamp time.Time `json:"export_timestamp"`
	DatabaseType    string    `json:"database_type"`
	ExportedTables  []string  `json:"exported_tables"`
	Palettes        int       `json:"palettes"`
	Renders         int       `json:"renders"`
	Images          int       `json:"images"`
}

// ExportOptions configures what to include in the export
type ExportOptions struct {
	IncludeHistory bool // render records
	IncludeImages  bool // rendered PNGs, only meaningful with history
}

// Exporter writes saved palettes, render history and rendered images to a tar.gz stream
type Exporter struct {
	db        *gorm.DB
	imagesDir string
}

// NewExporter creates a new exporter instance
func NewExporter(db *gorm.DB, imagesDir string) *Exporter {
	return &Exporter{db: db, imagesDir: imagesDir}
}

// Export writes the archive to w
func (e *Exporter) Export(w io.Writer, options ExportOptions) (*ExportMetadata, error) {
	meta := &ExportMetadata{
		BayerlabVersion: version.Version,
		GitCommit:       version.GitCommit,
		ExportTimestamp: time.Now().UTC(),
		DatabaseType:    e.db.Dialector.Name(),
	}

	var palettes []database.SavedPalette
	if err := e.db.Order("name ASC").Find(&palettes).Error; err != nil {
		return nil, fmt.Errorf("failed to export saved_palettes: %w", err)
	}
	meta.Palettes = len(palettes)
	meta.ExportedTables = append(meta.ExportedTables, "saved_palettes")

	var renders []database.RenderRecord
	var images []string
	if options.IncludeHistory {
		if err := e.db.Order("created_at ASC").Find(&renders).Error; err != nil {
			return nil, fmt.Errorf("failed to export render_records: %w", err)
		}
		meta.Renders = len(renders)
		meta.ExportedTables = append(meta.ExportedTables, "render_records")

		if options.IncludeImages {
			var err error
			if images, err = e.renderImages(renders); err != nil {
				return nil, err
			}
			meta.Images = len(images)
		}
	}

	gzWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzWriter)

	// Importers read metadata before anything else
	if err := writeJSONEntry(tarWriter, metadataName, meta); err != nil {
		return nil, err
	}
	if err := writeJSONEntry(tarWriter, palettesName, palettes); err != nil {
		return nil, err
	}
	if options.IncludeHistory {
		if err := writeJSONEntry(tarWriter, rendersName, renders); err != nil {
			return nil, err
		}
	}
	for _, name := range images {
		if err := addFileToTar(tarWriter, filepath.Join(e.imagesDir, name), imagesPrefix+name); err != nil {
			return nil, fmt.Errorf("failed to add image %s: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzWriter.Close(); err != nil {
		return nil, err
	}

	logging.InfoWithComponent(logging.ComponentDatabase, "Exported archive",
		"palettes", meta.Palettes, "renders", meta.Renders, "images", meta.Images)
	return meta, nil
}

// renderImages lists stored files that belong to the exported renders
func (e *Exporter) renderImages(renders []database.RenderRecord) ([]string, error) {
	entries, err := os.ReadDir(e.imagesDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered images: %w", err)
	}

	ids := make(map[string]bool, len(renders))
	for _, r := range renders {
		ids[r.ID.String()] = true
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".png") {
			continue
		}
		if id, _, ok := strings.Cut(name, "_"); ok && ids[id] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func writeJSONEntry(tarWriter *tar.Writer, name string, data interface{}) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(encoded)),
		ModTime: time.Now(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	_, err = tarWriter.Write(encoded)
	return err
}

// addFileToTar adds a single file to the tar archive
func addFileToTar(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = nameInArchive

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
