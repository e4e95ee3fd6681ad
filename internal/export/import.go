package export

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rmitchellscott/bayerlab/internal/database"
	"github.com/rmitchellscott/bayerlab/internal/logging"
)

// ImportOptions configures how to handle the import
type ImportOptions struct {
	// Replace palettes and records that already exist; otherwise they are kept
	Overwrite bool
}

// ImportResult counts what was written
type ImportResult struct {
	Metadata ExportMetadata
	Palettes int
	Renders  int
	Images   int
}

// Importer restores an archive written by Exporter
type Importer struct {
	db        *gorm.DB
	imagesDir string
}

// NewImporter creates a new importer instance
func NewImporter(db *gorm.DB, imagesDir string) *Importer {
	return &Importer{db: db, imagesDir: imagesDir}
}

// Import reads an archive from r
func (i *Importer) Import(r io.Reader, options ImportOptions) (*ImportResult, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	result := &ImportResult{}
	sawMetadata := false

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		if !sawMetadata {
			if header.Name != metadataName {
				return nil, fmt.Errorf("archive does not start with %s", metadataName)
			}
			if err := json.NewDecoder(tarReader).Decode(&result.Metadata); err != nil {
				return nil, fmt.Errorf("failed to read metadata: %w", err)
			}
			sawMetadata = true
			continue
		}

		switch {
		case header.Name == palettesName:
			if result.Palettes, err = i.importPalettes(tarReader, options); err != nil {
				return nil, err
			}
		case header.Name == rendersName:
			if result.Renders, err = i.importRenders(tarReader, options); err != nil {
				return nil, err
			}
		case strings.HasPrefix(header.Name, imagesPrefix):
			written, err := i.importImage(tarReader, strings.TrimPrefix(header.Name, imagesPrefix), options)
			if err != nil {
				return nil, err
			}
			if written {
				result.Images++
			}
		default:
			logging.WarnWithComponent(logging.ComponentDatabase, "Skipping unknown archive entry", "name", header.Name)
		}
	}

	if !sawMetadata {
		return nil, fmt.Errorf("archive is empty")
	}

	logging.InfoWithComponent(logging.ComponentDatabase, "Imported archive",
		"palettes", result.Palettes, "renders", result.Renders, "images", result.Images)
	return result, nil
}

func (i *Importer) importPalettes(r io.Reader, options ImportOptions) (int, error) {
	var palettes []database.SavedPalette
	if err := json.NewDecoder(r).Decode(&palettes); err != nil {
		return 0, fmt.Errorf("failed to read saved_palettes: %w", err)
	}

	imported := 0
	err := i.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range palettes {
			var existing int64
			if err := tx.Model(&database.SavedPalette{}).Where("name = ?", p.Name).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				if !options.Overwrite {
					continue
				}
				if err := tx.Where("name = ?", p.Name).Delete(&database.SavedPalette{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to import palette %s: %w", p.Name, err)
			}
			imported++
		}
		return nil
	})
	return imported, err
}

func (i *Importer) importRenders(r io.Reader, options ImportOptions) (int, error) {
	var renders []database.RenderRecord
	if err := json.NewDecoder(r).Decode(&renders); err != nil {
		return 0, fmt.Errorf("failed to read render_records: %w", err)
	}
	if len(renders) == 0 {
		return 0, nil
	}

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if options.Overwrite {
		onConflict = clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
	}

	result := i.db.Clauses(onConflict).CreateInBatches(&renders, 100)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to import render_records: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (i *Importer) importImage(r io.Reader, name string, options ImportOptions) (bool, error) {
	// Flat names only; anything with a directory part could escape imagesDir
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || !strings.HasSuffix(name, ".png") {
		return false, fmt.Errorf("invalid image path in archive: %s", name)
	}

	if err := os.MkdirAll(i.imagesDir, 0755); err != nil {
		return false, fmt.Errorf("failed to create image directory: %w", err)
	}

	destPath := filepath.Join(i.imagesDir, name)
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if options.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	outFile, err := os.OpenFile(destPath, flags, 0644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return false, fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return true, outFile.Close()
}
