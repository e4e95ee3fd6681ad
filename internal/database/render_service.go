package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RenderRecordService handles render history
type RenderRecordService struct {
	db *gorm.DB
}

// NewRenderRecordService creates a new render record service
func NewRenderRecordService(db *gorm.DB) *RenderRecordService {
	return &RenderRecordService{db: db}
}

// CreateRecord stores a finished render
func (s *RenderRecordService) CreateRecord(record *RenderRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create render record: %w", err)
	}
	return nil
}

// GetRecord returns one render
func (s *RenderRecordService) GetRecord(id uuid.UUID) (*RenderRecord, error) {
	var record RenderRecord
	err := s.db.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: render %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render record: %w", err)
	}
	return &record, nil
}

// ListRecords returns renders newest first, with the total count
func (s *RenderRecordService) ListRecords(limit, offset int) ([]RenderRecord, int64, error) {
	var total int64
	if err := s.db.Model(&RenderRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count render records: %w", err)
	}

	var records []RenderRecord
	if err := s.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list render records: %w", err)
	}
	return records, total, nil
}

// DeleteOlderThan removes records created before cutoff and returns their IDs
func (s *RenderRecordService) DeleteOlderThan(cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&RenderRecord{}).Where("created_at < ?", cutoff).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("id IN ?", ids).Delete(&RenderRecord{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete old render records: %w", err)
	}
	return ids, nil
}
