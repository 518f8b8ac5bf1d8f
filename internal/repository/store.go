// Package repository persists intake applications and KYC runs.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("application already exists")
)

// Store is what the HTTP layer needs from persistence.
type Store interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	// CreateApplications inserts apps in one transaction, skipping ids that
	// already exist. It returns how many rows were inserted.
	CreateApplications(ctx context.Context, apps []models.Application) (int, error)
	GetApplication(ctx context.Context, appID string) (models.Application, error)
	TrustedRecord(ctx context.Context, appID string) (models.TrustedRecord, error)
	// SaveVerification appends the extraction snapshot and verdict for one document.
	SaveVerification(ctx context.Context, data models.KYCData, result models.KYCResult) error
	UpdateStatus(ctx context.Context, appID string, status models.Status) error
	// LatestResults returns the newest result per document type.
	LatestResults(ctx context.Context, appID string) ([]models.KYCResult, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateApplication(ctx context.Context, app *models.Application) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Application{}).Where("app_id = ?", app.AppID).Count(&n).Error; err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if n > 0 {
		return ErrDuplicateApplication
	}
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *GormStore) CreateApplications(ctx context.Context, apps []models.Application) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range apps {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&apps[i])
			if res.Error != nil {
				return fmt.Errorf("insert application %s: %w", apps[i].AppID, res.Error)
			}
			inserted += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *GormStore) GetApplication(ctx context.Context, appID string) (models.Application, error) {
	var app models.Application
	err := s.db.WithContext(ctx).Where("app_id = ?", appID).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return app, ErrApplicationNotFound
	}
	if err != nil {
		return app, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *GormStore) TrustedRecord(ctx context.Context, appID string) (models.TrustedRecord, error) {
	app, err := s.GetApplication(ctx, appID)
	if err != nil {
		return models.TrustedRecord{}, err
	}
	return app.TrustedRecord(), nil
}

func (s *GormStore) SaveVerification(ctx context.Context, data models.KYCData, result models.KYCResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&data).Error; err != nil {
			return fmt.Errorf("save kyc data: %w", err)
		}
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("save kyc result: %w", err)
		}
		return nil
	})
}

func (s *GormStore) UpdateStatus(ctx context.Context, appID string, status models.Status) error {
	res := s.db.WithContext(ctx).Model(&models.Application{}).Where("app_id = ?", appID).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (s *GormStore) LatestResults(ctx context.Context, appID string) ([]models.KYCResult, error) {
	var rows []models.KYCResult
	err := s.db.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list kyc results: %w", err)
	}
	return latestPerDocument(rows), nil
}

// latestPerDocument keeps the first row seen per document type from rows
// ordered newest first, then orders the survivors by document type.
func latestPerDocument(rows []models.KYCResult) []models.KYCResult {
	seen := map[models.DocumentType]bool{}
	out := make([]models.KYCResult, 0, 2)
	for _, r := range rows {
		if seen[r.DocumentType] {
			continue
		}
		seen[r.DocumentType] = true
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.KYCResult) int {
		return strings.Compare(string(a.DocumentType), string(b.DocumentType))
	})
	return out
}
