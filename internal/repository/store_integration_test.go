//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/db"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

type GormStoreSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	store     *GormStore
}

func TestGormStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(GormStoreSuite))
}

func (s *GormStoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("kyc"),
		postgres.WithUsername("kyc"),
		postgres.WithPassword("kyc"),
		postgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	gdb, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate(gdb))
	s.db = gdb
	s.store = NewGormStore(gdb)
}

func (s *GormStoreSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *GormStoreSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE applications, kyc_data, kyc_results").Error)
}

func application(id string) models.Application {
	return models.Application{
		AppID:   id,
		Name:    "Ravi Kumar",
		DOB:     time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC),
		Aadhaar: "1234 5678 9012",
		PAN:     "ABCDE1234F",
		Status:  models.StatusPending,
	}
}

func (s *GormStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	app := application("app-1")
	s.Require().NoError(s.store.CreateApplication(ctx, &app))
	s.ErrorIs(s.store.CreateApplication(ctx, &app), ErrDuplicateApplication)

	got, err := s.store.GetApplication(ctx, "app-1")
	s.Require().NoError(err)
	s.Equal("Ravi Kumar", got.Name)

	rec, err := s.store.TrustedRecord(ctx, "app-1")
	s.Require().NoError(err)
	s.Equal("ABCDE1234F", rec.DocumentNumbers[models.DocumentPAN])
	s.Equal(1990, rec.DateOfBirth.Year())

	_, err = s.store.GetApplication(ctx, "missing")
	s.ErrorIs(err, ErrApplicationNotFound)
}

func (s *GormStoreSuite) TestCreateApplicationsSkipsDuplicates() {
	ctx := context.Background()
	existing := application("app-1")
	s.Require().NoError(s.store.CreateApplication(ctx, &existing))

	n, err := s.store.CreateApplications(ctx, []models.Application{application("app-1"), application("app-2"), application("app-3")})
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *GormStoreSuite) TestSaveVerificationAndLatest() {
	ctx := context.Background()
	app := application("app-1")
	s.Require().NoError(s.store.CreateApplication(ctx, &app))

	save := func(dt models.DocumentType, status models.Status) {
		r := models.ReconciliationResult{DocumentType: dt, Status: status, FailedFields: []string{}}
		if status == models.StatusRejected {
			r.FailedFields = []string{models.FieldName, models.FieldDOB}
		}
		data := models.NewKYCData("app-1", models.ExtractedFields{DocumentType: dt}, "fake", 0.9, false)
		s.Require().NoError(s.store.SaveVerification(ctx, data, models.NewKYCResult("app-1", r)))
	}
	save(models.DocumentPAN, models.StatusRejected)
	save(models.DocumentAadhaar, models.StatusApproved)
	save(models.DocumentPAN, models.StatusApproved)

	got, err := s.store.LatestResults(ctx, "app-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(models.DocumentAadhaar, got[0].DocumentType)
	s.Equal(models.StatusApproved, got[1].KYCStatus)

	s.Require().NoError(s.store.UpdateStatus(ctx, "app-1", models.StatusApproved))
	s.ErrorIs(s.store.UpdateStatus(ctx, "missing", models.StatusApproved), ErrApplicationNotFound)
}
