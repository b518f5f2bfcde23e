package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	tContainer "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ApplicantRepoSuite runs against TEST_DATABASE_URL when set and otherwise
// starts a throwaway Postgres container. It skips when neither is available.
type ApplicantRepoSuite struct {
	suite.Suite
	ctx       context.Context
	container tContainer.Container
	db        *sql.DB
	repo      *ApplicantRepo
}

func (s *ApplicantRepoSuite) SetupSuite() {
	s.ctx = context.Background()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		req := tContainer.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "qualify",
				"POSTGRES_PASSWORD": "qualify",
				"POSTGRES_DB":       "qualify_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		}
		container, err := tContainer.GenericContainer(s.ctx, tContainer.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			s.T().Skipf("no test database: %v", err)
		}
		s.container = container

		host, err := container.Host(s.ctx)
		s.Require().NoError(err)
		port, err := container.MappedPort(s.ctx, "5432")
		s.Require().NoError(err)
		dbURL = fmt.Sprintf("postgres://qualify:qualify@%s:%s/qualify_test?sslmode=disable", host, port.Port())
	}

	db, err := Open(dbURL)
	s.Require().NoError(err)
	if err := db.Ping(); err != nil {
		s.T().Skipf("test database unreachable: %v", err)
	}
	_, err = db.Exec(`DROP TABLE IF EXISTS applicants; DROP TABLE IF EXISTS schema_migrations;`)
	s.Require().NoError(err)
	s.Require().NoError(RunMigrations(dbURL))
	// A second run finds nothing to do and must not fail.
	s.Require().NoError(RunMigrations(dbURL))

	s.db = db
	s.repo = NewApplicantRepo(db)
}

func (s *ApplicantRepoSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func (s *ApplicantRepoSuite) SetupTest() {
	_, err := s.db.Exec(`TRUNCATE applicants`)
	s.Require().NoError(err)
}

func (s *ApplicantRepoSuite) newApplicant(email, phone string) *domain.Applicant {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Applicant{
		ApplicantID:    uuid.NewString(),
		Email:          email,
		Phone:          phone,
		RedditUsername: "spez",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *ApplicantRepoSuite) TestCreateAndGet() {
	a := s.newApplicant("test@example.com", "5551234567")
	a.MatchedCompanySlug = "silicon-valley-consulting"
	s.Require().NoError(s.repo.Create(s.ctx, a))

	got, err := s.repo.Get(s.ctx, a.ApplicantID)
	s.Require().NoError(err)
	s.Equal(a.Email, got.Email)
	s.Equal("silicon-valley-consulting", got.MatchedCompanySlug)
	s.Nil(got.LastContractorRequestAt)
}

func (s *ApplicantRepoSuite) TestGet_NotFound() {
	_, err := s.repo.Get(s.ctx, uuid.NewString())
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ApplicantRepoSuite) TestGet_MalformedID() {
	_, err := s.repo.Get(s.ctx, "unknown-user")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ApplicantRepoSuite) TestFindByContact() {
	a := s.newApplicant("Test@Example.com", "5551234567")
	s.Require().NoError(s.repo.Create(s.ctx, a))

	byEmail, err := s.repo.FindByContact(s.ctx, "test@example.com", "")
	s.Require().NoError(err)
	s.Equal(a.ApplicantID, byEmail.ApplicantID)

	byPhone, err := s.repo.FindByContact(s.ctx, "other@example.com", "5551234567")
	s.Require().NoError(err)
	s.Equal(a.ApplicantID, byPhone.ApplicantID)

	_, err = s.repo.FindByContact(s.ctx, "", "")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ApplicantRepoSuite) TestRecordContractorRequest() {
	a := s.newApplicant("test@example.com", "5551234567")
	s.Require().NoError(s.repo.Create(s.ctx, a))

	at := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.repo.RecordContractorRequest(s.ctx, a.ApplicantID, at))
	s.Require().NoError(s.repo.RecordContractorRequest(s.ctx, a.ApplicantID, at))

	got, err := s.repo.Get(s.ctx, a.ApplicantID)
	s.Require().NoError(err)
	s.Equal(2, got.ContractorRequests)
	s.Require().NotNil(got.LastContractorRequestAt)
	s.True(at.Equal(*got.LastContractorRequestAt))

	err = s.repo.RecordContractorRequest(s.ctx, uuid.NewString(), at)
	s.ErrorIs(err, domain.ErrNotFound)
}

func TestApplicantRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration suite")
	}
	suite.Run(t, new(ApplicantRepoSuite))
}
