//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"turia/internal/clients/models"
	"turia/internal/clients/store"
	"turia/internal/platform/database"
	"turia/pkg/platform/sentinel"
	"turia/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(database.Migrate(s.pg.URL, database.Up))
	s.Require().NoError(database.Migrate(s.pg.URL, database.Up), "re-running is a no-op")
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "clients"))
}

func (s *PostgresStoreSuite) client(name string, createdAt time.Time) models.Client {
	return models.Client{
		ID:                  uuid.New(),
		BusinessEntity:      models.EntityPrivateLimited,
		BusinessName:        name,
		ContactName:         "Ravi Kumar",
		Email:               "ravi@example.com",
		Currency:            models.DefaultCurrency,
		CreatedOn:           createdAt,
		State:               "Maharashtra",
		GSTRegistrationType: models.DefaultGSTRegistrationType,
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	regDate := time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC)

	c := s.client("Acme Traders", now)
	c.GSTIN = "27AAACT4481M1ZV"
	c.GSTRegistrationDate = &regDate
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.BusinessName, found.BusinessName)
	s.Equal(c.BusinessEntity, found.BusinessEntity)
	s.Equal(c.GSTIN, found.GSTIN)
	s.Require().NotNil(found.GSTRegistrationDate)
	s.True(regDate.Equal(*found.GSTRegistrationDate))
	s.True(c.CreatedAt.Equal(found.CreatedAt))

	found.Verified = true
	found.Address = "Andheri East, Mumbai"
	s.Require().NoError(s.store.Update(ctx, found))

	deleted, err := s.store.Delete(ctx, c.ID)
	s.Require().NoError(err)
	s.True(deleted.Verified)
	s.Equal("Andheri East, Mumbai", deleted.Address)

	_, err = s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(ctx, c), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestClientCodeConflict() {
	ctx := context.Background()
	a := s.client("Alpha", time.Now())
	a.ClientCode = "C-42"
	b := s.client("Beta", time.Now())
	b.ClientCode = "C-42"

	s.Require().NoError(s.store.Create(ctx, a))
	s.ErrorIs(s.store.Create(ctx, b), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestListSearchAndPaging() {
	ctx := context.Background()
	start := time.Now().UTC()
	for i, name := range []string{"Zenith 100%", "Zenith_Labs", "Orbit", "Nova"} {
		s.Require().NoError(s.store.Create(ctx, s.client(name, start.Add(time.Duration(i)*time.Second))))
	}

	clients, total, err := s.store.List(ctx, models.ListQuery{Page: 1, Limit: 2})
	s.Require().NoError(err)
	s.Equal(4, total)
	s.Require().Len(clients, 2)
	s.Equal("Nova", clients[0].BusinessName)

	clients, total, err = s.store.List(ctx, models.ListQuery{Search: "zenith", Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(clients, 2)

	_, total, err = s.store.List(ctx, models.ListQuery{Search: "%", Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total, "wildcards in the search term are literal")
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	ctx := context.Background()
	c := s.client("Rollback Co", time.Now())
	boom := errors.New("boom")

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Create(ctx, c))
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
