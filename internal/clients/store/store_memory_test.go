package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turia/internal/clients/models"
	"turia/pkg/platform/sentinel"
)

var base = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func newClient(name string, createdAt time.Time) models.Client {
	return models.Client{
		ID:             uuid.New(),
		BusinessEntity: models.EntityLLP,
		BusinessName:   name,
		ContactName:    "Asha Rao",
		State:          "Karnataka",
		Currency:       models.DefaultCurrency,
		CreatedOn:      createdAt,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestInMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	c := newClient("Acme Traders", base)

	require.NoError(t, s.Create(ctx, c))
	assert.ErrorIs(t, s.Create(ctx, c), sentinel.ErrConflict)

	found, err := s.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, found)

	c.BusinessName = "Acme Traders LLP"
	require.NoError(t, s.Update(ctx, c))
	found, _ = s.FindByID(ctx, c.ID)
	assert.Equal(t, "Acme Traders LLP", found.BusinessName)

	deleted, err := s.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, deleted.ID)

	_, err = s.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = s.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, c), sentinel.ErrNotFound)
}

func TestInMemoryStore_ClientCodeUnique(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	a := newClient("Alpha", base)
	a.ClientCode = "C-001"
	b := newClient("Beta", base)
	b.ClientCode = "C-001"
	empty1 := newClient("Gamma", base)
	empty2 := newClient("Delta", base)

	require.NoError(t, s.Create(ctx, a))
	assert.ErrorIs(t, s.Create(ctx, b), sentinel.ErrConflict)
	require.NoError(t, s.Create(ctx, empty1))
	require.NoError(t, s.Create(ctx, empty2), "empty codes never collide")

	require.NoError(t, s.Update(ctx, a), "a client keeps its own code")
	empty1.ClientCode = "C-001"
	assert.ErrorIs(t, s.Update(ctx, empty1), sentinel.ErrConflict)
}

func TestInMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	for i := range 15 {
		c := newClient(fmt.Sprintf("Client %02d", i), base.Add(time.Duration(i)*time.Minute))
		if i == 7 {
			c.GSTIN = "29AAICT1443M1ZX"
		}
		require.NoError(t, s.Create(ctx, c))
	}

	t.Run("newest first with pagination", func(t *testing.T) {
		page, total, err := s.List(ctx, models.ListQuery{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 15, total)
		require.Len(t, page, 10)
		assert.Equal(t, "Client 14", page[0].BusinessName)

		page, _, err = s.List(ctx, models.ListQuery{Page: 2, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, page, 5)
		assert.Equal(t, "Client 00", page[4].BusinessName)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page, total, err := s.List(ctx, models.ListQuery{Page: 9, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 15, total)
		assert.Empty(t, page)
	})

	t.Run("search is case-insensitive across name and gstin", func(t *testing.T) {
		page, total, err := s.List(ctx, models.ListQuery{Search: "client 1", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, page, 5)

		page, total, err = s.List(ctx, models.ListQuery{Search: "aaict", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "Client 07", page[0].BusinessName)

		_, total, err = s.List(ctx, models.ListQuery{Search: "asha", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 15, total)
	})
}

func TestInMemoryStore_RunInTx(t *testing.T) {
	s := NewInMemory()
	called := false
	err := s.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
