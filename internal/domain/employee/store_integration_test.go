package employee

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cryptoutil "hrrecords/internal/platform/crypto"
	"hrrecords/internal/platform/db"
)

func openTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool, db.Migrations(""), zap.NewNop()))
	_, err = pool.Exec(ctx, "TRUNCATE employees RESTART IDENTITY")
	require.NoError(t, err)

	crypto, err := cryptoutil.New("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	return NewStore(pool, crypto), pool
}

func TestStoreRoundTrip(t *testing.T) {
	store, pool := openTestStore(t)
	ctx := context.Background()

	form, err := ValidateForm(FormData{
		Name:             "Asha Rao",
		PhoneNumbers:     []string{"111", "222"},
		EmploymentStatus: StatusCurrent,
		ESSID:            strPtr("ES-1"),
		UAN:              strPtr("100200300400"),
		CurrentPost:      strPtr("Head Office"),
	})
	require.NoError(t, err)

	created, err := store.Create(ctx, form.ToEmployee())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "111, 222", StringValue(created.PhoneNumbers))
	assert.Equal(t, "100200300400", StringValue(created.UAN))
	assert.False(t, created.CreatedAt.IsZero())

	var plainUAN *string
	require.NoError(t, pool.QueryRow(ctx, "SELECT uan FROM employees WHERE id = $1", created.ID).Scan(&plainUAN))
	assert.Nil(t, plainUAN, "uan must only be stored encrypted")

	_, err = store.Create(ctx, form.ToEmployee())
	assert.ErrorIs(t, err, ErrDuplicateESSID)

	other := form
	other.Name = "Ravi"
	other.ESSID = nil
	other.CurrentPost = strPtr("Warehouse")
	other.EmploymentStatus = StatusPast
	_, err = store.Create(ctx, other.ToEmployee())
	require.NoError(t, err)

	list, err := store.List(ctx, FilterOptions{Post: "head"}, Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	total, err := store.Count(ctx, FilterOptions{EmploymentStatus: "past"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	byStatus, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), byStatus[StatusApplied])
	assert.Equal(t, int64(1), byStatus[StatusCurrent])

	updatedForm := form
	updatedForm.Name = "Asha R."
	updated, err := store.Update(ctx, created.ID, updatedForm.ToEmployee())
	require.NoError(t, err)
	assert.Equal(t, "Asha R.", updated.Name)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
}
