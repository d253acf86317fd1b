package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ns = "employees:list:"

func TestRememberHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, ns, time.Minute, zap.NewNop())

	mock.ExpectGet(ns + "gen").SetVal("4")
	mock.ExpectGet(ns + "abc:g4").SetVal(`{"totalCount":1}`)

	raw, err := c.Remember(context.Background(), ns+"abc", func(context.Context) ([]byte, error) {
		t.Fatal("loader must not run on a hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, `{"totalCount":1}`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRememberMissStoresAndIndexes(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, ns, time.Minute, zap.NewNop())
	payload := []byte(`{"employees":[],"totalCount":0}`)

	mock.ExpectGet(ns + "gen").RedisNil()
	mock.ExpectGet(ns + "abc:g0").RedisNil()
	mock.ExpectSet(ns+"abc:g0", payload, time.Minute).SetVal("OK")
	mock.ExpectSAdd(ns+"keys", ns+"abc:g0").SetVal(1)

	calls := 0
	raw, err := c.Remember(context.Background(), ns+"abc", func(context.Context) ([]byte, error) {
		calls++
		return payload, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, payload, raw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRememberLoaderError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, ns, time.Minute, zap.NewNop())

	mock.ExpectGet(ns + "gen").RedisNil()
	mock.ExpectGet(ns + "abc:g0").RedisNil()
	boom := errors.New("db down")

	_, err := c.Remember(context.Background(), ns+"abc", func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRememberSurvivesRedisOutage(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, ns, time.Minute, zap.NewNop())
	payload := []byte(`{}`)

	mock.ExpectGet(ns + "gen").SetErr(errors.New("connection refused"))

	raw, err := c.Remember(context.Background(), ns+"abc", func(context.Context) ([]byte, error) {
		return payload, nil
	})
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRememberWriteFailureStillReturnsValue(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, ns, time.Minute, zap.NewNop())
	payload := []byte(`{}`)

	mock.ExpectGet(ns + "gen").SetVal("1")
	mock.ExpectGet(ns + "abc:g1").SetErr(errors.New("connection refused"))
	mock.ExpectSet(ns+"abc:g1", payload, time.Minute).SetErr(errors.New("connection refused"))

	raw, err := c.Remember(context.Background(), ns+"abc", func(context.Context) ([]byte, error) {
		return payload, nil
	})
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateDropsIndexedKeys(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, ns, time.Minute, zap.NewNop())

	mock.ExpectIncr(ns + "gen").SetVal(2)
	mock.ExpectSMembers(ns + "keys").SetVal([]string{ns + "a:g1", ns + "b:g1"})
	mock.ExpectDel(ns+"a:g1", ns+"b:g1", ns+"keys").SetVal(3)

	require.NoError(t, c.Invalidate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFinishingAfterInvalidateIsNotServed(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, ns, time.Minute, zap.NewNop())
	ctx := context.Background()
	stale := []byte(`{"totalCount":1}`)
	fresh := []byte(`{"totalCount":2}`)

	// The first load races with a write that invalidates mid-flight.
	mock.ExpectGet(ns + "gen").RedisNil()
	mock.ExpectGet(ns + "abc:g0").RedisNil()
	mock.ExpectIncr(ns + "gen").SetVal(1)
	mock.ExpectSMembers(ns + "keys").SetVal(nil)
	mock.ExpectDel(ns + "keys").SetVal(0)
	mock.ExpectSet(ns+"abc:g0", stale, time.Minute).SetVal("OK")
	mock.ExpectSAdd(ns+"keys", ns+"abc:g0").SetVal(1)

	raw, err := c.Remember(ctx, ns+"abc", func(ctx context.Context) ([]byte, error) {
		require.NoError(t, c.Invalidate(ctx))
		return stale, nil
	})
	require.NoError(t, err)
	assert.Equal(t, stale, raw)

	// The next read looks in the new generation and reloads.
	mock.ExpectGet(ns + "gen").SetVal("1")
	mock.ExpectGet(ns + "abc:g1").RedisNil()
	mock.ExpectSet(ns+"abc:g1", fresh, time.Minute).SetVal("OK")
	mock.ExpectSAdd(ns+"keys", ns+"abc:g1").SetVal(1)

	raw, err = c.Remember(ctx, ns+"abc", func(context.Context) ([]byte, error) {
		return fresh, nil
	})
	require.NoError(t, err)
	assert.Equal(t, fresh, raw)
	assert.NoError(t, mock.ExpectationsWereMet())
}
