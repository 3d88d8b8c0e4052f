package kvstore

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, nil)

	mock.ExpectGet(redisKeyPrefix + "site:kyoto").RedisNil()

	_, err := s.Get(context.Background(), "site:kyoto")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SetPublishesKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, nil)

	mock.ExpectSet(redisKeyPrefix+"site:kyoto", []byte(`{"name":"Kyoto"}`), 0).SetVal("OK")
	mock.ExpectPublish(redisChannel, "site:kyoto").SetVal(1)

	require.NoError(t, s.Set(context.Background(), "site:kyoto", []byte(`{"name":"Kyoto"}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_DispatchReloadsValue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, nil)

	var got []byte
	s.Subscribe("site:kyoto", func(v []byte) { got = v })

	mock.ExpectGet(redisKeyPrefix + "site:kyoto").SetVal("fresh")
	s.dispatch(context.Background(), "site:kyoto")

	assert.Equal(t, []byte("fresh"), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
