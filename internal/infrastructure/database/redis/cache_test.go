package redis

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientFromUniversal(db, nil, logging.NewNopLogger())
	s.cache = NewRedisCache(client, logging.NewNopLogger(), WithPrefix("test:"), WithoutJitter())
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type parsed struct {
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

func (s *CacheTestSuite) TestGet_CacheHit() {
	val := parsed{Text: "He runs.", Tokens: 3}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:k1").SetVal(string(raw))

	var dest parsed
	s.Require().NoError(s.cache.Get(context.Background(), "k1", &dest))
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_CacheMiss() {
	s.mock.ExpectGet("test:k1").RedisNil()

	var dest parsed
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.Equal(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGet_NullMarkerIsMiss() {
	s.mock.ExpectGet("test:k1").SetVal(nullMarker)

	var dest parsed
	s.Equal(ErrCacheMiss, s.cache.Get(context.Background(), "k1", &dest))
}

func (s *CacheTestSuite) TestGet_Undecodable() {
	s.mock.ExpectGet("test:k1").SetVal("{not json")

	var dest parsed
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_ExactTTL() {
	raw, _ := json.Marshal(parsed{Text: "x"})
	s.mock.ExpectSet("test:k1", raw, time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k1", parsed{Text: "x"}, time.Minute))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "k1", "k2"))
	s.NoError(s.cache.Delete(context.Background()))
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func newMiniCache(t *testing.T) (*miniredis.Miniredis, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&Config{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCache(client, nil, WithPrefix("p:"))
}

func TestGetOrSet_LoadsOnceAndCaches(t *testing.T) {
	mr, cache := newMiniCache(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return parsed{Text: "He runs.", Tokens: 3}, nil
	}

	var wg sync.WaitGroup
	results := make([]parsed, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, cache.GetOrSet(ctx, "s1", &results[i], time.Hour, loader))
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
	for _, r := range results {
		assert.Equal(t, "He runs.", r.Text)
	}
	assert.True(t, mr.Exists("p:s1"))

	var again parsed
	require.NoError(t, cache.GetOrSet(ctx, "s1", &again, time.Hour, func(context.Context) (interface{}, error) {
		t.Fatal("loader must not run on a hit")
		return nil, nil
	}))
	assert.Equal(t, 3, again.Tokens)
}

func TestGetOrSet_NilCachesNullMarker(t *testing.T) {
	mr, cache := newMiniCache(t)

	var dest parsed
	err := cache.GetOrSet(context.Background(), "gone", &dest, time.Hour, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	assert.Equal(t, ErrCacheMiss, err)

	v, _ := mr.Get("p:gone")
	assert.Equal(t, nullMarker, v)
	assert.Equal(t, 30*time.Second, mr.TTL("p:gone"))
}

func TestGetOrSet_LoaderError(t *testing.T) {
	_, cache := newMiniCache(t)
	boom := pkgerrors.New(pkgerrors.ErrCodeParserUnavailable, "down")

	var dest parsed
	err := cache.GetOrSet(context.Background(), "k", &dest, 0, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeParserUnavailable))
}

func TestDeleteByPrefix(t *testing.T) {
	mr, cache := newMiniCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "parse:a", parsed{}, 0))
	require.NoError(t, cache.Set(ctx, "parse:b", parsed{}, 0))
	require.NoError(t, cache.Set(ctx, "other", parsed{}, 0))

	n, err := cache.DeleteByPrefix(ctx, "parse:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("p:other"))
}

//Personal.AI order the ending
