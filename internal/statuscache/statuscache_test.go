package statuscache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

const key = "database_status"

type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{cur: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(clock.Now)

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, key, models.Backup, 300*time.Second))
	clock.Advance(299 * time.Second)
	entry, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.Backup, entry.Status)

	clock.Advance(time.Second)
	_, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	require.NoError(t, s.Set(ctx, key, models.Backup, time.Minute))
	require.NoError(t, s.Set(ctx, key, models.Primary, time.Minute))
	entry, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.Primary, entry.Status)

	require.NoError(t, s.Delete(ctx, key))
	_, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	s := NewRedisStore(client)

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, key, models.Backup, 300*time.Second))
	assert.Equal(t, 300*time.Second, srv.TTL(key))

	entry, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.Backup, entry.Status)

	srv.FastForward(301 * time.Second)
	_, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, key, models.Primary, time.Minute))
	require.NoError(t, s.Delete(ctx, key))
	assert.False(t, srv.Exists(key))
}

func TestRedisStoreErrors(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	defer client.Close()
	s := NewRedisStore(client)

	require.NoError(t, srv.Set(key, "not json"))
	_, _, err := s.Get(ctx, key)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "decode", storeErr.Op)

	srv.Close()
	_, _, err = s.Get(ctx, key)
	require.ErrorAs(t, err, &storeErr)
	err = s.Set(ctx, key, models.Backup, time.Minute)
	require.ErrorAs(t, err, &storeErr)
}

func TestNewRedisStoreFromURL(t *testing.T) {
	_, _, err := NewRedisStoreFromURL("not-a-url")
	require.Error(t, err)

	srv := miniredis.RunT(t)
	s, client, err := NewRedisStoreFromURL("redis://" + srv.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, s.Set(context.Background(), key, models.Primary, time.Minute))
	assert.True(t, srv.Exists(key))
}

type fakeEtcd struct {
	mu      sync.Mutex
	kvs     map[string]string
	leases  map[string]clientv3.LeaseID
	ttls    map[clientv3.LeaseID]int64
	nextID  clientv3.LeaseID
	failAll error
}

func newFakeEtcd() *fakeEtcd {
	return &fakeEtcd{
		kvs:    map[string]string{},
		leases: map[string]clientv3.LeaseID{},
		ttls:   map[clientv3.LeaseID]int64{},
	}
}

func (f *fakeEtcd) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	resp := &clientv3.GetResponse{}
	if val, ok := f.kvs[key]; ok {
		resp.Kvs = []*mvccpb.KeyValue{{Key: []byte(key), Value: []byte(val), Lease: int64(f.leases[key])}}
	}
	return resp, nil
}

func (f *fakeEtcd) Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	f.kvs[key] = val
	if len(opts) > 0 {
		f.leases[key] = f.nextID
	}
	return &clientv3.PutResponse{}, nil
}

func (f *fakeEtcd) Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	delete(f.kvs, key)
	delete(f.leases, key)
	return &clientv3.DeleteResponse{}, nil
}

func (f *fakeEtcd) Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	f.nextID++
	f.ttls[f.nextID] = ttl
	return &clientv3.LeaseGrantResponse{ID: f.nextID, TTL: ttl}, nil
}

func TestEtcdStore(t *testing.T) {
	ctx := context.Background()
	etcd := newFakeEtcd()
	clock := &fakeClock{cur: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewEtcdStore(etcd, "/hrms")
	s.now = clock.Now

	require.NoError(t, s.Set(ctx, key, models.Backup, 300*time.Second))
	lease, ok := etcd.leases["/hrms/status/database_status"]
	require.True(t, ok)
	assert.NotZero(t, lease)
	assert.Equal(t, int64(300), etcd.ttls[lease])

	entry, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.Backup, entry.Status)

	clock.Advance(300 * time.Second)
	_, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Delete(ctx, key))
	assert.Empty(t, etcd.kvs)
}

func TestEtcdStoreErrors(t *testing.T) {
	etcd := newFakeEtcd()
	etcd.failAll = errors.New("etcdserver: request timed out")
	s := NewEtcdStore(etcd, "/hrms")

	var storeErr *StoreError
	_, _, err := s.Get(context.Background(), key)
	require.ErrorAs(t, err, &storeErr)
	err = s.Set(context.Background(), key, models.Primary, time.Second)
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "grant lease for", storeErr.Op)
}

func TestLeaseSeconds(t *testing.T) {
	assert.Equal(t, int64(1), leaseSeconds(0))
	assert.Equal(t, int64(1), leaseSeconds(200*time.Millisecond))
	assert.Equal(t, int64(2), leaseSeconds(1500*time.Millisecond))
	assert.Equal(t, int64(300), leaseSeconds(300*time.Second))
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (models.HealthStatusEntry, bool, error) {
	return models.HealthStatusEntry{}, false, &StoreError{Store: "broken", Op: "get", Err: errors.New("down")}
}

func (brokenStore) Set(context.Context, string, models.Backend, time.Duration) error {
	return &StoreError{Store: "broken", Op: "set", Err: errors.New("down")}
}

func (brokenStore) Delete(context.Context, string) error {
	return &StoreError{Store: "broken", Op: "delete", Err: errors.New("down")}
}

func TestResilientFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	s := NewResilient(brokenStore{}, nil)

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, key, models.Backup, time.Minute))
	entry, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.Backup, entry.Status)

	require.NoError(t, s.Delete(ctx, key))
	_, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResilientPrefersRemote(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore(nil)
	s := NewResilient(remote, nil)

	require.NoError(t, remote.Set(ctx, key, models.Primary, time.Minute))
	entry, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.Primary, entry.Status)
}
