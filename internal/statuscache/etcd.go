package statuscache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

const etcdStoreName = "etcd"

type etcdClient interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
}

// EtcdStore binds every entry to its own lease, etcd drops the key when the
// lease runs out.
type EtcdStore struct {
	etcd   etcdClient
	prefix string
	now    func() time.Time
}

func NewEtcdStore(client etcdClient, prefix string) *EtcdStore {
	return &EtcdStore{
		etcd:   client,
		prefix: prefix,
		now:    time.Now,
	}
}

func NewEtcdClient(endpoints []string, dialTimeout time.Duration) (*clientv3.Client, error) {
	clnt, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return clnt, nil
}

func (s *EtcdStore) key(key string) string {
	return path.Join(s.prefix, "status", key)
}

func (s *EtcdStore) Get(ctx context.Context, key string) (models.HealthStatusEntry, bool, error) {
	resp, err := s.etcd.Get(ctx, s.key(key))
	if err != nil {
		return models.HealthStatusEntry{}, false, &StoreError{Store: etcdStoreName, Op: "get", Key: key, Err: err}
	}
	if len(resp.Kvs) < 1 {
		return models.HealthStatusEntry{}, false, nil
	}
	entry := models.HealthStatusEntry{}
	err = json.Unmarshal(resp.Kvs[0].Value, &entry)
	if err != nil {
		return models.HealthStatusEntry{}, false, &StoreError{Store: etcdStoreName, Op: "decode", Key: key, Err: err}
	}
	// lease revocation lags a little behind the deadline
	if entry.Expired(s.now()) {
		return models.HealthStatusEntry{}, false, nil
	}
	return entry, true, nil
}

func (s *EtcdStore) Set(ctx context.Context, key string, status models.Backend, ttl time.Duration) error {
	raw, err := json.Marshal(models.HealthStatusEntry{
		Status:    status,
		ExpiresAt: s.now().Add(ttl),
	})
	if err != nil {
		return &StoreError{Store: etcdStoreName, Op: "encode", Key: key, Err: err}
	}
	lease, err := s.etcd.Grant(ctx, leaseSeconds(ttl))
	if err != nil {
		return &StoreError{Store: etcdStoreName, Op: "grant lease for", Key: key, Err: err}
	}
	_, err = s.etcd.Put(ctx, s.key(key), string(raw), clientv3.WithLease(lease.ID))
	if err != nil {
		return &StoreError{Store: etcdStoreName, Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *EtcdStore) Delete(ctx context.Context, key string) error {
	_, err := s.etcd.Delete(ctx, s.key(key))
	if err != nil {
		return &StoreError{Store: etcdStoreName, Op: "delete", Key: key, Err: err}
	}
	return nil
}

func leaseSeconds(ttl time.Duration) int64 {
	secs := int64(math.Ceil(ttl.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
