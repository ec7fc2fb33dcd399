package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
)

const redisScanBatch = 500

// RedisStore implements CatalogStore as JSON documents in redis.
//
// Keys, for prefix p:
//
//	p:doc:<id>          the record as JSON
//	p:mid:<medicineid>  the record's id
//	p:ids               list of ids in insertion order (store default order)
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	log    *slog.Logger
}

// RedisOptions configures the redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// OpenRedisStore connects and pings redis.
func OpenRedisStore(opts RedisOptions, log *slog.Logger) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisStore(rdb, opts.Prefix, log), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *goredis.Client, prefix string, log *slog.Logger) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "medicines"
	}
	return &RedisStore{
		rdb:    rdb,
		prefix: prefix,
		log:    log.With("store", "redis", "prefix", prefix),
	}
}

func (s *RedisStore) docKey(id string) string       { return s.prefix + ":doc:" + id }
func (s *RedisStore) medicineKey(mid string) string { return s.prefix + ":mid:" + mid }
func (s *RedisStore) listKey() string               { return s.prefix + ":ids" }

func (s *RedisStore) Create(ctx context.Context, m *models.Medicine) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return writeErr("create", err)
	}

	// The medicineid key doubles as the uniqueness guard.
	ok, err := s.rdb.SetNX(ctx, s.medicineKey(m.MedicineID), m.ID, 0).Result()
	if err != nil {
		return writeErr("create", err)
	}
	if !ok {
		return writeErr("create", errDuplicate("medicineid", m.MedicineID))
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(m.ID), raw, 0)
		pipe.RPush(ctx, s.listKey(), m.ID)
		return nil
	})
	if err != nil {
		return writeErr("create", err)
	}
	return nil
}

func (s *RedisStore) GetByMedicineID(ctx context.Context, medicineID string) (*models.Medicine, error) {
	id, err := s.rdb.Get(ctx, s.medicineKey(medicineID)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMedicineNotFound
	}
	if err != nil {
		return nil, readErr("get", err)
	}

	raw, err := s.rdb.Get(ctx, s.docKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		// Index outlived its document during a concurrent delete.
		return nil, ErrMedicineNotFound
	}
	if err != nil {
		return nil, readErr("get", err)
	}

	var m models.Medicine
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, readErr("get", err)
	}
	return &m, nil
}

func (s *RedisStore) ListPage(ctx context.Context, page, pageSize int) ([]models.Medicine, error) {
	if err := validatePage(page, pageSize); err != nil {
		return nil, readErr("list", err)
	}

	start := int64(offset(page, pageSize))
	ids, err := s.rdb.LRange(ctx, s.listKey(), start, start+int64(pageSize)-1).Result()
	if err != nil {
		return nil, readErr("list", err)
	}

	out, err := s.loadDocs(ctx, ids)
	if err != nil {
		return nil, readErr("list", err)
	}
	return out, nil
}

// SearchByName walks the whole id list; redis has no secondary text index here.
func (s *RedisStore) SearchByName(ctx context.Context, term string) ([]models.Medicine, error) {
	lower := strings.ToLower(term)
	out := make([]models.Medicine, 0)

	for start := int64(0); ; start += redisScanBatch {
		ids, err := s.rdb.LRange(ctx, s.listKey(), start, start+redisScanBatch-1).Result()
		if err != nil {
			return nil, readErr("search", err)
		}
		if len(ids) == 0 {
			return out, nil
		}

		docs, err := s.loadDocs(ctx, ids)
		if err != nil {
			return nil, readErr("search", err)
		}
		for _, m := range docs {
			if matchesName(m.Name, lower) {
				out = append(out, m)
			}
		}

		if len(ids) < redisScanBatch {
			return out, nil
		}
	}
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	found, err := s.deleteOne(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrMedicineNotFound
	}
	return nil
}

// DeleteAll pops ids from the head of the list and deletes each record
// in its own transaction.
func (s *RedisStore) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	for {
		ids, err := s.rdb.LRange(ctx, s.listKey(), 0, redisScanBatch-1).Result()
		if err != nil {
			return deleted, readErr("delete all scan", err)
		}
		if len(ids) == 0 {
			s.log.Debug("catalog emptied", "deleted", deleted)
			return deleted, nil
		}

		for _, id := range ids {
			found, err := s.deleteOne(ctx, id)
			if err != nil {
				return deleted, err
			}
			if found {
				deleted++
			}
		}
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// deleteOne removes the document, its medicineid index and its list entry.
// It reports whether a document existed.
func (s *RedisStore) deleteOne(ctx context.Context, id string) (bool, error) {
	raw, err := s.rdb.Get(ctx, s.docKey(id)).Bytes()
	found := err == nil
	if err != nil && !errors.Is(err, goredis.Nil) {
		return false, readErr("delete", err)
	}

	var m models.Medicine
	if found {
		if err := json.Unmarshal(raw, &m); err != nil {
			return false, readErr("delete", err)
		}
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(id))
		if m.MedicineID != "" {
			pipe.Del(ctx, s.medicineKey(m.MedicineID))
		}
		pipe.LRem(ctx, s.listKey(), 1, id)
		return nil
	})
	if err != nil {
		return false, writeErr("delete", err)
	}
	return found, nil
}

func (s *RedisStore) loadDocs(ctx context.Context, ids []string) ([]models.Medicine, error) {
	if len(ids) == 0 {
		return []models.Medicine{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]models.Medicine, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var m models.Medicine
		if err := json.Unmarshal([]byte(str), &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
