package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/authflow/internal/model"
)

// maxTxRetries bounds optimistic-lock retries when another writer touches
// the same account between WATCH and EXEC.
const maxTxRetries = 16

// minIndexTTL keeps a token index alive at least this long.  Expiry is
// always re-checked against the account itself, so a stale index is harmless.
const minIndexTTL = time.Minute

// createScript inserts the account document and its email index only when
// the email is still free.  Returns 1 on insert and 0 on a taken email.
var createScript = redis.NewScript(`
    local email_key = KEYS[1]
    local account_key = KEYS[2]
    local token_key = KEYS[3]
    local id = ARGV[1]
    local doc = ARGV[2]
    local token_ttl_ms = tonumber(ARGV[3])

    if redis.call('EXISTS', email_key) == 1 then
        return 0
    end
    redis.call('SET', email_key, id)
    redis.call('SET', account_key, doc)
    if token_key ~= '' and token_ttl_ms > 0 then
        redis.call('SET', token_key, id)
        redis.call('PEXPIRE', token_key, token_ttl_ms)
    end
    return 1
`)

// RedisAccountStore keeps each account as a JSON document with two index
// keys: email -> id and pending email token -> id.
type RedisAccountStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisAccountStore(rdb *redis.Client, prefix string) *RedisAccountStore {
	if prefix == "" {
		prefix = "authflow"
	}
	return &RedisAccountStore{rdb: rdb, prefix: prefix}
}

func (r *RedisAccountStore) accountKey(id string) string { return r.prefix + ":account:" + id }
func (r *RedisAccountStore) emailKey(email string) string { return r.prefix + ":email:" + email }
func (r *RedisAccountStore) tokenKey(tok string) string { return r.prefix + ":emailtoken:" + tok }

func (r *RedisAccountStore) Create(ctx context.Context, a *model.Account) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	tokenKey, ttl := "", int64(0)
	if a.EmailVerificationToken != nil && a.EmailVerificationExpires != nil {
		tokenKey = r.tokenKey(*a.EmailVerificationToken)
		ttl = indexTTL(*a.EmailVerificationExpires, a.UpdatedAt).Milliseconds()
	}
	keys := []string{r.emailKey(a.Email), r.accountKey(a.ID), tokenKey}
	n, err := createScript.Run(ctx, r.rdb, keys, a.ID, string(doc), ttl).Int()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if n == 0 {
		return ErrEmailExists
	}
	return nil
}

func (r *RedisAccountStore) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.load(ctx, r.rdb, id)
}

func (r *RedisAccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	id, err := r.rdb.Get(ctx, r.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get email index: %w", err)
	}
	return r.load(ctx, r.rdb, id)
}

func (r *RedisAccountStore) FindIDByEmailToken(ctx context.Context, token string, now time.Time) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}
	id, err := r.rdb.Get(ctx, r.tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get token index: %w", err)
	}
	a, err := r.load(ctx, r.rdb, id)
	if err != nil {
		return "", err
	}
	if !a.EmailTokenMatches(token, now) {
		return "", ErrNotFound
	}
	return id, nil
}

// Update runs fn under WATCH on the account key and commits with MULTI/EXEC.
// A concurrent writer aborts the EXEC and the whole read-modify-write is
// retried against the fresh state.
func (r *RedisAccountStore) Update(ctx context.Context, id string, fn UpdateFunc) (*model.Account, error) {
	key := r.accountKey(id)
	var out *model.Account
	txf := func(tx *redis.Tx) error {
		cur, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		next := cur.Clone()
		if err := fn(next); err != nil {
			return err
		}
		next.ID, next.Email = cur.ID, cur.Email
		doc, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal account: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, doc, 0)
			oldTok, newTok := deref(cur.EmailVerificationToken), deref(next.EmailVerificationToken)
			if oldTok != "" && oldTok != newTok {
				pipe.Del(ctx, r.tokenKey(oldTok))
			}
			if newTok != "" && newTok != oldTok && next.EmailVerificationExpires != nil {
				pipe.Set(ctx, r.tokenKey(newTok), id, indexTTL(*next.EmailVerificationExpires, next.UpdatedAt))
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = next
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update account %s: too much contention", id)
}

func (r *RedisAccountStore) load(ctx context.Context, c getter, id string) (*model.Account, error) {
	b, err := c.Get(ctx, r.accountKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	var a model.Account
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	return &a, nil
}

// getter is the part of *redis.Client and *redis.Tx that load needs.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// indexTTL measures the remaining token lifetime from the account's own
// write time, which the caller stamps from its clock.
func indexTTL(expires, written time.Time) time.Duration {
	if written.IsZero() {
		written = time.Now()
	}
	if d := expires.Sub(written); d > minIndexTTL {
		return d
	}
	return minIndexTTL
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
