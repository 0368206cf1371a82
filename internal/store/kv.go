package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrAbsent signale qu'aucune valeur n'existe sous la clé demandée.
var ErrAbsent = errors.New("clé absente")

// KV est la façade de persistance clé-valeur du magasin panier/commandes.
// Contrat : Get renvoie ErrAbsent si la clé n'existe pas ; toute autre erreur
// est traitée comme une absence par le magasin (jamais fatale).
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
}

// RedisKV implémente KV au-dessus de Redis.
type RedisKV struct {
	Client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{Client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrAbsent
	}
	return val, err
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	// Pas de TTL : le panier et l'historique survivent aux redémarrages
	return r.Client.Set(ctx, key, value, 0).Err()
}

func (r *RedisKV) Del(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}
