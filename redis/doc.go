// Package redis provides a go-redis client wrapper with authkit logging,
// connection pooling and health checks, and the Redis-backed store of
// revoked refresh tokens used by the authenticator.
//
// # Revocations
//
// The authenticator rotates refresh tokens: every successful refresh
// revokes the presented token until its natural expiry. With Redis
// enabled the revocation list is shared between authenticator replicas
// and expires on its own:
//
//	client, err := redis.New(cfg, log)
//	store := redis.NewRevocationStore(client)
//	_ = store.Revoke(ctx, tokenID, subject, time.Until(exp))
//	revoked, err := store.IsRevoked(ctx, tokenID)
//
// Keys are "<key_prefix>:<id>" and hold a small JSON record.
package redis
