// Package redis connects to the Redis server backing the list-based RPC
// transport and exposes a ping readiness probe.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// The returned *redis.Client satisfies rpc.ListClient.
package redis
