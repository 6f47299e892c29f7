// Package redis connects to Redis with retries and relays completed command
// results to a pub/sub channel.
//
// Connect validates the URL (redis:// or rediss://), pings with linear
// backoff and returns a ready *redis.Client. Healthcheck wraps Ping as a
// readiness probe.
//
// Configuration comes from the environment:
//
//	REDIS_URL              redis://localhost:6379/0
//	REDIS_RETRY_ATTEMPTS   3
//	REDIS_RETRY_INTERVAL   5s
//	REDIS_CONNECT_TIMEOUT  30s
//	REDIS_RESULTS_CHANNEL  pluginbridge:results
//	REDIS_PUBLISH_BUFFER   256
//
// Relaying results:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	pub := redis.NewResultPublisherFromConfig(client, cfg, redis.WithPublisherLogger(log))
//	unsubscribe := correlator.OnResult(pub.Handle)
//	defer unsubscribe()
//	g.Go(pub.Run(ctx))
//
// Each message is the JSON encoding of correlation.Result.
package redis
