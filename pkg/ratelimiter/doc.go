// Package ratelimiter implements token bucket rate limiting with memory and
// Redis stores and an HTTP middleware.
//
// A bucket holds up to Capacity tokens and gains RefillRate tokens every
// RefillInterval. A request takes one token; with too few left it is denied
// and nothing is consumed.
//
//	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(10000), ratelimiter.Limits{
//		Capacity:       20,
//		RefillRate:     1,
//		RefillInterval: 3 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(bucket, ips.IP)).Get("/session/transfer", handler)
package ratelimiter
