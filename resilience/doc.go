// Package resilience retries operations against backends that may not be
// reachable yet, such as an object store opened while the network comes up.
//
//	s, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (storage.Storage, error) {
//	    return s3.NewStorage(ctx, cfg)
//	})
package resilience
