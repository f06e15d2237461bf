// Package httputil provides HTTP utilities for the producer transport.
//
// # Retry
//
// [Retry] wraps HTTP operations with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//
// It uses exponential backoff, doubling the delay after each failed attempt:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    // ... inspect resp ...
//	    return nil
//	})
//
// Only errors wrapped in [RetryableError] trigger another attempt; anything
// else is treated as permanent and returned immediately.
//
// # Configuration
//
// Default settings via [RetryWithBackoff] are suitable for most use cases:
//
//   - Max retries: 3
//   - Base backoff: 1 second
package httputil
