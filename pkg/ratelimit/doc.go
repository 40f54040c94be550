// Package ratelimit paces requests against the listing host.
//
// Two limiters are provided:
//
// Interval:
//   - A fixed blocking pause taken after every processed item block
//   - Defaults to 2s (rate_limit.item_delay)
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Caps listing page requests (rate_limit.requests_per_minute)
//
// Both honor context cancellation and take a SleepFunc so tests never wait.
//
// Usage:
//
//	pause := ratelimit.NewInterval(2 * time.Second)
//	if err := pause.Pause(ctx); err != nil {
//	    return err // cancelled
//	}
//
//	pages := ratelimit.PerMinute(30)
//	if err := pages.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
