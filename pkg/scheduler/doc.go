// Package scheduler runs periodic cache maintenance on cron schedules.
//
// Two jobs are supported: a report that logs the cache's occupancy and hit
// counters, and an optional flush that empties the cache. Schedules use the
// standard five-field cron syntax:
//
//	"*/5 * * * *"  - every five minutes
//	"0 3 * * *"    - daily at 3 AM
//	"@hourly"      - at the start of every hour
//
// An empty schedule disables its job.
package scheduler
