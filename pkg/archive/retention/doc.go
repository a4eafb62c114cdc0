// Package retention prunes archived review reports past their retention
// window, either on demand or on a cron schedule.
package retention
