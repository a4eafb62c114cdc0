// Package review composes the full part review pipeline: process
// recommendation, execution planning, rule evaluation and cost
// estimation, producing a single aggregated report per request.
package review
