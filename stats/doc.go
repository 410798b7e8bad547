// Package stats implements a high-throughput, in-memory statistics engine.
//
// Producers record timestamped samples (durations, counter increments) on
// logical channels. Each channel owns a log-bucketed histogram that absorbs
// concurrent writes with per-bucket atomic counters. A rotation driver
// periodically latches each channel's active histogram into an immutable
// snapshot, pushes it onto the channel's bounded heatmap ring, and installs a
// fresh histogram for further writes. Consumers declare Interests (percentile,
// rate, minimum, maximum, mean, count) and read Meter values computed from the
// most recent latched snapshot, so queries never contend with the write path.
package stats
