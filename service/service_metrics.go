package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promCounterForRestore = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_restore_ops_total",
		Help: "The total number of restore calls",
	})

	promCounterForRestoreHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_restore_hits_total",
		Help: "The total number of restore calls that found an entry",
	})

	promCounterForRestoreMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_restore_misses_total",
		Help: "The total number of restore calls that found no entry",
	})

	promCounterForRestoreDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_restore_degraded_total",
		Help: "The total number of restore calls degraded by transfer or extraction failures",
	})

	promCounterForRestoredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_restore_bytes_total",
		Help: "The total number of archive bytes restored",
	})

	promCounterForSave = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_save_ops_total",
		Help: "The total number of save calls",
	})

	promCounterForSaveSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_save_saved_total",
		Help: "The total number of save calls that stored an archive",
	})

	promCounterForSaveSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_save_skipped_total",
		Help: "The total number of save calls skipped because caching is unavailable",
	})

	promCounterForSaveDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_save_degraded_total",
		Help: "The total number of save calls degraded by packaging or store failures",
	})

	promCounterForSavedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildcache_save_bytes_total",
		Help: "The total number of archive bytes saved",
	})
)
