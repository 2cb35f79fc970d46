package commons

const (
	// KeyLengthMax is the maximum length of a cache key
	KeyLengthMax int = 512
	// RestoreKeysMax is the maximum number of keys scanned in one restore,
	// the primary key included
	RestoreKeysMax int = 10

	ArchiveSizeMaxDefault     int64  = 1024 * 1024 * 1024 * 10 // 10GiB
	TempRootPathPrefixDefault string = "/tmp/buildcache_temp"
	LogFilePathPrefixDefault  string = "/tmp/buildcache"

	ArchiveMethodDefault string = "targz"

	ProfileServicePortDefault     int = 12021
	PrometheusExporterPortDefault int = 12022
)
