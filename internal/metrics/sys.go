package metrics

import (
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
)

// SysHealth represents real-time process and storage figures.
type SysHealth struct {
	AllocMB    uint64 `json:"alloc_mb"`
	SysMB      uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
	DBSize     string `json:"db_size"`
}

// GetSysHealth collects memory figures and the size of the SQLite database,
// counting its WAL and shared-memory files.
func GetSysHealth(dbPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		DBSize:     humanize.Bytes(databaseSize(dbPath)),
	}
}

func databaseSize(dbPath string) uint64 {
	var size uint64
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			size += uint64(info.Size())
		}
	}
	return size
}
