package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"voxeledit.ai/internal/persistence/indexdb"
	"voxeledit.ai/internal/sim/editor"
	"voxeledit.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	editor.AuditLogger
	RecordTuning(t tuning.Tuning) error
	Stats() indexdb.Stats
	Close() error
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VE_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "editor.sqlite"))
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported VE_INDEX_BACKEND: %s", backend)
	}
}

// multiAuditLogger fans an entry out to every configured sink.
type multiAuditLogger []editor.AuditLogger

func (m multiAuditLogger) WriteAudit(entry editor.AuditEntry) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteAudit(entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func registerIndexMetrics(reg prometheus.Registerer, idx runtimeIndex) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "voxeledit",
			Name:      "index_queue_depth",
			Help:      "Audit entries waiting for the sqlite writer.",
		}, func() float64 { return float64(idx.Stats().QueueDepth) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "voxeledit",
			Name:      "index_written_total",
			Help:      "Audit entries committed to the index.",
		}, func() float64 { return float64(idx.Stats().WrittenTotal) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "voxeledit",
			Name:      "index_dropped_total",
			Help:      "Audit entries dropped because the index queue was full.",
		}, func() float64 { return float64(idx.Stats().DropTotal) }),
	)
}
