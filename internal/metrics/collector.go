package metrics

import (
	"context"
	"os"
	"time"

	"image-index/internal/indexer"
	"image-index/internal/logging"
)

// StatusProvider reports the state of the index table. *indexer.Indexer
// satisfies it.
type StatusProvider interface {
	Status(ctx context.Context) (indexer.Status, error)
}

// Collector periodically refreshes gauges that describe the index at rest:
// table rows and database file sizes.
type Collector struct {
	provider StatusProvider
	dbPath   string
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty when the
// store is not file backed.
func NewCollector(provider StatusProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		dbPath:   dbPath,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop and waits for it to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.done
}

func (c *Collector) collectLoop() {
	defer close(c.done)

	// Collect immediately on start
	c.Collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Collect()
		case <-c.stopChan:
			return
		}
	}
}

// Collect refreshes the gauges once.
func (c *Collector) Collect() {
	c.collectDBSize()

	if c.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	st, err := c.provider.Status(ctx)
	if err != nil {
		logging.Debug("Metrics collection failed: %v", err)
		return
	}
	if !st.Exists || st.SchemaError != "" {
		TableRows.WithLabelValues(st.Table).Set(0)
		return
	}

	TableRows.WithLabelValues(st.Table).Set(float64(st.Rows))
	logging.Debug("Metrics collected: table=%s rows=%d", st.Table, st.Rows)
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}

	for label, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			DBSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}
