package pagination

import "encoding/json"

// Collector accumulates issues in server order up to a limit.
type Collector struct {
	limit   int
	records []json.RawMessage
}

// NewCollector creates a collector. A limit <= 0 means unbounded.
func NewCollector(limit int) *Collector {
	return &Collector{limit: limit}
}

// Add appends records, dropping whatever exceeds the limit. It reports
// whether the collector is full afterwards.
func (c *Collector) Add(records []json.RawMessage) bool {
	if c.limit > 0 {
		if room := c.limit - len(c.records); room < len(records) {
			records = records[:max(room, 0)]
		}
	}
	c.records = append(c.records, records...)
	return c.Full()
}

// Full reports whether the limit has been reached.
func (c *Collector) Full() bool {
	return c.limit > 0 && len(c.records) >= c.limit
}

// Len returns the number of collected records.
func (c *Collector) Len() int {
	return len(c.records)
}

// Records returns the collected records. The result is never nil.
func (c *Collector) Records() []json.RawMessage {
	if c.records == nil {
		return []json.RawMessage{}
	}
	return c.records
}
