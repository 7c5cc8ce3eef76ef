package pipeline

import "tiku/internal"

// Collector is an append-only log of file and row failures for one run.
type Collector struct {
	entries []internal.ErrorEntry
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RecordFile(file string, err error) {
	c.entries = append(c.entries, internal.ErrorEntry{
		File:   file,
		Kind:   kindOf(err),
		Reason: err.Error(),
	})
}

func (c *Collector) RecordRow(file string, rowNo int, err error, raw string) {
	c.entries = append(c.entries, internal.ErrorEntry{
		File:   file,
		RowNo:  rowNo,
		Kind:   kindOf(err),
		Reason: err.Error(),
		Raw:    raw,
	})
}

func (c *Collector) Len() int {
	return len(c.entries)
}

func (c *Collector) Count(kind internal.ErrorKind) int {
	n := 0
	for _, e := range c.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (c *Collector) Entries() []internal.ErrorEntry {
	out := make([]internal.ErrorEntry, len(c.entries))
	copy(out, c.entries)
	return out
}
