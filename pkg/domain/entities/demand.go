package entities

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Priority is a demand rank; 1 is scheduled first
type Priority int

const (
	PriorityUrgent Priority = 1
	PriorityHigh   Priority = 2
	PriorityNormal Priority = 3
	PriorityLow    Priority = 4
)

// String method for Priority enum
func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "Urgent"
	case PriorityHigh:
		return "High"
	case PriorityNormal:
		return "Normal"
	case PriorityLow:
		return "Low"
	default:
		return "P" + strconv.Itoa(int(p))
	}
}

// ParsePriority maps an intake label to its rank, defaulting to Normal
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent", "緊急", "1":
		return PriorityUrgent
	case "high", "高", "2":
		return PriorityHigh
	case "normal", "通常", "中", "3":
		return PriorityNormal
	case "low", "低", "4":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// DemandEntry is one normalized demand line for one production day
type DemandEntry struct {
	ProductID ProductID
	Day       time.Time
	DueDate   time.Time
	UnitCount decimal.Decimal
	Quantity  int64
	Priority  Priority
	LotNumber string
	Source    string
	// Seq numbers the entries that share a product and day, from 1
	Seq int
}

// UnitBatches returns how many unit batches the entry expands to
func (d *DemandEntry) UnitBatches() int {
	if d.UnitCount.Sign() <= 0 {
		return 0
	}
	return int(d.UnitCount.Ceil().IntPart())
}

// LotFor returns the lot identity of the n-th unit batch of the entry
func (d *DemandEntry) LotFor(unit int) string {
	if d.UnitBatches() <= 1 && d.LotNumber != "" {
		return d.LotNumber
	}
	base := d.LotNumber
	if base == "" {
		base = string(d.ProductID) + "-" + d.Day.Format("20060102") + "-" + strconv.Itoa(max(d.Seq, 1))
	}
	return base + "-" + strconv.Itoa(unit+1)
}

// SequenceEntries returns a copy of entries in which every entry without a
// sequence number gets the next free one for its product and day
func SequenceEntries(entries []DemandEntry) []DemandEntry {
	type productDay struct {
		product ProductID
		day     string
	}
	dayOf := func(e DemandEntry) productDay {
		return productDay{product: e.ProductID, day: Day(e.Day).Format("2006-01-02")}
	}

	next := make(map[productDay]int)
	for _, e := range entries {
		if k := dayOf(e); e.Seq >= next[k] {
			next[k] = e.Seq
		}
	}

	sequenced := make([]DemandEntry, len(entries))
	for i, e := range entries {
		if e.Seq <= 0 {
			k := dayOf(e)
			next[k]++
			e.Seq = next[k]
		}
		sequenced[i] = e
	}
	return sequenced
}

// DemandTable is a raw intake table as supplied by the surrounding layer
type DemandTable struct {
	Columns []string
	Rows    [][]string
}
