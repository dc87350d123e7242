// Package cart holds a patient's line items and derives totals from them.
package cart

import (
	"sync"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/pricing"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// Line is one product in the cart with its requested quantity.
type Line struct {
	types.Product
	Qty int `json:"qty"`
}

// UnitPrice is the normalized price of a single unit.
func (l Line) UnitPrice() int64 {
	return pricing.Normalize(string(l.Price))
}

// Subtotal is UnitPrice multiplied by Qty.
func (l Line) Subtotal() int64 {
	return l.UnitPrice() * int64(l.Qty)
}

// Snapshot is a consistent read of the cart taken under a single lock.
type Snapshot struct {
	Lines []Line `json:"items"`
	Total int64  `json:"total"`
	Count int    `json:"count"`
}

// Cart keeps lines in first-added order with at most one line per product id.
// The zero value is ready to use.
type Cart struct {
	mu    sync.RWMutex
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add increments the quantity of an existing line or appends a new line with
// quantity one. It returns the resulting line.
func (c *Cart) Add(product types.Product) Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.indexOf(string(product.ID)); idx >= 0 {
		c.lines[idx].Qty++
		return c.lines[idx]
	}
	line := Line{Product: product, Qty: 1}
	c.lines = append(c.lines, line)
	return line
}

// AdjustQty adds delta to the matching line. A resulting quantity of zero or
// less removes the line. Unknown ids are ignored and report false.
func (c *Cart) AdjustQty(id string, delta int) (Line, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return Line{}, false
	}

	qty := c.lines[idx].Qty + delta
	if qty <= 0 {
		removed := c.lines[idx]
		removed.Qty = 0
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
		return removed, true
	}
	c.lines[idx].Qty = qty
	return c.lines[idx], true
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Total sums the normalized unit price times quantity across all lines.
func (c *Cart) Total() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return totalOf(c.lines)
}

// Count sums the quantities across all lines.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return countOf(c.lines)
}

func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

// Lines returns a copy of the lines in cart order.
func (c *Cart) Lines() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyLines(c.lines)
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Lines: copyLines(c.lines),
		Total: totalOf(c.lines),
		Count: countOf(c.lines),
	}
}

// Restore replaces the cart contents with previously persisted lines.
// Duplicate ids are merged into the first occurrence and non-positive
// quantities are dropped.
func (c *Cart) Restore(lines []Line) {
	restored := make([]Line, 0, len(lines))
	seen := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Qty <= 0 {
			continue
		}
		if idx, ok := seen[string(line.ID)]; ok {
			restored[idx].Qty += line.Qty
			continue
		}
		seen[string(line.ID)] = len(restored)
		restored = append(restored, line)
	}

	c.mu.Lock()
	c.lines = restored
	c.mu.Unlock()
}

func (c *Cart) indexOf(id string) int {
	for i := range c.lines {
		if string(c.lines[i].ID) == id {
			return i
		}
	}
	return -1
}

func totalOf(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}

func countOf(lines []Line) int {
	count := 0
	for _, line := range lines {
		count += line.Qty
	}
	return count
}

func copyLines(lines []Line) []Line {
	if len(lines) == 0 {
		return []Line{}
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
