package cart

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

func product(id, price string) types.Product {
	return types.Product{ID: types.LooseString(id), Name: "Product " + id, Price: types.LooseString(price)}
}

func TestAddAccumulatesQuantity(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(product("a", "₹100"))
	c.Add(product("b", "₹50"))
	line := c.Add(product("a", "₹100"))

	if line.Qty != 2 {
		t.Fatalf("expected qty 2, got %d", line.Qty)
	}
	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ID != "a" || lines[1].ID != "b" {
		t.Fatalf("expected first-added order, got %v", lines)
	}
	if c.Total() != 250 {
		t.Fatalf("expected total 250, got %d", c.Total())
	}
	if c.Count() != 3 {
		t.Fatalf("expected count 3, got %d", c.Count())
	}
}

func TestAdjustQty(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(product("a", "₹10"))
	c.AdjustQty("a", 2)

	if line, ok := c.AdjustQty("a", -1); !ok || line.Qty != 2 {
		t.Fatalf("expected qty 2, got %+v ok=%v", line, ok)
	}
	if _, ok := c.AdjustQty("missing", 5); ok {
		t.Fatalf("expected unknown id to be ignored")
	}
	if c.Count() != 2 {
		t.Fatalf("unknown id changed the cart")
	}
}

func TestAdjustQtyClampsAndRemoves(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(product("a", "₹10"))
	c.Add(product("a", "₹10"))
	c.Add(product("a", "₹10"))
	c.Add(product("b", "₹5"))

	line, ok := c.AdjustQty("a", -999)
	if !ok {
		t.Fatalf("expected line to be found")
	}
	if line.Qty != 0 {
		t.Fatalf("expected removed line to report qty 0, got %d", line.Qty)
	}
	lines := c.Lines()
	if len(lines) != 1 || lines[0].ID != "b" {
		t.Fatalf("expected only b to remain, got %v", lines)
	}
	for _, l := range lines {
		if l.Qty < 1 {
			t.Fatalf("line %s has non-positive qty %d", l.ID, l.Qty)
		}
	}
}

func TestReAddAfterRemovalAppends(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(product("a", "1"))
	c.Add(product("b", "1"))
	c.AdjustQty("a", -1)
	c.Add(product("a", "1"))

	lines := c.Lines()
	if lines[0].ID != "b" || lines[1].ID != "a" {
		t.Fatalf("expected a to move to the end, got %v", lines)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(product("a", "₹100"))
	c.Clear()

	if !c.IsEmpty() || c.Total() != 0 || c.Count() != 0 {
		t.Fatalf("expected empty cart after clear")
	}
	if lines := c.Lines(); lines == nil || len(lines) != 0 {
		t.Fatalf("expected empty non-nil lines, got %v", lines)
	}
}

func TestLinesReturnsCopy(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(product("a", "₹100"))
	lines := c.Lines()
	lines[0].Qty = 42

	if c.Count() != 1 {
		t.Fatalf("mutating the copy changed the cart")
	}
}

func TestTotalIgnoresGarbagePrices(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(product("a", "call us"))
	c.Add(product("b", "₹1,000"))

	if c.Total() != 1000 {
		t.Fatalf("expected total 1000, got %d", c.Total())
	}
}

func TestRestoreDedupesAndDropsEmptyLines(t *testing.T) {
	t.Parallel()

	c := New()
	c.Add(product("z", "1"))
	c.Restore([]Line{
		{Product: product("a", "₹100"), Qty: 2},
		{Product: product("b", "₹50"), Qty: 0},
		{Product: product("a", "₹100"), Qty: 1},
		{Product: product("c", "₹10"), Qty: -4},
	})

	snap := c.Snapshot()
	if len(snap.Lines) != 1 {
		t.Fatalf("expected one line, got %v", snap.Lines)
	}
	if snap.Lines[0].Qty != 3 || snap.Total != 300 || snap.Count != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d", "e"}
	c := New()

	for i := 0; i < 2000; i++ {
		id := ids[rng.Intn(len(ids))]
		if rng.Intn(2) == 0 {
			c.Add(product(id, "₹7"))
		} else {
			c.AdjustQty(id, rng.Intn(9)-5)
		}

		lines := c.Lines()
		seen := map[types.LooseString]bool{}
		sum := 0
		for _, line := range lines {
			if seen[line.ID] {
				t.Fatalf("duplicate line for %s", line.ID)
			}
			seen[line.ID] = true
			if line.Qty < 1 {
				t.Fatalf("line %s has qty %d", line.ID, line.Qty)
			}
			sum += line.Qty
		}
		if sum != c.Count() {
			t.Fatalf("count %d does not match line sum %d", c.Count(), sum)
		}
	}
}

func TestTotalIndependentOfAddOrder(t *testing.T) {
	t.Parallel()

	products := []types.Product{
		product("a", "₹100"),
		product("a", "₹100"),
		product("b", "₹50"),
		product("c", "Rs. 1,999"),
	}

	rng := rand.New(rand.NewSource(11))
	var expected int64 = -1
	for i := 0; i < 20; i++ {
		order := rng.Perm(len(products))
		c := New()
		for _, idx := range order {
			c.Add(products[idx])
		}
		if expected < 0 {
			expected = c.Total()
			continue
		}
		if c.Total() != expected {
			t.Fatalf("total %d differs from %d for order %v", c.Total(), expected, order)
		}
	}
	if expected != 2249 {
		t.Fatalf("expected total 2249, got %d", expected)
	}
}

func TestConcurrentAdds(t *testing.T) {
	t.Parallel()

	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(product("a", "₹2"))
		}()
	}
	wg.Wait()

	if c.Len() != 1 || c.Count() != 50 || c.Total() != 100 {
		t.Fatalf("unexpected cart after concurrent adds: len=%d count=%d total=%d", c.Len(), c.Count(), c.Total())
	}
}
