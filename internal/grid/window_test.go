package grid

import "testing"

func TestComputeRangeFormula(t *testing.T) {
	w := ComputeRange(95, 90, 30, 2, 100)
	if w.VisibleStart != 3 || w.VisibleEnd != 7 {
		t.Fatalf("unexpected visible range %d-%d", w.VisibleStart, w.VisibleEnd)
	}
	if w.OverscanStart != 1 || w.OverscanEnd != 9 {
		t.Fatalf("unexpected overscan range %d-%d", w.OverscanStart, w.OverscanEnd)
	}
	if empty := ComputeRange(0, 100, 30, 2, 0); !empty.Empty {
		t.Fatalf("expected empty window, got %#v", empty)
	}
}

func TestComputeRangeOrderingHolds(t *testing.T) {
	for rowCount := 1; rowCount <= 12; rowCount++ {
		for scrollTop := -30; scrollTop <= 600; scrollTop += 7 {
			for _, container := range []int{0, 15, 30, 90, 400} {
				for _, rowHeight := range []int{0, 30, 45} {
					for _, overscan := range []int{0, 1, 3} {
						w := ComputeRange(scrollTop, container, rowHeight, overscan, rowCount)
						if !(0 <= w.OverscanStart && w.OverscanStart <= w.VisibleStart &&
							w.VisibleStart <= w.VisibleEnd && w.VisibleEnd <= w.OverscanEnd &&
							w.OverscanEnd <= rowCount-1) {
							t.Fatalf("ComputeRange(%d,%d,%d,%d,%d) broke ordering: %#v",
								scrollTop, container, rowHeight, overscan, rowCount, w)
						}
					}
				}
			}
		}
	}
}

func TestScrollToItemAlignments(t *testing.T) {
	// 100 rows of 30 units, 90-unit viewport.
	cases := []struct {
		name  string
		index int
		align Align
		top   int
		want  int
	}{
		{name: "start", index: 10, align: AlignStart, top: 0, want: 300},
		{name: "end", index: 10, align: AlignEnd, top: 0, want: 240},
		{name: "center", index: 10, align: AlignCenter, top: 0, want: 270},
		{name: "auto keeps visible", index: 4, align: AlignAuto, top: 60, want: 60},
		{name: "auto scrolls up", index: 1, align: AlignAuto, top: 60, want: 30},
		{name: "auto scrolls down", index: 10, align: AlignAuto, top: 60, want: 240},
		{name: "clamps to end", index: 99, align: AlignStart, top: 0, want: 2910},
		{name: "clamps to zero", index: 0, align: AlignEnd, top: 500, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScrollToItem(tc.index, tc.align, tc.top, 90, 30, 100); got != tc.want {
				t.Fatalf("ScrollToItem() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScrollCoalescerKeepsFinalOffset(t *testing.T) {
	var c ScrollCoalescer
	if _, ok := c.Flush(); ok {
		t.Fatal("expected empty flush")
	}
	if !c.Push(30) {
		t.Fatal("expected first push to schedule a flush")
	}
	if c.Push(60) || c.Push(90) {
		t.Fatal("expected later pushes in the burst to reuse the scheduled flush")
	}
	top, ok := c.Flush()
	if !ok || top != 90 {
		t.Fatalf("expected final offset 90, got %d %v", top, ok)
	}
	if c.Pending() {
		t.Fatal("expected no pending flush")
	}
	if !c.Push(120) {
		t.Fatal("expected a new burst to schedule again")
	}
}

func TestScrollCoalescerResetDropsPendingOffset(t *testing.T) {
	var c ScrollCoalescer
	c.Push(90)
	c.Reset()
	if c.Pending() {
		t.Fatal("expected reset to clear the pending flush")
	}
	if top, ok := c.Flush(); ok {
		t.Fatalf("expected stale frame to flush nothing, got %d", top)
	}
	if !c.Push(30) {
		t.Fatal("expected a push after reset to schedule a flush")
	}
}
