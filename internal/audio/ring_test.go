package audio

import "testing"

func TestSampleRingPushLatest(t *testing.T) {
	r := NewSampleRing()
	for i := 0; i < 10; i++ {
		r.Push(float32(i))
	}
	got := r.Latest(5)
	want := []float32{5, 6, 7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSampleRingWrap(t *testing.T) {
	r := NewSampleRing()
	for i := 0; i < ringSize+10; i++ {
		r.Push(float32(i))
	}
	got := r.Latest(ringSize)
	if len(got) != ringSize {
		t.Fatalf("len = %d, want %d", len(got), ringSize)
	}
	// oldest surviving sample should be (ringSize+10)-ringSize = 10
	if got[0] != 10 {
		t.Errorf("got[0] = %v, want 10", got[0])
	}
	if got[len(got)-1] != float32(ringSize+9) {
		t.Errorf("got[last] = %v, want %v", got[len(got)-1], ringSize+9)
	}
}

func TestSampleRingClear(t *testing.T) {
	r := NewSampleRing()
	r.Push(1)
	r.Push(2)
	r.Clear()
	got := r.Latest(2)
	for i, v := range got {
		if v != 0 {
			t.Errorf("got[%d] = %v, want 0 after clear", i, v)
		}
	}
}

func TestSampleRingDropsOnSlowConsumer(t *testing.T) {
	r := NewSampleRing()
	r.Latest(1) // establish a baseline read position
	for i := 0; i < ringSize+1; i++ {
		r.Push(float32(i))
	}
	r.Latest(1)
	if r.Drops() != 1 {
		t.Errorf("expected one recorded drop after a full wrap between reads, got %d", r.Drops())
	}
}

func TestSampleRingCapsRequest(t *testing.T) {
	r := NewSampleRing()
	got := r.Latest(ringSize * 2)
	if len(got) != ringSize {
		t.Errorf("len = %d, want %d", len(got), ringSize)
	}
}
