package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInOrder(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	c := NewFake(start)

	var fired []string
	var seenAt []time.Time
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b"); seenAt = append(seenAt, c.Now()) })
	c.AfterFunc(1*time.Second, func() { fired = append(fired, "a"); seenAt = append(seenAt, c.Now()) })
	c.AfterFunc(10*time.Second, func() { fired = append(fired, "late") })

	c.Advance(5 * time.Second)

	if len(fired) != 2 || fired[0] != "a" || fired[1] != "b" {
		t.Fatalf("Unexpected firing order: %v", fired)
	}
	if !seenAt[0].Equal(start.Add(time.Second)) || !seenAt[1].Equal(start.Add(2*time.Second)) {
		t.Errorf("Callbacks should observe their due time, got %v", seenAt)
	}
	if !c.Now().Equal(start.Add(5 * time.Second)) {
		t.Errorf("Expected clock at +5s, got %v", c.Now())
	}
	if c.Pending() != 1 {
		t.Errorf("Expected 1 pending timer, got %d", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local))
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	if !timer.Stop() {
		t.Error("Stop on pending timer should report true")
	}
	if timer.Stop() {
		t.Error("Second Stop should report false")
	}
	c.Advance(time.Minute)
	if called {
		t.Error("Stopped timer fired")
	}
}

func TestFakeRearmFromCallback(t *testing.T) {
	c := NewFake(time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local))
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Minute, tick)
	}
	c.AfterFunc(time.Minute, tick)

	c.Advance(5*time.Minute + 30*time.Second)
	if count != 5 {
		t.Errorf("Expected 5 ticks, got %d", count)
	}
}
