package main

import "testing"

func pttMonitor() *silenceMonitor {
	return newSilenceMonitor(32000, func() bool { return false })
}

func toggleMonitor() *silenceMonitor {
	return newSilenceMonitor(32000, func() bool { return true })
}

func feedN(m *silenceMonitor, live bool, n int) SilenceEvent {
	var last SilenceEvent
	for i := 0; i < n; i++ {
		last = m.Tick(live)
	}
	return last
}

func TestSilenceWarnAfter8s(t *testing.T) {
	m := pttMonitor()
	// 79 ticks of silence, no warning yet
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != SilenceNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	// 80th tick triggers warning (8s)
	if ev := m.Tick(false); ev != SilenceWarn {
		t.Fatalf("expected SilenceWarn at tick 80, got %d", ev)
	}
}

func TestSilenceWarnClearsOnInput(t *testing.T) {
	m := pttMonitor()
	feedN(m, false, 80) // triggers warn

	// sustained input clears the warning (25% of the 80-tick window)
	for i := 0; i < 80; i++ {
		ev := m.Tick(true)
		if ev == SilenceWarnClear {
			return
		}
	}
	t.Fatal("expected SilenceWarnClear after input")
}

func TestNoWarnDuringInput(t *testing.T) {
	m := pttMonitor()
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev == SilenceWarn {
			t.Fatalf("unexpected warn during input at tick %d", i)
		}
	}
}

func TestToggleRepeat(t *testing.T) {
	m := toggleMonitor()
	feedN(m, false, 80) // warn at tick 80
	// Next repeat at tick 80 + 80 = 160
	var gotRepeat bool
	for i := 0; i < 100; i++ {
		if ev := m.Tick(false); ev == SilenceRepeat {
			gotRepeat = true
			break
		}
	}
	if !gotRepeat {
		t.Fatal("expected SilenceRepeat in toggle mode")
	}
}

func TestAutoClosePriorityOverRepeat(t *testing.T) {
	m := toggleMonitor()
	for i := 0; i < 400; i++ {
		ev := m.Tick(false)
		if ev == SilenceAutoClose {
			return
		}
		if i >= 300 && ev == SilenceRepeat {
			t.Fatalf("SilenceRepeat fired at tick %d instead of SilenceAutoClose", i)
		}
	}
	t.Fatal("expected SilenceAutoClose within 400 ticks")
}

func TestToggleAutoClose(t *testing.T) {
	m := toggleMonitor()
	var gotClose bool
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev == SilenceAutoClose {
			gotClose = true
			break
		}
	}
	if !gotClose {
		t.Fatal("expected SilenceAutoClose after 300 ticks")
	}
}

func TestNoAutoCloseInPTT(t *testing.T) {
	m := pttMonitor()
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev == SilenceAutoClose {
			t.Fatalf("unexpected auto-close in PTT mode at tick %d", i)
		}
	}
}

func TestAutoClosePreventedByInput(t *testing.T) {
	m := toggleMonitor()
	for i := 0; i < 500; i++ {
		live := i%10 < 7
		if ev := m.Tick(live); ev == SilenceAutoClose {
			t.Fatalf("unexpected auto-close with input at tick %d", i)
		}
	}
}

func TestNoRepeatInPTT(t *testing.T) {
	m := pttMonitor()
	for i := 0; i < 300; i++ {
		if ev := m.Tick(false); ev == SilenceRepeat {
			t.Fatalf("unexpected SilenceRepeat in PTT mode at tick %d", i)
		}
	}
}

func TestWarnOnlyOnce(t *testing.T) {
	m := pttMonitor()
	warns := 0
	for i := 0; i < 300; i++ {
		if ev := m.Tick(false); ev == SilenceWarn {
			warns++
		}
	}
	if warns != 1 {
		t.Fatalf("expected exactly 1 SilenceWarn in PTT mode, got %d", warns)
	}
}

func TestWarnStaysDuringBlips(t *testing.T) {
	m := pttMonitor()
	feedN(m, false, 80) // triggers warn

	// occasional blips below the clear ratio keep the warning
	clears := 0
	for i := 0; i < 80; i++ {
		live := i%10 == 0
		if ev := m.Tick(live); ev == SilenceWarnClear {
			clears++
		}
	}
	if clears > 0 {
		t.Fatalf("expected warning to stay with 10%% input, got %d clears", clears)
	}
}

func TestFeedSplitsChunksIntoTicks(t *testing.T) {
	m := pttMonitor() // 3200 bytes per tick
	if m.tickLen != 3200 {
		t.Fatalf("tickLen = %d", m.tickLen)
	}
	m.Feed(1536, 0)
	m.Feed(1536, 0)
	if m.ticks != 0 {
		t.Fatalf("tick before a full tick of audio: %d", m.ticks)
	}
	m.Feed(1536, 0)
	if m.ticks != 1 || m.pending != 1536*3-3200 {
		t.Errorf("ticks=%d pending=%d", m.ticks, m.pending)
	}
}

func TestFeedWarnsOnSilentInput(t *testing.T) {
	m := pttMonitor()
	var got SilenceEvent
	// 8s of 16 kHz mono PCM16 in 1536-byte chunks
	for fed := 0; fed < 8*32000; fed += 1536 {
		if ev := m.Feed(1536, 0.001); ev != SilenceNone {
			got = ev
		}
	}
	if got != SilenceWarn {
		t.Fatalf("expected SilenceWarn, got %d", got)
	}
}

func TestFeedLoudInputNeverWarns(t *testing.T) {
	m := pttMonitor()
	for fed := 0; fed < 20*32000; fed += 1536 {
		if ev := m.Feed(1536, 0.2); ev == SilenceWarn {
			t.Fatalf("warned on loud input after %d bytes", fed)
		}
	}
}
