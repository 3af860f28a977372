package usecase

import "testing"

func TestConfigKeys_Order(t *testing.T) {
	want := []string{"worldpath", "motd", "password", "players", "world", "worldname", "autocreate"}
	got := ConfigKeys()
	if len(got) != len(want) {
		t.Fatalf("unexpected keys %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key %d: got %q, want %q", i, got[i], want[i])
		}
	}
	got[0] = "mutated"
	if ConfigKeys()[0] != "worldpath" {
		t.Fatal("ConfigKeys must return a fresh slice")
	}
}

func TestStateAndOutcomeStrings(t *testing.T) {
	states := map[ProcessState]string{
		StateNotStarted:  "not-started",
		StateRunning:     "running",
		StateStopping:    "stopping",
		StateKilled:      "killed",
		StateStopped:     "stopped",
		ProcessState(99): "unknown",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("state %d: got %q, want %q", s, s.String(), want)
		}
	}
	outcomes := map[ExitOutcome]string{
		ExitAlreadyStopped: "already-stopped",
		ExitGraceful:       "graceful",
		ExitForced:         "forced",
		ExitOutcome(7):     "unknown",
	}
	for o, want := range outcomes {
		if o.String() != want {
			t.Errorf("outcome %d: got %q, want %q", o, o.String(), want)
		}
	}
}
