package usecase

import (
	"io"
	"reflect"
	"testing"
	"time"
)

func collectLines(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var got []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, line)
		case <-timeout:
			t.Fatalf("line channel not closed, got %q so far", got)
		}
	}
}

func TestReadLines_WaitsForNewline(t *testing.T) {
	pr, pw := io.Pipe()
	ch := ReadLines(pr)

	go func() {
		_, _ = io.WriteString(pw, "say hel")
		time.Sleep(250 * time.Millisecond)
		_, _ = io.WriteString(pw, "lo\nexit")
		_ = pw.Close()
	}()

	want := []string{"say hello", "exit"}
	if got := collectLines(t, ch); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReadLines_ClosesOnReadError(t *testing.T) {
	pr, pw := io.Pipe()
	ch := ReadLines(pr)
	_, _ = io.WriteString(pw, "one\n")
	_ = pw.CloseWithError(io.ErrUnexpectedEOF)

	if got := collectLines(t, ch); !reflect.DeepEqual(got, []string{"one"}) {
		t.Fatalf("got %q", got)
	}
}
