package stage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Phoenix-070/Edutranscribe/internal/logger"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

func TestExecuteSuccessAppliesValue(t *testing.T) {
	var applied string
	e := New(Stage[string, string]{
		Name: "summarize",
		Call: func(_ context.Context, req string) (string, error) { return "summary of " + req, nil },
		Apply: func(_ context.Context, v string) error {
			applied = v
			return nil
		},
	}, logger.Discard())

	got, err := e.Execute(context.Background(), "text")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "summary of text" || applied != got {
		t.Fatalf("value=%q applied=%q", got, applied)
	}
	r := e.Result()
	if r.Status != StatusSuccess || r.Value != got {
		t.Fatalf("result = %+v", r)
	}
}

func TestExecuteErrorSkipsApply(t *testing.T) {
	applied := false
	e := New(Stage[string, string]{
		Name: "summarize",
		Call: func(context.Context, string) (string, error) {
			return "", utils.E(utils.CodeNetwork, "Client.Summarize", "summarize request failed", errors.New("503"))
		},
		Apply: func(context.Context, string) error {
			applied = true
			return nil
		},
	}, logger.Discard())

	if _, err := e.Execute(context.Background(), "x"); !utils.IsCode(err, utils.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if applied {
		t.Fatal("apply must not run on error")
	}
	r := e.Result()
	if r.Status != StatusError || r.Code != utils.CodeNetwork || r.Err != "summarize request failed" {
		t.Fatalf("result = %+v", r)
	}
}

func TestValidationFailureIssuesNoCall(t *testing.T) {
	var calls int32
	e := New(Stage[string, string]{
		Name: "translate",
		Validate: func(context.Context, string) error {
			return utils.E(utils.CodeEmptyInput, "Pipeline.Translate", "nothing to translate", nil)
		},
		Call: func(context.Context, string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "", nil
		},
	}, logger.Discard())

	_, err := e.Execute(context.Background(), "")
	if !utils.IsCode(err, utils.CodeEmptyInput) {
		t.Fatalf("expected empty input, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
	if e.Result().Status != StatusError {
		t.Fatalf("status = %s", e.Result().Status)
	}
}

func TestSecondExecuteWhilePendingIsIgnored(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int32

	e := New(Stage[string, string]{
		Name: "transcribe",
		Call: func(_ context.Context, req string) (string, error) {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return "transcript of " + req, nil
		},
	}, logger.Discard())

	var wg sync.WaitGroup
	var first string
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = e.Execute(context.Background(), "a")
	}()
	<-started

	if !e.Pending() {
		t.Fatal("expected pending")
	}
	if _, err := e.Execute(context.Background(), "b"); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second execute err = %v, want ErrInFlight", err)
	}

	close(release)
	wg.Wait()

	if firstErr != nil || first != "transcript of a" {
		t.Fatalf("first = %q err=%v", first, firstErr)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if r := e.Result(); r.Value != "transcript of a" {
		t.Fatalf("result value = %q", r.Value)
	}
}

func TestApplyFailureEndsInError(t *testing.T) {
	e := New(Stage[int, int]{
		Name:  "summarize",
		Call:  func(context.Context, int) (int, error) { return 1, nil },
		Apply: func(context.Context, int) error { return utils.E(utils.CodeInternal, "Workspace.Commit", "failed to persist workspace", nil) },
	}, logger.Discard())

	if _, err := e.Execute(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
	if r := e.Result(); r.Status != StatusError || r.Value != 0 {
		t.Fatalf("result = %+v", r)
	}
}

func TestOnChangeSeesTransitionsInOrder(t *testing.T) {
	var seen []Status
	e := New(Stage[string, string]{
		Name: "summarize",
		Call: func(context.Context, string) (string, error) { return "ok", nil },
	}, logger.Discard())
	e.OnChange(func(r Result[string]) { seen = append(seen, r.Status) })

	_, _ = e.Execute(context.Background(), "x")
	e.Reset()

	want := []Status{StatusPending, StatusSuccess, StatusIdle}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestExecuteHonoursContextCancellation(t *testing.T) {
	e := New(Stage[string, string]{
		Name: "transcribe",
		Call: func(ctx context.Context, _ string) (string, error) {
			select {
			case <-ctx.Done():
				return "", utils.E(utils.CodeNetwork, "Client.Transcribe", "transcribe request failed", ctx.Err())
			case <-time.After(time.Second):
				return "late", nil
			}
		},
	}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Execute(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled in chain", err)
	}
	if e.Pending() {
		t.Fatal("executor must settle after cancellation")
	}
}
