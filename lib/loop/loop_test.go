package loop

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func start(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestRunsInOrder(t *testing.T) {
	l, _ := start(t)
	var got []int
	for i := 0; i < 100; i++ {
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Do(context.Background(), func() {}); err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got %d at %d", v, i)
		}
	}
	if len(got) != 100 {
		t.Fatalf("got %d runs, want 100", len(got))
	}
}

func TestPostFromLoop(t *testing.T) {
	l, _ := start(t)
	done := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(done) })
	})
	<-done
}

func TestConcurrentPost(t *testing.T) {
	l, _ := start(t)
	n := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Post(func() { n++ })
			}
		}()
	}
	wg.Wait()
	l.Do(context.Background(), func() {})
	if n != 400 {
		t.Errorf("got %d, want 400", n)
	}
}

func TestPostAfterStop(t *testing.T) {
	l, cancel := start(t)
	cancel()
	<-l.Done()
	if l.Post(func() { t.Error("ran after stop") }) {
		t.Error("Post accepted after stop")
	}
	if err := l.Do(context.Background(), func() {}); !errors.Is(err, context.Canceled) {
		t.Errorf("Do: got %v, want context.Canceled", err)
	}
}
