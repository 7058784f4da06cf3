package accum

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestNewRejectsThreshold(t *testing.T) {
	for _, th := range []float64{0, -1, math.NaN()} {
		if _, err := New[int](th); !errors.Is(err, ErrThreshold) {
			t.Errorf("threshold %v: got %v, want ErrThreshold", th, err)
		}
	}
}

func TestThresholdScenario(t *testing.T) {
	a, err := New[int](10)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Add(0, 9); got != 0 {
		t.Errorf("call 1: got %d steps, want 0", got)
	}
	if got := a.Add(0, 2); got != 1 {
		t.Errorf("call 2: got %d steps, want 1", got)
	}
	if got := a.Residual(0); got != 1 {
		t.Errorf("residual: got %v, want 1", got)
	}
}

func TestTruncatesTowardZero(t *testing.T) {
	a, _ := New[int](10)
	if got := a.Add(0, -15); got != -1 {
		t.Errorf("got %d, want -1", got)
	}
	if got := a.Residual(0); got != -5 {
		t.Errorf("residual: got %v, want -5", got)
	}
	if got := a.Add(0, 4); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestIdentitiesAreIndependent(t *testing.T) {
	a, _ := New[int](10)
	a.Add(0, 9)
	if got := a.Add(1, 2); got != 0 {
		t.Errorf("ring 1 borrowed ring 0's residual: got %d steps", got)
	}
	if got := a.Add(0, 1); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestResetDropsCarry(t *testing.T) {
	a, _ := New[int](10)
	a.Add(0, 9)
	a.Add(1, 9)
	a.Reset(0)
	if got := a.Add(0, 2); got != 0 {
		t.Errorf("stale carry after Reset: got %d steps", got)
	}
	a.ResetAll()
	if got := a.Add(1, 2); got != 0 {
		t.Errorf("stale carry after ResetAll: got %d steps", got)
	}
}

func TestStepSumMatchesTotal(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		th := 1 + r.Float64()*20
		a, _ := New[string](th)
		sum := 0.0
		steps := 0
		for i := 0; i < 50; i++ {
			d := (r.Float64() - 0.5) * 40
			sum += d
			steps += a.Add("ring", d)
			if res := a.Residual("ring"); !(res > -th && res < th) {
				t.Fatalf("residual %v outside (-%v, %v)", res, th, th)
			}
		}
		want := int(math.Trunc(sum / th))
		if diff := steps - want; diff < -1 || diff > 1 {
			t.Fatalf("trial %d: got %d steps, want %d±1", trial, steps, want)
		}
	}
}
