package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testConfig() Config {
	return Config{
		Name:             "billing-test",
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestExecute_PassesThroughResults(t *testing.T) {
	cb := New(testConfig())

	result, err := cb.Execute(func() (interface{}, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != true {
		t.Errorf("result = %v", result)
	}

	upstream := errors.New("billing unreachable")
	_, err = cb.Execute(func() (interface{}, error) {
		return nil, upstream
	})
	if err != upstream {
		t.Errorf("error = %v, want the upstream error", err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, single failure should not trip", cb.State())
	}
}

func TestTripsAtFailureThreshold(t *testing.T) {
	cb := New(testConfig())
	fail := func() (interface{}, error) { return nil, errors.New("boom") }
	ok := func() (interface{}, error) { return true, nil }

	// Five requests at 80% failure clears MinRequests but the ratio is
	// evaluated per failure, so a sixth failure trips it.
	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(fail)
	}
	_, _ = cb.Execute(ok)
	_, _ = cb.Execute(fail)

	if !cb.IsOpen() {
		t.Fatalf("state = %v, want open", cb.State())
	}

	// While open the function never runs.
	_, err := cb.Execute(func() (interface{}, error) {
		t.Error("function ran while the circuit was open")
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
}

func TestStaysClosedBelowMinRequests(t *testing.T) {
	cfg := testConfig()
	cfg.MinRequests = 10
	cb := New(cfg)

	for i := 0; i < 9; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed below MinRequests", cb.State())
	}
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := New(testConfig())
	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	}
	if !cb.IsOpen() {
		t.Fatal("circuit should be open")
	}

	time.Sleep(150 * time.Millisecond)

	_, err := cb.Execute(func() (interface{}, error) { return true, nil })
	if err != nil {
		t.Fatalf("probe after timeout failed: %v", err)
	}
	if cb.IsOpen() {
		t.Errorf("state = %v after successful probe", cb.State())
	}
}

func TestPresetConfigs(t *testing.T) {
	if name := DefaultConfig("stats").Name; name != "stats" {
		t.Errorf("DefaultConfig name = %q", name)
	}
	if name := New(BillingAPIConfig()).Name(); name != "billing-api" {
		t.Errorf("billing breaker name = %q", name)
	}

	billing, generator := BillingAPIConfig(), GeneratorAPIConfig()
	if generator.Timeout <= billing.Timeout {
		t.Error("generator circuit should probe more slowly than billing")
	}
	if generator.FailureThreshold <= billing.FailureThreshold {
		t.Error("generator circuit should tolerate more failures than billing")
	}
}
