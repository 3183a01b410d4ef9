package loyalty

import "testing"

func TestIncrement(t *testing.T) {
	t.Parallel()

	if got := Increment(3, 2); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := Increment(0, 1); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestIsEligible(t *testing.T) {
	t.Parallel()

	for counter := int64(0); counter < RewardThreshold; counter++ {
		if IsEligible(counter) {
			t.Fatalf("counter %d must not be eligible", counter)
		}
	}

	if !IsEligible(RewardThreshold) {
		t.Fatalf("counter %d must be eligible", RewardThreshold)
	}
	if !IsEligible(RewardThreshold + 7) {
		t.Fatal("a counter past the threshold must stay eligible")
	}
}

func TestProgress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		counter int64
		current int64
		earned  int64
	}{
		{counter: 0, current: 0, earned: 0},
		{counter: 3, current: 3, earned: 0},
		{counter: 5, current: 0, earned: 1},
		{counter: 12, current: 2, earned: 2},
	}

	for _, tc := range testCases {
		current, earned := Progress(tc.counter)
		if current != tc.current || earned != tc.earned {
			t.Fatalf("counter %d: expected (%d, %d), got (%d, %d)", tc.counter, tc.current, tc.earned, current, earned)
		}
	}
}
