package webhook

import "testing"

func TestHostThrottleAllowsUpToCapacityBurst(t *testing.T) {
	th := newHostThrottle(1, 3)

	for i := 0; i < 3; i++ {
		if !th.Allow() {
			t.Fatalf("expected request %d within burst capacity to be allowed", i)
		}
	}

	if th.Allow() {
		t.Fatal("expected request beyond burst capacity to be denied")
	}
}

func TestHostThrottleRegistryReusesBucketPerHost(t *testing.T) {
	r := newHostThrottleRegistry(1, 3)

	a := r.forHost("example.com")
	b := r.forHost("example.com")
	if a != b {
		t.Fatal("expected the same throttle instance for the same host")
	}

	c := r.forHost("other.com")
	if a == c {
		t.Fatal("expected a distinct throttle instance for a different host")
	}
}
