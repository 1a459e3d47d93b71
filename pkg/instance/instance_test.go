package instance

import "testing"

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("LOCKERHUB_INSTANCE_ID", "api-1")
	t.Setenv("DYNO", "web.3")
	if got := GetID(); got != "api-1" {
		t.Fatalf("expected api-1 got %s", got)
	}
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("LOCKERHUB_INSTANCE_ID", "")
	t.Setenv("DYNO", "web.3")
	if got := GetID(); got != "web.3" {
		t.Fatalf("expected web.3 got %s", got)
	}
}
