package auth

import "testing"

func TestFlagGuard(t *testing.T) {
	g := &flagGuard{}
	release, ok := g.TryAcquire()
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}
	if _, ok := g.TryAcquire(); ok {
		t.Fatal("expected second acquire to fail")
	}
	release()
	if _, ok := g.TryAcquire(); !ok {
		t.Fatal("expected acquire after release to succeed")
	}
}

func TestSessionGuardKeysAreIndependent(t *testing.T) {
	guards := NewSessionGuard()

	releaseA, ok := guards.For("a:login").TryAcquire()
	if !ok {
		t.Fatal("expected a:login to be free")
	}
	if _, ok := guards.For("a:login").TryAcquire(); ok {
		t.Fatal("expected a:login to be held")
	}
	releaseB, ok := guards.For("b:login").TryAcquire()
	if !ok {
		t.Fatal("expected b:login to be free")
	}
	if guards.InFlight() != 2 {
		t.Fatalf("expected 2 in flight, got %d", guards.InFlight())
	}

	releaseA()
	releaseA()
	releaseB()
	if guards.InFlight() != 0 {
		t.Fatalf("expected 0 in flight, got %d", guards.InFlight())
	}
}

func TestSessionGuardSharedAcrossFormInstances(t *testing.T) {
	guards := NewSessionGuard()
	svc := &fakeService{}

	first := NewLoginForm(svc, nil, nil, WithGuard(guards.For("sid:login")))
	second := NewLoginForm(svc, nil, nil, WithGuard(guards.For("sid:login")))

	release, ok := first.opts.guard.TryAcquire()
	if !ok {
		t.Fatal("expected acquire")
	}
	defer release()

	if _, ok := second.opts.guard.TryAcquire(); ok {
		t.Fatal("expected the second form to see the held guard")
	}
}
