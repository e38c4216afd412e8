package math3d

import "testing"

func TestCrossIsRightHanded(t *testing.T) {
	tests := []struct {
		a, b, want Vec3
	}{
		{V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)},
		{V3(0, 1, 0), V3(0, 0, 1), V3(1, 0, 0)},
		{V3(0, 0, 1), V3(1, 0, 0), V3(0, 1, 0)},
		{V3(0, 1, 0), V3(1, 0, 0), V3(0, 0, -1)},
	}
	for _, tt := range tests {
		if got := tt.a.Cross(tt.b); got != tt.want {
			t.Errorf("%+v × %+v = %+v, want %+v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := V3(0, 3, 4).Normalize(); !got.ApproxEqual(V3(0, 0.6, 0.8), eps) {
		t.Errorf("Normalize = %+v, want (0, 0.6, 0.8)", got)
	}
	if got := Zero3().Normalize(); got != Zero3() {
		t.Errorf("zero Normalize = %+v, want zero", got)
	}
}

func TestLerpTowardInfinity(t *testing.T) {
	a := Point(V3(0, 0, 0))
	b := Direction(V3(2, 0, 0))

	// Halfway to a point at infinity is (1, 0, 0, 0.5): x/w = 2 after the
	// divide, still on the ray from a along +X.
	got := a.Lerp(b, 0.5)
	if got != V4(1, 0, 0, 0.5) {
		t.Fatalf("Lerp = %+v, want (1, 0, 0, 0.5)", got)
	}
	if p := got.PerspectiveDivide(); p != V3(2, 0, 0) {
		t.Errorf("divided = %+v, want (2, 0, 0)", p)
	}
}

func BenchmarkVec3Cross(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	for b.Loop() {
		_ = v1.Cross(v2)
	}
}
