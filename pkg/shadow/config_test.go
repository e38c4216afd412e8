package shadow

import (
	"errors"
	"testing"

	"github.com/taigrr/umbra/pkg/scene"
)

func TestParseRoundTrip(t *testing.T) {
	for _, m := range modes {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m, got, err)
		}
	}
	for _, m := range methods {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %v, %v", m, got, err)
		}
	}
	for _, s := range stencilImplementations {
		got, err := ParseStencilImplementation(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStencilImplementation(%q) = %v, %v", s, got, err)
		}
	}
	for _, u := range updateStrategies {
		got, err := ParseUpdateStrategy(u.String())
		if err != nil || got != u {
			t.Errorf("ParseUpdateStrategy(%q) = %v, %v", u, got, err)
		}
	}
	for _, o := range faceOrderings {
		got, err := ParseFaceOrdering(o.String())
		if err != nil || got != o {
			t.Errorf("ParseFaceOrdering(%q) = %v, %v", o, got, err)
		}
	}
	for _, f := range castFaces {
		got, err := ParseCastFace(f.String())
		if err != nil || got != f {
			t.Errorf("ParseCastFace(%q) = %v, %v", f, got, err)
		}
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	m, err := ParseMethod(" ZFail ")
	if err != nil || m != ZFail {
		t.Errorf("ParseMethod = %v, %v, want zfail", m, err)
	}
	f, err := ParseCastFace("Front-And-Back")
	if err != nil || f != scene.CastFrontAndBack {
		t.Errorf("ParseCastFace = %v, %v, want front-and-back", f, err)
	}
}

func errOf(_ any, err error) error { return err }

func TestParseUnknown(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) error
	}{
		{"mode", func(s string) error { return errOf(ParseMode(s)) }},
		{"method", func(s string) error { return errOf(ParseMethod(s)) }},
		{"stencil", func(s string) error { return errOf(ParseStencilImplementation(s)) }},
		{"update", func(s string) error { return errOf(ParseUpdateStrategy(s)) }},
		{"ordering", func(s string) error { return errOf(ParseFaceOrdering(s)) }},
		{"cast", func(s string) error { return errOf(ParseCastFace(s)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parse("bogus"); !errors.Is(err, ErrUnknownOption) {
				t.Errorf("err = %v, want ErrUnknownOption", err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Mode != ModeCPUSilhouette || cfg.Method != ZFail {
		t.Errorf("default = %v/%v, want cpu-silhouette/zfail", cfg.Mode, cfg.Method)
	}
	if !cfg.AmbientPass || !cfg.ClearStencil {
		t.Error("default config should render the ambient pass and clear the stencil")
	}
	if Mode(99).String() != "unknown" {
		t.Errorf("Mode(99) = %q", Mode(99).String())
	}
}
