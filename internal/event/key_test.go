package event

import "testing"

func TestParseKeyNamed(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"shift", KeyShift},
		{"ctrl", KeyCtrl},
		{"alt", KeyAlt},
		{"meta", KeyMeta},
		{"esc", KeyEscape},
		{"enter", KeyEnter},
		{"space", KeySpace},
		{"f1", KeyF1},
		{"f8", KeyF8},
		{"f12", KeyF12},
		{"pageup", KeyPageUp},
		{"printscreen", KeyPrintScreen},
	}

	for _, tt := range tests {
		k, r, err := ParseKey(tt.name)
		if err != nil {
			t.Errorf("ParseKey(%q) error: %v", tt.name, err)
			continue
		}
		if k != tt.want || r != 0 {
			t.Errorf("ParseKey(%q) = (%v, %q), want (%v, 0)", tt.name, k, r, tt.want)
		}
	}
}

func TestParseKeyCaseInsensitive(t *testing.T) {
	k, _, err := ParseKey("F8")
	if err != nil {
		t.Fatalf("ParseKey(F8) error: %v", err)
	}
	if k != KeyF8 {
		t.Errorf("ParseKey(F8) = %v, want %v", k, KeyF8)
	}
}

func TestParseKeyRune(t *testing.T) {
	tests := []rune{'a', 'Z', '7', '/', ';'}
	for _, r := range tests {
		k, got, err := ParseKey(string(r))
		if err != nil {
			t.Errorf("ParseKey(%q) error: %v", r, err)
			continue
		}
		if k != KeyRune || got != r {
			t.Errorf("ParseKey(%q) = (%v, %q), want (KeyRune, %q)", r, k, got, r)
		}
	}
}

func TestParseKeyRejectsUnknown(t *testing.T) {
	tests := []string{"", "hyperkey", "f13", "ctrl+alt", "__proto__", "eval(x)"}
	for _, name := range tests {
		if _, _, err := ParseKey(name); err == nil {
			t.Errorf("ParseKey(%q) succeeded, want error", name)
		}
	}
}

func TestNameRoundTrip(t *testing.T) {
	// Every named key must survive Name -> ParseKey.
	for k, name := range keyNames {
		got, r, err := ParseKey(name)
		if err != nil {
			t.Errorf("ParseKey(%q) error: %v", name, err)
			continue
		}
		if got != k || r != 0 {
			t.Errorf("ParseKey(Name(%v)) = (%v, %q), want (%v, 0)", k, got, r, k)
		}
	}

	if got := Name(KeyRune, 'x'); got != "x" {
		t.Errorf("Name(KeyRune, x) = %q, want x", got)
	}
	if got := Name(KeyNone, 0); got != "" {
		t.Errorf("Name(KeyNone, 0) = %q, want empty", got)
	}
}

func TestIsModifier(t *testing.T) {
	for _, k := range []Key{KeyShift, KeyCtrl, KeyAlt, KeyMeta} {
		if !k.IsModifier() {
			t.Errorf("%v.IsModifier() = false, want true", k)
		}
	}
	for _, k := range []Key{KeyNone, KeyEscape, KeyF1, KeyRune} {
		if k.IsModifier() {
			t.Errorf("%v.IsModifier() = true, want false", k)
		}
	}
}

func TestIsFunctionKey(t *testing.T) {
	for k := KeyF1; k <= KeyF12; k++ {
		if !k.IsFunctionKey() {
			t.Errorf("%v.IsFunctionKey() = false, want true", k)
		}
	}
	if KeySpace.IsFunctionKey() {
		t.Error("KeySpace.IsFunctionKey() = true, want false")
	}
}
