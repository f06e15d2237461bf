package screen

import "testing"

func TestDeriveID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Home", "screen-home"},
		{"spaces", "User Settings", "screen-user-settings"},
		{"punctuation trimmed", "  Login!! ", "screen-login"},
		{"symbol runs collapse", "A -- B", "screen-a-b"},
		{"digits kept", "Step 2", "screen-step-2"},
		{"already lowercase", "home", "screen-home"},
		{"empty", "", "screen-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveID(tt.in); got != tt.want {
				t.Errorf("DeriveID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeriveIDStable(t *testing.T) {
	if DeriveID("Checkout Flow") != DeriveID("Checkout Flow") {
		t.Error("DeriveID is not deterministic")
	}
}

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"id passthrough", "screen-home", "screen-home"},
		{"fragment stripped", "#screen-home", "screen-home"},
		{"name derived", "Home", "screen-home"},
		{"fragment with name", "#Home", "screen-home"},
		{"whitespace", "  screen-home ", "screen-home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTarget(tt.in); got != tt.want {
				t.Errorf("NormalizeTarget(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePlatform(t *testing.T) {
	if p, err := ParsePlatform("Mobile"); err != nil || p != PlatformMobile {
		t.Errorf("ParsePlatform(Mobile) = %v, %v, want mobile", p, err)
	}
	if p, err := ParsePlatform(" desktop "); err != nil || p != PlatformDesktop {
		t.Errorf("ParsePlatform(desktop) = %v, %v, want desktop", p, err)
	}
	if _, err := ParsePlatform("tablet"); err == nil {
		t.Error("ParsePlatform(tablet) should fail")
	}
}

func TestProfileForFallsBackToMobile(t *testing.T) {
	if ProfileFor(Platform("watch")) != ProfileFor(PlatformMobile) {
		t.Error("unknown platform should fall back to the mobile profile")
	}
}
