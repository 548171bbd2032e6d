package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "zh-Hans", want: "zh-Hans"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("plain language", func(t *testing.T) {
		got, ok := Resolve("fr")
		if !ok || got.English != "French" || got.Flag != "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("region gets a flag", func(t *testing.T) {
		got, ok := Resolve("pt_br")
		if !ok || got.Code != "pt-BR" || got.Flag != "🇧🇷" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("base pseudo locale", func(t *testing.T) {
		if _, ok := Resolve("Base"); ok {
			t.Fatal("Resolve(Base) ok = true, want false")
		}
	})

	t.Run("not a language", func(t *testing.T) {
		if _, ok := Resolve("Localizable"); ok {
			t.Fatal("Resolve(Localizable) ok = true, want false")
		}
	})
}

func TestFromPath(t *testing.T) {
	cases := []struct {
		path string
		want string
		ok   bool
	}{
		{path: "Resources/de.lproj/Localizable.strings", want: "de", ok: true},
		{path: "Resources/zh-Hans.lproj/InfoPlist.strings", want: "zh-Hans", ok: true},
		{path: "i18n/ja.strings", want: "ja", ok: true},
		{path: "Localizable-pt_BR.strings", want: "pt-BR", ok: true},
		{path: "Resources/Base.lproj/Main.strings", ok: false},
	}

	for _, tc := range cases {
		got, ok := FromPath(tc.path)
		if ok != tc.ok || got.Code != tc.want {
			t.Fatalf("FromPath(%q) = (%q, %v), want (%q, %v)", tc.path, got.Code, ok, tc.want, tc.ok)
		}
	}
}

func TestFlagFromRegion(t *testing.T) {
	if got := flagFromRegion("us"); got != "🇺🇸" {
		t.Fatalf("flagFromRegion(us) = %q, want %q", got, "🇺🇸")
	}
	if got := flagFromRegion("USA"); got != "" {
		t.Fatalf("flagFromRegion(USA) = %q, want empty", got)
	}
	if got := flagFromRegion("1A"); got != "" {
		t.Fatalf("flagFromRegion(1A) = %q, want empty", got)
	}
}
