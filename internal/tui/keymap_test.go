package tui

import (
	"slices"
	"testing"

	"charm.land/bubbles/v2/key"
)

func TestParseBindingKeys(t *testing.T) {
	cases := []struct {
		raw, fallback string
		wantKeys      []string
		wantHelp      string
	}{
		{raw: "space", fallback: ".", wantKeys: []string{" ", "space"}, wantHelp: "space"},
		{raw: "Z", fallback: "z", wantKeys: []string{"Z", "shift+z"}, wantHelp: "Z"},
		{raw: "Ctrl+R", fallback: "r", wantKeys: []string{"ctrl+r"}, wantHelp: "Ctrl+R"},
		{raw: "  ", fallback: "x", wantKeys: []string{"x"}, wantHelp: "x"},
		{raw: "=", fallback: "+", wantKeys: []string{"="}, wantHelp: "="},
	}
	for _, tc := range cases {
		keys, help := parseBindingKeys(tc.raw, tc.fallback)
		if !slices.Equal(keys, tc.wantKeys) || help != tc.wantHelp {
			t.Fatalf("parseBindingKeys(%q, %q) = %#v %q, want %#v %q", tc.raw, tc.fallback, keys, help, tc.wantKeys, tc.wantHelp)
		}
	}
}

func TestConfigureBindingOverridesOrKeepsAliases(t *testing.T) {
	b := key.NewBinding(key.WithKeys("p", "ctrl+v"), key.WithHelp("p", "old"))
	configureBinding(&b, "p", "p", "paste")
	if got := b.Keys(); !slices.Equal(got, []string{"p", "ctrl+v"}) {
		t.Fatalf("default key should keep aliases, got %#v", got)
	}
	if b.Help().Desc != "paste" {
		t.Fatalf("expected help desc refreshed, got %#v", b.Help())
	}

	configureBinding(&b, "v", "p", "paste")
	if got := b.Keys(); !slices.Equal(got, []string{"v"}) {
		t.Fatalf("unexpected configured keys %#v", got)
	}
	if b.Help().Key != "v" {
		t.Fatalf("unexpected configured help %#v", b.Help())
	}
}

func TestKeyMapApplyConfig(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{Copy: "c", Paste: "v", Edit: "F2", AutoSize: "W", Detail: "i"})

	cases := []struct {
		name    string
		binding key.Binding
		want    []string
	}{
		{name: "copy", binding: k.copy, want: []string{"c"}},
		{name: "paste", binding: k.paste, want: []string{"v"}},
		{name: "edit", binding: k.edit, want: []string{"f2"}},
		{name: "auto size", binding: k.autoSizeCol, want: []string{"W", "shift+w"}},
		{name: "detail", binding: k.recordDetail, want: []string{"i"}},
		{name: "reload", binding: k.reload, want: []string{"r"}},
		{name: "extend down", binding: k.extendDown, want: []string{"shift+down", "J"}},
	}
	for _, tc := range cases {
		if got := tc.binding.Keys(); !slices.Equal(got, tc.want) {
			t.Fatalf("%s keys = %#v, want %#v", tc.name, got, tc.want)
		}
	}
	if k.edit.Help().Key != "F2" {
		t.Fatalf("expected edit help to keep configured text, got %q", k.edit.Help().Key)
	}
}

func TestKeyMapDefaultConfigKeepsClipboardAliases(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{Copy: "y", Paste: "p"})
	if got := k.copy.Keys(); !slices.Equal(got, []string{"y", "ctrl+c"}) {
		t.Fatalf("unexpected copy keys %#v", got)
	}
	if got := k.paste.Keys(); !slices.Equal(got, []string{"p", "ctrl+v"}) {
		t.Fatalf("unexpected paste keys %#v", got)
	}
}

func TestKeyMapHelpGroupsCoverGridActions(t *testing.T) {
	k := newKeyMap()
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
	groups := k.FullHelp()
	if len(groups) != 4 {
		t.Fatalf("expected four help groups, got %d", len(groups))
	}
	var descs []string
	for _, group := range groups {
		for _, b := range group {
			descs = append(descs, b.Help().Desc)
		}
	}
	for _, want := range []string{"copy", "paste", "fit column", "extend down", "record detail"} {
		if !slices.Contains(descs, want) {
			t.Fatalf("expected %q in full help, got %#v", want, descs)
		}
	}
}
