package keyvalues

import (
	"errors"
	"testing"
)

const libraryFolders = `"libraryfolders"
{
	"0"
	{
		"path"		"C:\\Program Files (x86)\\Steam"
		"label"		""
		"apps"
		{
			"730"		"35284012"
		}
	}
	// secondary drive
	"1"
	{
		"path"		"D:\\SteamLibrary"
	}
}
`

func TestParseLibraryFolders(t *testing.T) {
	root, err := Parse(libraryFolders)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if root.Key != "libraryfolders" || !root.IsSection() {
		t.Fatalf("root = %q section=%v", root.Key, root.IsSection())
	}
	if len(root.Children) != 2 {
		t.Fatalf("got %d folders, want 2", len(root.Children))
	}

	if got := root.Child("0").String("path"); got != `C:\Program Files (x86)\Steam` {
		t.Errorf("path = %q", got)
	}
	if got := root.Child("0").Child("apps").String("730"); got != "35284012" {
		t.Errorf("apps/730 = %q", got)
	}
	if got := root.Child("1").String("PATH"); got != `D:\SteamLibrary` {
		t.Errorf("case-insensitive path = %q", got)
	}
	if root.Child("2") != nil {
		t.Error("expected nil for missing child")
	}
	if got := root.Child("2").String("path"); got != "" {
		t.Errorf("missing child value = %q", got)
	}
}

func TestParseUnquotedAndConditionals(t *testing.T) {
	root, err := Parse(`AppState {
	appid 730
	name "Counter-Strike 2"
	installdir "Counter-Strike Global Offensive" [$WIN32]
}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := map[string]string{
		"appid":      "730",
		"name":       "Counter-Strike 2",
		"installdir": "Counter-Strike Global Offensive",
	}
	for key, want := range tests {
		if got := root.String(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"unclosed section", `"a" { "b" "c"`},
		{"unterminated string", `"a" "b`},
		{"missing value", `"a"`},
		{"stray brace", `{ }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); !errors.Is(err, ErrSyntax) {
				t.Errorf("got %v, want ErrSyntax", err)
			}
		})
	}
}
