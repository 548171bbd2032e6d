package merge

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/stringsync/stringsfile"
)

func writeStrings(t *testing.T, path, text string) {
	t.Helper()
	data, err := stringsfile.UTF16.Encode(text)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}
}

func readStrings(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile() error: %v", err)
	}
	text, err := stringsfile.UTF16.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	return text
}

func render(base, target string, opts Options) (string, *Result) {
	return Render(stringsfile.SplitLines(base), stringsfile.Parse("target.strings", target), opts)
}

func TestRender_KeepsTranslationsAndFallsBack(t *testing.T) {
	base := "\"hello\" = \"Hello\";\n\"bye\" = \"Bye\";\n"
	target := "\"hello\" = \"Bonjour\";\n"

	got, res := render(base, target, Options{})
	want := "\"hello\" = \"Bonjour\";\n\"bye\" = \"Bye\";\n"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(res.Kept, []string{"hello"}) {
		t.Errorf("Kept = %v, want [hello]", res.Kept)
	}
	if !reflect.DeepEqual(res.Fallback, []string{"bye"}) {
		t.Errorf("Fallback = %v, want [bye]", res.Fallback)
	}
}

func TestRender_PreservesTargetValueOverBase(t *testing.T) {
	base := "\"title\" = \"New title\";\n"
	target := "\"title\" = \"Ancien titre\";\n"
	got, _ := render(base, target, Options{})
	if got != "\"title\" = \"Ancien titre\";\n" {
		t.Fatalf("Render() = %q", got)
	}
}

func TestRender_FollowsBaseOrderAndDropsStaleKeys(t *testing.T) {
	base := "\"a\" = \"A\";\n\"b\" = \"B\";\n\"c\" = \"C\";\n"
	target := "\"c\" = \"c-fr\";\n\"old\" = \"gone\";\n\"a\" = \"a-fr\";\n"

	got, res := render(base, target, Options{})
	want := "\"a\" = \"a-fr\";\n\"b\" = \"B\";\n\"c\" = \"c-fr\";\n"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(res.Dropped, []string{"old"}) {
		t.Errorf("Dropped = %v, want [old]", res.Dropped)
	}
}

func TestRender_CommentPolicy(t *testing.T) {
	base := "/* note */\n\"hello\" = \"Hello\";\n\n// header\n"

	copied, res := render(base, "", Options{})
	if copied != base {
		t.Fatalf("Render(copy) = %q, want %q", copied, base)
	}
	if res.Suppressed != 0 {
		t.Errorf("Suppressed = %d, want 0", res.Suppressed)
	}

	stripped, res := render(base, "", Options{StripComments: true})
	if want := "\"hello\" = \"Hello\";\n// header\n"; stripped != want {
		t.Fatalf("Render(strip) = %q, want %q", stripped, want)
	}
	if res.Suppressed != 2 {
		t.Errorf("Suppressed = %d, want 2", res.Suppressed)
	}
}

func TestRender_LineEndings(t *testing.T) {
	base := "/* c */\r\n\"a\" = \"A\";\r\n\"b\" = \"B\";"
	got, _ := render(base, "\"b\" = \"Bé\";\n", Options{})
	want := "/* c */\r\n\"a\" = \"A\";\r\n\"b\" = \"Bé\";\n"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRender_MalformedLinesPassThrough(t *testing.T) {
	base := "\"broken\" = \"x\"\n\"ok\" = \"OK\";\n"
	got, res := render(base, "\"broken\" = \"y\";\n", Options{})
	if got != "\"broken\" = \"x\"\n\"ok\" = \"OK\";\n" {
		t.Fatalf("Render() = %q", got)
	}
	if !reflect.DeepEqual(res.Dropped, []string{"broken"}) {
		t.Errorf("Dropped = %v, want [broken]", res.Dropped)
	}
}

func TestRender_KeySetFidelity(t *testing.T) {
	base := "/* one */\n\"k1\" = \"v1\";\n\n\"k2\" = \"v2\";\n\"k3\" = \"v3\";\n"
	target := "\"k3\" = \"t3\";\n\"k1\" = \"t1\";\n"

	for _, strip := range []bool{false, true} {
		out, _ := render(base, target, Options{StripComments: strip})

		var keys []string
		for _, ln := range stringsfile.SplitLines(out) {
			if l := stringsfile.Classify(ln.Text); l.Kind == stringsfile.KindData {
				keys = append(keys, l.Key)
			}
		}
		if want := []string{"k1", "k2", "k3"}; !reflect.DeepEqual(keys, want) {
			t.Fatalf("strip=%v: keys = %v, want %v", strip, keys, want)
		}
	}
}

func TestUpdate_Scenario(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "en.strings")
	targetPath := filepath.Join(dir, "fr.strings")
	writeStrings(t, basePath, "\"hello\" = \"Hello\";\n\"bye\" = \"Bye\";\n")
	writeStrings(t, targetPath, "\"hello\" = \"Bonjour\";\n")

	target, err := stringsfile.Load(targetPath, stringsfile.UTF16)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	res, err := Update(target, basePath, Options{})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if !res.Changed || !res.Written {
		t.Errorf("Changed=%v Written=%v, want both true", res.Changed, res.Written)
	}
	if got, want := readStrings(t, targetPath), "\"hello\" = \"Bonjour\";\n\"bye\" = \"Bye\";\n"; got != want {
		t.Fatalf("target = %q, want %q", got, want)
	}
}

func TestUpdate_Idempotent(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "en.strings")
	targetPath := filepath.Join(dir, "de.strings")
	writeStrings(t, basePath, "/* Menu */\n\"File\" = \"File\";\n\n\"Edit\" = \"Edit\";\n")
	writeStrings(t, targetPath, "\"Edit\" = \"Bearbeiten\";\n\"Gone\" = \"Weg\";\n")

	for i := 0; i < 2; i++ {
		target, err := stringsfile.Load(targetPath, stringsfile.UTF16)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if _, err := Update(target, basePath, Options{}); err != nil {
			t.Fatalf("Update() run %d error: %v", i+1, err)
		}
	}
	first, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatal(err)
	}

	target, _ := stringsfile.Load(targetPath, stringsfile.UTF16)
	res, err := Update(target, basePath, Options{})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if res.Changed || res.Written {
		t.Errorf("third run Changed=%v Written=%v, want false", res.Changed, res.Written)
	}
	second, _ := os.ReadFile(targetPath)
	if string(first) != string(second) {
		t.Fatalf("output not stable:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestUpdate_DryRunDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "en.strings")
	targetPath := filepath.Join(dir, "es.strings")
	writeStrings(t, basePath, "\"a\" = \"A\";\n")
	writeStrings(t, targetPath, "\"b\" = \"B\";\n")

	res, err := Update(stringsfile.Parse(targetPath, "\"b\" = \"B\";\n"), basePath, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if !res.Changed || res.Written {
		t.Errorf("Changed=%v Written=%v, want true/false", res.Changed, res.Written)
	}
	if got := readStrings(t, targetPath); got != "\"b\" = \"B\";\n" {
		t.Fatalf("target modified in dry run: %q", got)
	}
}

func TestUpdate_MissingBase(t *testing.T) {
	dir := t.TempDir()
	_, err := Update(stringsfile.NewTable(filepath.Join(dir, "fr.strings")), filepath.Join(dir, "none.strings"), Options{})
	if !errors.Is(err, ErrSourceRead) {
		t.Fatalf("Update() error = %v, want ErrSourceRead", err)
	}
}

func TestUpdate_MissingDirectoryLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "en.strings")
	writeStrings(t, basePath, "\"a\" = \"A\";\n")

	targetPath := filepath.Join(dir, "missing", "fr.strings")
	_, err := Update(stringsfile.NewTable(targetPath), basePath, Options{})
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("Update() error = %v, want ErrWrite", err)
	}
	if _, statErr := os.Stat(filepath.Dir(targetPath)); !os.IsNotExist(statErr) {
		t.Fatalf("directory was created: %v", statErr)
	}
}

func TestUpdate_KeepsFileModeAndCleansTemp(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "en.strings")
	targetPath := filepath.Join(dir, "it.strings")
	writeStrings(t, basePath, "\"a\" = \"A\";\n")
	writeStrings(t, targetPath, "")
	if err := os.Chmod(targetPath, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Update(stringsfile.NewTable(targetPath), basePath, Options{}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	fi, err := os.Stat(targetPath)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", fi.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
