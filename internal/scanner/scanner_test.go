package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func relPaths(t *testing.T, root string, files []FileInfo) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			t.Fatal(err)
		}
		out[filepath.ToSlash(rel)] = f.Language
	}
	return out
}

func TestScannerScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"reduce.cl":            "__kernel void k() {}",
		"common/util.clh":      "int f();",
		"host/main.c":          "int main() {}",
		"host/main.h":          "#pragma once",
		"README.md":            "# Test",
		".hidden/skip.cl":      "",
		"build/gen.cl":         "",
		".git/objects/x.cl":    "",
		"node_modules/a/b.c":   "",
		"scripts/run.py":       "print()",
		"kernels/Upper.CL":     "",
		"kernels/nested/k.ocl": "",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	expected := map[string]string{
		"reduce.cl":        "opencl",
		"common/util.clh":  "opencl",
		"host/main.c":      "c",
		"host/main.h":      "c",
		"kernels/Upper.CL": "opencl",
	}
	got := relPaths(t, tmpDir, results)
	if len(got) != len(expected) {
		t.Errorf("found %v, want %v", got, expected)
	}
	for path, lang := range expected {
		if got[path] != lang {
			t.Errorf("Expected %s with language %q, got %q", path, lang, got[path])
		}
	}
}

func TestScannerWithIgnoreFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".idbranchignore":         "# generated code\ngen/\n*_test.cl\n!keep_test.cl\n/top.cl\n",
		"gen/a.cl":                "",
		"src/gen/b.cl":            "",
		"src/top.cl":              "",
		"top.cl":                  "",
		"k_test.cl":               "",
		"keep_test.cl":            "",
		"src/main.cl":             "",
		"lib/.idbranchignore":     "skip.cl\n",
		"lib/skip.cl":             "",
		"lib/deep/skip.cl":        "",
		"other/skip.cl":           "",
		"lib/deep/keep.cl":        "",
		"src/gen.cl/not_a_dir.cl": "",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	got := relPaths(t, tmpDir, results)

	for _, want := range []string{"src/top.cl", "keep_test.cl", "src/main.cl", "other/skip.cl", "lib/deep/keep.cl", "src/gen.cl/not_a_dir.cl"} {
		if _, ok := got[want]; !ok {
			t.Errorf("Expected to find %s", want)
		}
	}
	for _, skip := range []string{"gen/a.cl", "src/gen/b.cl", "top.cl", "k_test.cl", "lib/skip.cl", "lib/deep/skip.cl"} {
		if _, ok := got[skip]; ok {
			t.Errorf("Expected %s to be ignored", skip)
		}
	}
}

func TestCollect(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"b.cl":         "",
		"a/x.cl":       "",
		"kernel.txt":   "",
		"a/ignored.md": "",
	})

	explicit := filepath.Join(tmpDir, "kernel.txt")
	files, err := New(DefaultOptions()).Collect([]string{tmpDir, explicit, filepath.Join(tmpDir, "b.cl")})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	var paths []string
	for _, f := range files {
		rel, _ := filepath.Rel(tmpDir, f.Path)
		paths = append(paths, filepath.ToSlash(rel))
	}
	want := []string{"a/x.cl", "b.cl", "kernel.txt"}
	if len(paths) != len(want) {
		t.Fatalf("Collect() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("Collect()[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
	if files[2].Language != LanguageOpenCL {
		t.Errorf("explicit file language = %q, want opencl", files[2].Language)
	}

	if _, err := New(DefaultOptions()).Collect([]string{filepath.Join(tmpDir, "missing")}); err == nil {
		t.Error("expected error for missing argument")
	}
}

func TestIgnorePatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		isDir   bool
		want    bool
	}{
		{"*.cl", "a.cl", false, true},
		{"*.cl", "dir/a.cl", false, true},
		{"*.cl", "a.c", false, false},
		{"gen/", "gen", true, true},
		{"gen/", "gen", false, false},
		{"gen/", "x/gen/a.cl", false, true},
		{"/gen", "x/gen", true, false},
		{"/gen", "gen/a.cl", false, true},
		{"a/b.cl", "a/b.cl", false, true},
		{"a/b.cl", "x/a/b.cl", false, false},
		{"**/b.cl", "x/y/b.cl", false, true},
		{"a/**/c.cl", "a/c.cl", false, true},
		{"a/**/c.cl", "a/x/y/c.cl", false, true},
		{"k?.cl", "k1.cl", false, true},
		{"k[12].cl", "k3.cl", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.path, func(t *testing.T) {
			p := ParseIgnorePattern(tt.pattern)
			if got := p.Match(tt.path, tt.isDir); got != tt.want {
				t.Errorf("ParseIgnorePattern(%q).Match(%q, %v) = %v, want %v", tt.pattern, tt.path, tt.isDir, got, tt.want)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		".cl":  "opencl",
		".CL":  "opencl",
		".clh": "opencl",
		".c":   "c",
		".h":   "c",
		".go":  "",
	}
	for ext, want := range tests {
		if got := DetectLanguage(ext); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", ext, got, want)
		}
	}
	if got := LanguageOf("kernel.txt"); got != LanguageOpenCL {
		t.Errorf("LanguageOf(kernel.txt) = %q", got)
	}
}
