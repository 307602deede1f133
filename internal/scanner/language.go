package scanner

import (
	"path/filepath"
	"strings"
)

// Languages understood by the frontend.
const (
	LanguageOpenCL = "opencl"
	LanguageC      = "c"
)

// languageMap maps file extensions to source languages.
var languageMap = map[string]string{
	".cl":  LanguageOpenCL,
	".clh": LanguageOpenCL,
	".ocl": LanguageOpenCL,
	".c":   LanguageC,
	".h":   LanguageC,
}

// DetectLanguage returns the language for a given file extension.
// Returns empty string if the extension is not recognized.
func DetectLanguage(ext string) string {
	return languageMap[strings.ToLower(ext)]
}

// LanguageOf returns the language of path, defaulting to OpenCL for
// files named explicitly with an unknown extension.
func LanguageOf(path string) string {
	if lang := DetectLanguage(filepath.Ext(path)); lang != "" {
		return lang
	}
	return LanguageOpenCL
}
