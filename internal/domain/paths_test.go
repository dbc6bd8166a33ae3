package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty degrades to root", input: "", expected: "/"},
		{name: "whitespace degrades to root", input: "   ", expected: "/"},
		{name: "plain path unchanged", input: "/home/user", expected: "/home/user"},
		{name: "trailing slash trimmed", input: "/home/user/", expected: "/home/user"},
		{name: "root keeps its slash", input: "/", expected: "/"},
		{name: "duplicate slashes collapse", input: "/home//user///docs", expected: "/home/user/docs"},
		{name: "backslashes convert", input: `C:\Users\demo`, expected: "C:/Users/demo"},
		{name: "bare drive letter gets slash", input: "C:", expected: "C:/"},
		{name: "drive root trailing slash kept", input: "C:/", expected: "C:/"},
		{name: "mixed separators", input: `C:\Users/demo\photos`, expected: "C:/Users/demo/photos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePath(tt.input))
		})
	}
}

func TestNormalizePathIdempotent(t *testing.T) {
	inputs := []string{
		"", "   ", "/", "/home/user", "/home/user/", "/home//user///docs",
		`C:\Users\demo`, "C:", "C:/", `C:\Users/demo\photos`, "orphan",
	}
	for _, input := range inputs {
		once := NormalizePath(input)
		assert.Equal(t, once, NormalizePath(once), "re-normalizing %q", input)
	}
}

func TestNormalizePathEquivalentSpellings(t *testing.T) {
	// Paths differing only in separator style or trailing slash address
	// the same overlay entry.
	groups := [][]string{
		{"/a/b", "/a/b/", `\a\b`, "/a//b"},
		{"C:/Users", `C:\Users`, "C:/Users/", `C:\\Users\`},
		{"/", "//", `\`},
	}
	for _, group := range groups {
		canonical := NormalizePath(group[0])
		for _, spelling := range group[1:] {
			assert.Equal(t, canonical, NormalizePath(spelling), "spelling %q", spelling)
		}
	}
}

func TestIsRoot(t *testing.T) {
	assert.True(t, IsRoot("/"))
	assert.True(t, IsRoot("C:/"))
	assert.True(t, IsRoot("C:"))
	assert.True(t, IsRoot("c:\\"))
	assert.False(t, IsRoot("/home"))
	assert.False(t, IsRoot("C:/Users"))
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "/home/user/docs", expected: "/home/user"},
		{input: "/home", expected: "/"},
		{input: "/", expected: "/"},
		{input: "C:/Users/demo", expected: "C:/Users"},
		{input: "C:/Users", expected: "C:/"},
		{input: "C:/", expected: "C:/"},
		{input: "orphan", expected: "/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParentPath(tt.input), "parent of %s", tt.input)
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "docs", BaseName("/home/user/docs"))
	assert.Equal(t, "docs", BaseName("/home/user/docs/"))
	assert.Equal(t, "", BaseName("/"))
	assert.Equal(t, "", BaseName("C:/"))
	assert.Equal(t, "demo", BaseName("C:/Users/demo"))
}

func TestExtensionOf(t *testing.T) {
	assert.Equal(t, "jpg", ExtensionOf("photo.JPG"))
	assert.Equal(t, "gz", ExtensionOf("archive.tar.gz"))
	assert.Equal(t, "", ExtensionOf("README"))
	assert.Equal(t, "", ExtensionOf(".bashrc"))
	assert.Equal(t, "", ExtensionOf("trailing."))
}

func TestIsMediaExtension(t *testing.T) {
	assert.True(t, IsMediaExtension("jpg"))
	assert.True(t, IsMediaExtension("WEBP"))
	assert.True(t, IsMediaExtension("mp4"))
	assert.False(t, IsMediaExtension("txt"))
	assert.False(t, IsMediaExtension(""))
}
