package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTypeName(t *testing.T) {
	valid := []string{"hero", "rich_text", "BlogList", "a", "nav-bar", "h2o"}
	for _, name := range valid {
		assert.NoError(t, ValidateTypeName(name), "name %q", name)
	}

	invalid := []string{
		"",
		"2cols",
		"_private",
		"has space",
		"semi;colon",
		"path/traverse",
		strings.Repeat("a", 65),
	}
	for _, name := range invalid {
		assert.Error(t, ValidateTypeName(name), "name %q", name)
	}
}

func TestValidateSlug(t *testing.T) {
	valid := []string{"home", "about-us", "2024-recap", "a"}
	for _, slug := range valid {
		assert.NoError(t, ValidateSlug(slug), "slug %q", slug)
	}

	invalid := []string{
		"",
		"Home",
		"-lead",
		"a/b",
		"..",
		"a..b",
		"under_bar",
		strings.Repeat("a", 65),
	}
	for _, slug := range invalid {
		assert.Error(t, ValidateSlug(slug), "slug %q", slug)
	}
}

func TestInspectFragment_CleanFragment(t *testing.T) {
	issues := InspectFragment([]byte(`<section class="block-hero"><h1>Hi</h1><p>Body</p></section>`))
	assert.Empty(t, issues)
}

func TestInspectFragment_EmptyFragment(t *testing.T) {
	assert.Nil(t, InspectFragment(nil))
	assert.Nil(t, InspectFragment([]byte("   \n\t")))
}

func TestInspectFragment_UnclosedTag(t *testing.T) {
	issues := InspectFragment([]byte(`<div><p>dangling</p>`))
	require.NotEmpty(t, issues)

	var tags []string
	for _, issue := range issues {
		tags = append(tags, issue.Tag)
	}
	assert.Contains(t, tags, "div")
}

func TestInspectFragment_DocumentLevelElement(t *testing.T) {
	issues := InspectFragment([]byte(`<body><p>nested document</p></body>`))
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Message, "document-level")
}

func TestInspectFragment_ScriptElement(t *testing.T) {
	issues := InspectFragment([]byte(`<div><script>alert(1)</script></div>`))
	require.NotEmpty(t, issues)
	assert.Equal(t, "script", issues[0].Tag)
}

func TestInspectFragment_VoidElementsBalance(t *testing.T) {
	issues := InspectFragment([]byte(`<figure><img src="/a.png" alt=""><br><hr></figure>`))
	assert.Empty(t, issues)
}

func TestFragmentIssue_String(t *testing.T) {
	withTag := FragmentIssue{Tag: "div", Message: "unclosed tag"}
	assert.Equal(t, "<div>: unclosed tag", withTag.String())

	bare := FragmentIssue{Message: "fragment does not parse: boom"}
	assert.Equal(t, "fragment does not parse: boom", bare.String())
}
