package form

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lovenotes/anniversary/internal/content"
)

func TestBuildUsesDefaultsOnEmptyDocument(t *testing.T) {
	schema := content.DefaultSchema()
	f := Build(schema, content.Document{})

	require.Len(t, f.Sections, len(schema.Sections))
	require.True(t, f.Sections[0].Open)
	for _, s := range f.Sections[1:] {
		require.False(t, s.Open, s.Title)
	}

	c, ok := f.Control("hero-name-1")
	require.True(t, ok)
	require.Equal(t, "Aashu", c.Value)
	require.Equal(t, "input-hero-name-1", c.Key)
	require.Equal(t, "text", c.InputType)
	require.Empty(t, c.FileKey)

	c, ok = f.Control("hero-scroll-1")
	require.True(t, ok)
	require.Equal(t, "preview-hero-scroll-1", c.Key)
	require.Equal(t, "file-hero-scroll-1", c.FileKey)
	require.Equal(t, "file", c.InputType)

	_, ok = f.Control("missing")
	require.False(t, ok)
}

func TestBuildEditableValues(t *testing.T) {
	schema := content.DefaultSchema()
	doc := content.Document{
		"start-date":  "2022-01-01T09:30:45.000Z",
		"letter-body": "line one<br>line two<BR/>three",
		"hero-name-2": "",
	}
	f := Build(schema, doc)

	c, _ := f.Control("start-date")
	require.Equal(t, "2022-01-01T09:30", c.Value)
	require.Equal(t, "datetime-local", c.InputType)

	c, _ = f.Control("letter-body")
	require.Equal(t, "line one\nline two\nthree", c.Value)
	require.Equal(t, "textarea", c.InputType)

	hero2, _ := schema.Field("hero-name-2")
	c, _ = f.Control("hero-name-2")
	require.Equal(t, hero2.Default, c.Value)
}

func TestCollectSkipsImagesAndAbsentFields(t *testing.T) {
	schema := content.DefaultSchema()
	got := Collect(schema, map[string]string{
		"hero-name-1":   "A",
		"letter-body":   "x\ny",
		"hero-scroll-1": "https://evil.example/should-not-pass.png",
		"unknown":       "ignored",
	})
	require.Equal(t, content.Document{"hero-name-1": "A", "letter-body": "x\ny"}, got)
}
