package synth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/quizgenix/internal/quiz"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Version())

	js := c.Templates(quiz.DomainJavaScript, quiz.DifficultyMedium)
	require.NotEmpty(t, js)
	for _, d := range quiz.AllDomains() {
		for _, diff := range quiz.AllDifficulties() {
			for _, tpl := range c.Templates(d, diff) {
				assert.NoError(t, tpl.Validate())
			}
		}
	}
}

func TestCatalogMissingPairIsEmpty(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	got := c.Templates(quiz.DomainGeneric, quiz.DifficultyHard)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCatalogReturnsCopies(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	first := c.Templates(quiz.DomainPython, quiz.DifficultyEasy)
	first[0].Options[0] = "mutated"
	first[0].Prompt = "mutated"

	again := c.Templates(quiz.DomainPython, quiz.DifficultyEasy)
	assert.NotEqual(t, "mutated", again[0].Options[0])
	assert.NotEqual(t, "mutated", again[0].Prompt)
}

func TestLoadCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing version", `{"entries": []}`},
		{"unknown domain", `{"version":"1","entries":[{"domain":"astrology","difficulty":"easy","templates":[]}]}`},
		{"three options", `{"version":"1","entries":[{"domain":"python","difficulty":"easy","templates":[
			{"prompt":"p","options":["a","b","c"],"correct_index":0,"explanation":""}]}]}`},
		{"index out of range", `{"version":"1","entries":[{"domain":"python","difficulty":"easy","templates":[
			{"prompt":"p","options":["a","b","c","d"],"correct_index":4,"explanation":""}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	doc := `{"version":"test-1","entries":[{"domain":"generic","difficulty":"easy","templates":[
		{"prompt":"Pick b","options":["a","b","c","d"],"correct_index":1,"explanation":"b it is"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test-1", c.Version())
	got := c.Templates(quiz.DomainGeneric, quiz.DifficultyEasy)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].CorrectIndex)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
