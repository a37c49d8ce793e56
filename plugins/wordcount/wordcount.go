// plugins/wordcount/wordcount.go
package wordcount

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bethropolis/tandem/internal/plugin"
)

// Ensure WordCount implements plugin.Plugin
var _ plugin.Plugin = (*WordCount)(nil)

// WordCount is a simple plugin to count lines, words, and characters.
type WordCount struct {
	api plugin.EditorAPI
}

// New creates a new instance of the WordCount plugin.
func New() *WordCount {
	return &WordCount{}
}

// Name returns the unique name of the plugin.
func (p *WordCount) Name() string {
	return "wordcount"
}

// Initialize registers the wc command.
func (p *WordCount) Initialize(api plugin.EditorAPI) error {
	p.api = api
	if err := api.RegisterCommand("wc", p.executeWordCount); err != nil {
		return fmt.Errorf("failed to register 'wc' command: %w", err)
	}
	return nil
}

// Shutdown performs cleanup (nothing needed for this simple plugin).
func (p *WordCount) Shutdown() error {
	return nil
}

// Stats holds the counts the wc command reports.
type Stats struct {
	Lines int
	Words int
	Chars int
}

// Count computes the statistics of content. An empty document has no lines.
func Count(content string) Stats {
	if content == "" {
		return Stats{}
	}
	return Stats{
		Lines: strings.Count(content, "\n") + 1,
		Words: len(strings.Fields(content)),
		Chars: utf8.RuneCountInString(content),
	}
}

// executeWordCount is the function called when the wc command runs.
func (p *WordCount) executeWordCount(args []string) error {
	if p.api == nil {
		return fmt.Errorf("wordcount plugin not initialized with API")
	}
	stats := Count(p.api.Content())
	p.api.SetStatusMessage("Lines: %d, Words: %d, Chars: %d", stats.Lines, stats.Words, stats.Chars)
	return nil
}
