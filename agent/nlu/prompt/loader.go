package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/extraction.txt
	extractionRaw string

	//go:embed template/generator.txt
	generatorRaw string
)

// PromptSet holds loaded prompt content. Extraction is consumed as an FString
// chat template, so literal braces in its file are doubled; Generator is sent
// verbatim.
type PromptSet struct {
	Extraction string
	Generator  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to call
// concurrently; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Extraction: strings.TrimSpace(extractionRaw),
		Generator:  strings.TrimSpace(generatorRaw),
	}
}
