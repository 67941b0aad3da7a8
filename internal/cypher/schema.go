package cypher

import (
	"errors"
	"fmt"

	executor "github.com/hanpama/neograph/internal/executor"
	language "github.com/hanpama/neograph/internal/language"
	schema "github.com/hanpama/neograph/internal/schema"
)

// BuildSchema parses sdl, declares the mapping directives it does not declare
// itself, augments it per cfg and returns an executable schema. Root fields
// are resolved through fetcher; all other fields read the projections root
// fields return. Customizers run in order on the runtime wiring.
func BuildSchema(sdl string, cfg SchemaConfig, fetcher DataFetcher, customizers ...func(*Wiring)) (executor.ExecutableSchema, error) {
	if fetcher == nil {
		return executor.ExecutableSchema{}, errors.New("cypher: nil data fetcher")
	}
	s, err := loadSchema(sdl, cfg)
	if err != nil {
		return executor.ExecutableSchema{}, err
	}
	model, err := schema.BuildFromAST(s, schema.RootFieldsAsync(s))
	if err != nil {
		return executor.ExecutableSchema{}, err
	}
	w := newWiring()
	for _, c := range customizers {
		c(w)
	}
	return executor.ExecutableSchema{
		Schema:  model,
		Runtime: NewRuntime(model, fetcher, w),
	}, nil
}

func loadSchema(sdl string, cfg SchemaConfig) (*language.SchemaAST, error) {
	const name = "schema.graphqls"
	doc, err := language.ParseSchema(name, sdl)
	if err != nil {
		return nil, err
	}
	var sources []*language.Source
	if decl := declarationsFor(doc); decl != "" {
		sources = append(sources, &language.Source{Name: "directives.graphqls", Input: decl})
	}
	sources = append(sources, &language.Source{Name: name, Input: sdl})
	if generated := augment(doc, cfg); generated != "" {
		sources = append(sources, &language.Source{Name: "augmented.graphqls", Input: generated})
	}
	s, err := language.LoadSchema(sources...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return s, nil
}
