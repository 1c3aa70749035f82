package syntax

import (
	"errors"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"typewalk/internal/observability"
)

// Parser turns Python source into the statement/expression trees the class
// model consumes.
type Parser struct {
	language *sitter.Language
}

func NewParser() *Parser {
	return &Parser{
		language: sitter.NewLanguage(tree_sitter_python.Language()),
	}
}

// ParseFile parses one source file into a Module.
func (p *Parser) ParseFile(path string, content []byte) (*Module, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues("python").Observe(time.Since(start).Seconds())
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.language)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.New("parse failed")
	}
	defer tree.Close()

	e := &extractor{source: content, path: path}
	root := tree.RootNode()

	mod := &Module{
		position: position{span: e.spanOf(root)},
		Path:     path,
	}
	mod.Body = e.block(root)
	return mod, nil
}
