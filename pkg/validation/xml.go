package validation

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// XMLValidator checks that a candidate is one well-formed XML document, optionally with a
// required root element name.
type XMLValidator struct {
	root string
}

// NewXMLValidator creates a validator. An empty root accepts any root element.
func NewXMLValidator(root string) *XMLValidator {
	return &XMLValidator{root: strings.TrimSpace(root)}
}

// Validate tokenizes the whole document.
func (v *XMLValidator) Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.ValidationOutcome{}, err
	}
	if msg := v.check(candidate); msg != "" {
		return domain.ValidationOutcome{ErrorMessage: msg}, nil
	}
	return domain.ValidationOutcome{Passed: true}, nil
}

func (v *XMLValidator) check(candidate string) string {
	dec := xml.NewDecoder(strings.NewReader(candidate))
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "malformed XML: " + err.Error()
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return fmt.Sprintf("malformed XML: multiple root elements (second is <%s>)", t.Name.Local)
				}
				if v.root != "" && t.Name.Local != v.root {
					return fmt.Sprintf("unexpected root element <%s>, want <%s>", t.Name.Local, v.root)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(strings.TrimSpace(string(t))) > 0 {
				return "malformed XML: text outside the root element"
			}
		}
	}
	if roots == 0 {
		return "malformed XML: no root element"
	}
	return ""
}
