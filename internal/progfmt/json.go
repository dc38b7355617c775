package progfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"quill/internal/ast"
	"quill/internal/source"
)

// SpanJSON is a byte range in the snapshot's source text.
type SpanJSON struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// NodeOutput is one node of the structural JSON form. Kind-specific
// detail goes into Fields as rendered text, so consumers get the
// program shape without re-implementing term notation.
type NodeOutput struct {
	Type     string         `json:"type"`
	Kind     string         `json:"kind,omitempty"`
	Span     *SpanJSON      `json:"span,omitempty"`
	Text     string         `json:"text,omitempty"`
	Children []NodeOutput   `json:"children,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

func spanJSON(s source.Span) *SpanJSON {
	if s == (source.Span{}) {
		return nil
	}
	return &SpanJSON{Start: s.Start, End: s.End}
}

// JSON prints the program as one structural JSON document: a Program
// root with one child node per item, in program order.
func JSON(w io.Writer, prog *ast.Program, in *source.Interner) error {
	if prog == nil {
		return fmt.Errorf("nil program")
	}

	var children []NodeOutput
	for _, it := range prog.Items {
		children = append(children, itemNode(in, it))
	}

	output := NodeOutput{
		Type:     "Program",
		Children: children,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func itemNode(in *source.Interner, it ast.Item) NodeOutput {
	node := NodeOutput{
		Type: "Item",
		Kind: it.Kind.String(),
		Span: spanJSON(itemSpan(it)),
		Text: itemText(in, it),
	}

	switch it.Kind {
	case ast.ItemStruct:
		if s, ok := it.Data.(*ast.StructDefn); ok && s != nil {
			node.Fields = structFields(in, s)
		}
	case ast.ItemTrait:
		if t, ok := it.Data.(*ast.TraitDefn); ok && t != nil {
			node.Fields = traitFields(in, t)
		}
	case ast.ItemImpl:
		if im, ok := it.Data.(*ast.Impl); ok && im != nil {
			node.Fields = implFields(in, im)
		}
	case ast.ItemClause:
		if c, ok := it.Data.(*ast.Clause); ok && c != nil {
			node.Fields = clauseFields(in, c)
		}
	}

	return node
}

func structFields(in *source.Interner, s *ast.StructDefn) map[string]any {
	fields := map[string]any{
		"name": name(in, s.Name.Name),
	}
	if names := binderNames(in, s.Params); len(names) > 0 {
		fields["params"] = names
	}
	if fl := structFlagNames(s.Flags); len(fl) > 0 {
		fields["flags"] = fl
	}
	if texts := whereTexts(in, s.Where); len(texts) > 0 {
		fields["where"] = texts
	}
	if len(s.Fields) > 0 {
		items := make([]map[string]any, len(s.Fields))
		for i, f := range s.Fields {
			items[i] = map[string]any{
				"name": name(in, f.Name.Name),
				"ty":   tyString(in, f.Ty),
			}
		}
		fields["fields"] = items
	}
	return fields
}

func traitFields(in *source.Interner, t *ast.TraitDefn) map[string]any {
	fields := map[string]any{
		"name": name(in, t.Name.Name),
	}
	if names := binderNames(in, t.Params); len(names) > 0 {
		fields["params"] = names
	}
	if fl := traitFlagNames(t.Flags); len(fl) > 0 {
		fields["flags"] = fl
	}
	if texts := whereTexts(in, t.Where); len(texts) > 0 {
		fields["where"] = texts
	}
	if len(t.AssocTys) > 0 {
		items := make([]map[string]any, len(t.AssocTys))
		for i, a := range t.AssocTys {
			assoc := map[string]any{
				"name": name(in, a.Name.Name),
			}
			if names := binderNames(in, a.Params); len(names) > 0 {
				assoc["params"] = names
			}
			if len(a.Bounds) > 0 {
				bounds := make([]string, len(a.Bounds))
				for j, bd := range a.Bounds {
					bounds[j] = boundString(in, bd)
				}
				assoc["bounds"] = bounds
			}
			if texts := whereTexts(in, a.Where); len(texts) > 0 {
				assoc["where"] = texts
			}
			items[i] = assoc
		}
		fields["assocTys"] = items
	}
	return fields
}

func implFields(in *source.Interner, im *ast.Impl) map[string]any {
	ref := im.TraitRef.TraitRef
	self, rest := selfSplit(in, ref.Args)
	fields := map[string]any{
		"polarity": im.TraitRef.Polarity.String(),
		"trait":    name(in, ref.Trait.Name),
		"self":     self,
	}
	if len(rest) > 0 {
		texts := make([]string, len(rest))
		for i, a := range rest {
			texts[i] = paramString(in, a)
		}
		fields["traitArgs"] = texts
	}
	if names := binderNames(in, im.Params); len(names) > 0 {
		fields["params"] = names
	}
	if texts := whereTexts(in, im.Where); len(texts) > 0 {
		fields["where"] = texts
	}
	if len(im.AssocTyValues) > 0 {
		items := make([]map[string]any, len(im.AssocTyValues))
		for i, v := range im.AssocTyValues {
			value := map[string]any{
				"name":  name(in, v.Name.Name),
				"value": tyString(in, v.Value),
			}
			if names := binderNames(in, v.Params); len(names) > 0 {
				value["params"] = names
			}
			items[i] = value
		}
		fields["assocTyValues"] = items
	}
	return fields
}

func clauseFields(in *source.Interner, c *ast.Clause) map[string]any {
	fields := map[string]any{
		"consequence": domainGoalString(in, c.Consequence),
	}
	if names := binderNames(in, c.Params); len(names) > 0 {
		fields["params"] = names
	}
	if len(c.Conditions) > 0 {
		texts := make([]string, len(c.Conditions))
		for i, g := range c.Conditions {
			texts[i] = goalString(in, g)
		}
		fields["conditions"] = texts
	}
	return fields
}
