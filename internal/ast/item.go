package ast

// ItemKind discriminates top-level items.
type ItemKind uint8

const (
	// ItemStruct is a struct declaration.
	ItemStruct ItemKind = iota
	// ItemTrait is a trait declaration.
	ItemTrait
	// ItemImpl is a trait implementation.
	ItemImpl
	// ItemClause is a free-standing rule added to the logic directly.
	ItemClause
)

func (k ItemKind) String() string {
	switch k {
	case ItemStruct:
		return "Struct"
	case ItemTrait:
		return "Trait"
	case ItemImpl:
		return "Impl"
	case ItemClause:
		return "Clause"
	default:
		return "Unknown"
	}
}

// Item is one top-level declaration. Payloads are pointers so large
// declaration bodies are not copied through the item list.
type Item struct {
	Kind ItemKind
	Data ItemData
}

// ItemData is the payload of an Item: *StructDefn, *TraitDefn, *Impl
// or *Clause.
type ItemData interface {
	itemData()
}

func (it Item) Equal(other Item) bool {
	if it.Kind != other.Kind {
		return false
	}
	switch it.Kind {
	case ItemStruct:
		a, aok := it.Data.(*StructDefn)
		b, bok := other.Data.(*StructDefn)
		return aok && bok && a.Equal(b)
	case ItemTrait:
		a, aok := it.Data.(*TraitDefn)
		b, bok := other.Data.(*TraitDefn)
		return aok && bok && a.Equal(b)
	case ItemImpl:
		a, aok := it.Data.(*Impl)
		b, bok := other.Data.(*Impl)
		return aok && bok && a.Equal(b)
	case ItemClause:
		a, aok := it.Data.(*Clause)
		b, bok := other.Data.(*Clause)
		return aok && bok && a.Equal(b)
	default:
		return false
	}
}

// StructItem wraps a struct declaration as an item.
func StructItem(s *StructDefn) Item { return Item{Kind: ItemStruct, Data: s} }

// TraitItem wraps a trait declaration as an item.
func TraitItem(t *TraitDefn) Item { return Item{Kind: ItemTrait, Data: t} }

// ImplItem wraps an impl as an item.
func ImplItem(im *Impl) Item { return Item{Kind: ItemImpl, Data: im} }

// ClauseItem wraps a free-standing rule as an item.
func ClauseItem(c *Clause) Item { return Item{Kind: ItemClause, Data: c} }

// Program is an ordered sequence of items. Order is preserved exactly
// as given; no reordering or grouping happens at this layer.
type Program struct {
	Items []Item
}

func (p *Program) Equal(other *Program) bool {
	if len(p.Items) != len(other.Items) {
		return false
	}
	for i := range p.Items {
		if !p.Items[i].Equal(other.Items[i]) {
			return false
		}
	}
	return true
}
