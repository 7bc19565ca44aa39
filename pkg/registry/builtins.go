package registry

// Built-in node types available without any external library.
const (
	TypeContainer = "container"
	TypeText      = "text"
	TypeHeading   = "heading"
	TypeButton    = "button"
	TypeImage     = "image"
	TypeInput     = "input"
	TypeLink      = "link"
	TypeList      = "list"
	TypeIcon      = "icon"
)

// BuiltinCatalogue returns the stock intrinsic entries.
func BuiltinCatalogue() []Entry {
	intrinsic := func(typ, element string, adapter Adapter) Entry {
		return Entry{
			Type:           typ,
			Implementation: Implementation{Name: element, Intrinsic: true},
			Adapter:        adapter,
		}
	}
	return []Entry{
		intrinsic(TypeContainer, "div", Adapter{AcceptsChildren: true}),
		intrinsic(TypeText, "span", Adapter{}),
		intrinsic(TypeHeading, "h2", Adapter{}),
		intrinsic(TypeButton, "button", Adapter{
			Overrides: map[string]any{"type": "button"},
		}),
		intrinsic(TypeImage, "img", Adapter{
			TextProp: "alt",
			PropMap:  map[string]string{"source": "src"},
		}),
		intrinsic(TypeInput, "input", Adapter{
			TextProp: "placeholder",
		}),
		intrinsic(TypeLink, "a", Adapter{
			AcceptsChildren: true,
			PropMap:         map[string]string{"to": "href"},
		}),
		intrinsic(TypeList, "ul", Adapter{AcceptsChildren: true}),
		intrinsic(TypeIcon, "span", Adapter{
			PropMap: map[string]string{"icon": "data-icon"},
		}),
	}
}
