package schema

// FieldInfo describes one input field for rendering.
type FieldInfo struct {
	Name    string      `json:"name"`
	Label   string      `json:"label"`
	Kind    string      `json:"kind"`
	Widget  Widget      `json:"widget,omitempty"`
	Choices []string    `json:"choices,omitempty"`
	Count   int         `json:"count,omitempty"`
	Layout  string      `json:"layout,omitempty"`
	Fields  []FieldInfo `json:"fields,omitempty"`
}

// Describe returns the rendering description of the event form.
func (t *InputType) Describe() []FieldInfo {
	return describeGroup(t.group)
}

func describeGroup(g *InputGroupType) []FieldInfo {
	out := make([]FieldInfo, 0, len(g.attrs))
	for _, a := range g.attrs {
		info := FieldInfo{
			Name:   a.Name,
			Label:  a.Label,
			Kind:   a.Kind.String(),
			Layout: a.Layout,
		}
		switch a.Kind {
		case KindChoice:
			info.Widget = WidgetFor(a)
			info.Choices = append([]string(nil), a.Choices...)
		case KindList:
			info.Count = a.Count
		}
		if elem := g.Elem(a.Name); elem != nil {
			info.Fields = describeGroup(elem)
		}
		out = append(out, info)
	}
	return out
}
