package schema

// The compiler feeds every descriptor through two independent factories:
// one produces the input-side field, the other the storage-side column.
// Both are looked up by kind in the same table so a kind cannot be known
// to one side only.

type inputFactory func(a *Attribute, elem *InputGroupType) (func() InputField, error)

type storageFactory func(a *Attribute, elem *RecordType) (*ColumnSpec, error)

type kindFactories struct {
	input   inputFactory
	storage storageFactory
}

var factories = map[Kind]kindFactories{
	KindString:   {input: makeTextInput, storage: makeColumn(KindString)},
	KindInt:      {input: makeTextInput, storage: makeColumn(KindInt)},
	KindBool:     {input: makeCheckboxInput, storage: makeColumn(KindBool)},
	KindDatetime: {input: makeTextInput, storage: makeColumn(KindDatetime)},
	KindChoice:   {input: makeChoiceInput, storage: makeColumn(KindChoice)},
	KindList:     {input: makeListInput, storage: makeRelation(true)},
	KindObject:   {input: makeObjectInput, storage: makeRelation(false)},
}

func makeTextInput(a *Attribute, _ *InputGroupType) (func() InputField, error) {
	if a.Kind == KindString && a.MaxLength > 0 {
		a.Validators = append([]Validator{MaxLength(a.MaxLength)}, a.Validators...)
	}
	if a.Kind == KindDatetime && a.Layout == "" {
		return nil, ErrMissingLayout
	}
	return func() InputField {
		f := &textInput{fieldBase: fieldBase{attr: a}}
		f.Bind(nil)
		return f
	}, nil
}

func makeCheckboxInput(a *Attribute, _ *InputGroupType) (func() InputField, error) {
	return func() InputField {
		return &checkboxInput{fieldBase: fieldBase{attr: a}}
	}, nil
}

func makeChoiceInput(a *Attribute, _ *InputGroupType) (func() InputField, error) {
	if len(a.Choices) == 0 {
		return nil, ErrEmptyChoices
	}
	seen := make(map[string]bool, len(a.Choices))
	for _, c := range a.Choices {
		if c == "" || seen[c] {
			return nil, ErrInvalidChoices
		}
		seen[c] = true
	}
	widget := WidgetFor(a)
	return func() InputField {
		return &choiceInput{fieldBase: fieldBase{attr: a}, widget: widget}
	}, nil
}

func makeListInput(a *Attribute, elem *InputGroupType) (func() InputField, error) {
	if a.Count < 0 {
		return nil, ErrInvalidCount
	}
	return func() InputField {
		f := &listInput{fieldBase: fieldBase{attr: a}, slots: make([]*InputGroup, a.Count)}
		for i := range f.slots {
			f.slots[i] = elem.New()
		}
		return f
	}, nil
}

func makeObjectInput(a *Attribute, elem *InputGroupType) (func() InputField, error) {
	return func() InputField {
		return &objectInput{fieldBase: fieldBase{attr: a}, group: elem.New()}
	}, nil
}

func makeColumn(kind Kind) storageFactory {
	return func(a *Attribute, _ *RecordType) (*ColumnSpec, error) {
		spec := &ColumnSpec{Attr: a, Kind: kind, Length: a.MaxLength}
		spec.newColumn = func(s *ColumnSpec) Column {
			base := columnBase{spec: s, value: Value{kind: kind}}
			switch kind {
			case KindString:
				return &stringColumn{base}
			case KindInt:
				return &intColumn{base}
			case KindBool:
				return &boolColumn{base}
			case KindDatetime:
				return &timeColumn{base}
			default:
				return &choiceColumn{base}
			}
		}
		return spec, nil
	}
}

func makeRelation(many bool) storageFactory {
	return func(a *Attribute, elem *RecordType) (*ColumnSpec, error) {
		spec := &ColumnSpec{Attr: a, Kind: a.Kind, Elem: elem, Many: many}
		spec.newColumn = func(s *ColumnSpec) Column {
			return &relationColumn{spec: s}
		}
		return spec, nil
	}
}
