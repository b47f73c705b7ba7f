package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

func participantAttrs() []Attribute {
	return []Attribute{
		Firstname(Required()),
		Lastname(Required()),
		Email(Required()),
		QuotaChoice([]string{"Fuksi", "Tutor"}, Required()),
	}
}

func optionalAttrs() []Attribute {
	return []Attribute{
		Firstname(Required()),
		Lastname(Required()),
		Email(),
		QuotaChoice([]string{"Fuksi", "Tutor"}, Required()),
	}
}

func otherAttrs() []Attribute {
	return []Attribute{
		Allergies(),
		NameConsent(""),
		PrivacyConsent("", Required()),
	}
}

func compileTest(t *testing.T) *Types {
	t.Helper()
	types, err := Compile(participantAttrs(), optionalAttrs(), otherAttrs(), 1, 2, "sitsit")
	require.NoError(t, err)
	return types
}

func inputNames(g *InputGroupType, prefix string, out *[]string) {
	for _, a := range g.Attributes() {
		*out = append(*out, prefix+a.Name)
		if elem := g.Elem(a.Name); elem != nil {
			inputNames(elem, prefix+a.Name+".", out)
		}
	}
}

func storageNames(r *RecordType, prefix string, out *[]string) {
	for _, c := range r.Columns() {
		*out = append(*out, prefix+c.Name())
		if c.Relation() {
			storageNames(c.Elem, prefix+c.Name()+".", out)
		}
	}
}

func TestCompileInputAndStorageShareNames(t *testing.T) {
	types := compileTest(t)

	var in, st []string
	inputNames(types.Input.Group(), "", &in)
	storageNames(types.Storage.Record(), "", &st)

	assert.Equal(t, in, st)
	assert.Contains(t, in, "required_participants.firstname")
	assert.Contains(t, in, "optional_participants.quota")
	assert.Contains(t, in, "other_attributes.privacy_consent")
}

func TestCompileIsDeterministic(t *testing.T) {
	first := compileTest(t)
	second := compileTest(t)

	assert.Equal(t, first.Input.Describe(), second.Input.Describe())
	assert.Equal(t, first.Storage.Record().Names(), second.Storage.Record().Names())
	assert.Equal(t, []string{AttrRequiredParticipants, AttrOptionalParticipants, AttrOtherAttributes},
		first.Input.Group().Names())
}

func TestCompileDoesNotMutateDescriptors(t *testing.T) {
	required := participantAttrs()
	before := len(required[0].Validators)

	_, err := Compile(required, optionalAttrs(), otherAttrs(), 1, 2, "sitsit")
	require.NoError(t, err)
	_, err = Compile(required, optionalAttrs(), otherAttrs(), 1, 2, "sitsit")
	require.NoError(t, err)

	assert.Len(t, required[0].Validators, before)
}

func TestCompileTableNames(t *testing.T) {
	types := compileTest(t)
	rec := types.Storage.Record()
	assert.Equal(t, "sitsit", rec.Table)

	req, ok := rec.Column(AttrRequiredParticipants)
	require.True(t, ok)
	assert.True(t, req.Many)
	assert.Equal(t, "sitsit_required_participant", req.Elem.Table)

	opt, ok := rec.Column(AttrOptionalParticipants)
	require.True(t, ok)
	assert.Equal(t, "sitsit_optional_participant", opt.Elem.Table)

	other, ok := rec.Column(AttrOtherAttributes)
	require.True(t, ok)
	assert.False(t, other.Many)
	assert.Equal(t, "sitsit_attributes", other.Elem.Table)
}

func TestCompileWithoutOptionalParticipants(t *testing.T) {
	types, err := Compile(participantAttrs(), nil, otherAttrs(), 3, 1, "pubivisa")
	require.NoError(t, err)

	assert.Equal(t, 0, types.OptionalCount)
	assert.False(t, types.Input.New().Has(AttrOptionalParticipants))
	assert.Len(t, types.Input.New().RequiredParticipants(), 3)
}

func TestCompileConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		required []Attribute
		optional []Attribute
		other    []Attribute
		count    int
		want     error
		role     Role
	}{
		{
			name:     "missing firstname",
			required: []Attribute{Lastname(), Email()},
			other:    otherAttrs(),
			count:    1,
			want:     ErrMissingMandatory,
			role:     RoleRequiredParticipant,
		},
		{
			name:     "optional participant missing lastname",
			required: participantAttrs(),
			optional: []Attribute{Firstname(), QuotaChoice([]string{"Fuksi"})},
			other:    otherAttrs(),
			count:    1,
			want:     ErrMissingMandatory,
			role:     RoleOptionalParticipant,
		},
		{
			name:     "missing privacy consent",
			required: participantAttrs(),
			other:    []Attribute{Allergies()},
			count:    1,
			want:     ErrMissingMandatory,
			role:     RoleOtherAttributes,
		},
		{
			name:     "no email anywhere",
			required: []Attribute{Firstname(), Lastname()},
			other:    otherAttrs(),
			count:    1,
			want:     ErrMissingEmail,
		},
		{
			name:     "quota on one role only",
			required: participantAttrs(),
			optional: []Attribute{Firstname(), Lastname()},
			other:    otherAttrs(),
			count:    1,
			want:     ErrQuotaMismatch,
			role:     RoleOptionalParticipant,
		},
		{
			name:     "empty choices",
			required: []Attribute{Firstname(), Lastname(), Email(), DepartureLocation(nil)},
			other:    otherAttrs(),
			count:    1,
			want:     ErrEmptyChoices,
			role:     RoleRequiredParticipant,
		},
		{
			name:     "repeated choice",
			required: []Attribute{Firstname(), Lastname(), Email(), DepartureLocation([]string{"Oulu", "Oulu"})},
			other:    otherAttrs(),
			count:    1,
			want:     ErrInvalidChoices,
			role:     RoleRequiredParticipant,
		},
		{
			name:     "duplicate attribute",
			required: []Attribute{Firstname(), Lastname(), Email(), Email()},
			other:    otherAttrs(),
			count:    1,
			want:     ErrDuplicateAttribute,
			role:     RoleRequiredParticipant,
		},
		{
			name:     "unknown kind",
			required: []Attribute{Firstname(), Lastname(), Email(), {Name: "shoe_size", Kind: Kind(42)}},
			other:    otherAttrs(),
			count:    1,
			want:     ErrInvalidKind,
			role:     RoleRequiredParticipant,
		},
		{
			name:     "datetime without layout",
			required: []Attribute{Firstname(), Lastname(), Email(), Datetime("arrival", "Saapuminen", "", "")},
			other:    otherAttrs(),
			count:    1,
			want:     ErrMissingLayout,
			role:     RoleRequiredParticipant,
		},
		{
			name:     "no required participant slots",
			required: participantAttrs(),
			other:    otherAttrs(),
			count:    0,
			want:     ErrInvalidCount,
			role:     RoleRequiredParticipant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.required, tt.optional, tt.other, tt.count, 1, "broken")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "broken", cfgErr.Form)
			assert.Equal(t, tt.role, cfgErr.Role)
		})
	}
}

func TestCompileNestedListTables(t *testing.T) {
	other := append(otherAttrs(), List("drinks", "Juomat", "", 2, []Attribute{
		String("name", "Juoma", "", 30),
	}))
	types, err := Compile(participantAttrs(), nil, other, 1, 0, "wappu")
	require.NoError(t, err)

	otherCol, _ := types.Storage.Record().Column(AttrOtherAttributes)
	drinks, ok := otherCol.Elem.Column("drinks")
	require.True(t, ok)
	assert.Equal(t, "wappu_attributes_drinks", drinks.Elem.Table)
}

func TestFromInputCopiesValuesByName(t *testing.T) {
	types := compileTest(t)
	form := types.Input.New()
	form.Bind(map[string]any{
		AttrRequiredParticipants: []any{
			map[string]any{"firstname": "Ann", "lastname": "Lee", "email": "ann@example.com", "quota": "Fuksi"},
		},
		AttrOtherAttributes: map[string]any{"privacy_consent": true, "show_name_consent": "on", "allergies": "gluteeni"},
	})
	require.True(t, form.Validate(), form.Errors())

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	reg, err := types.Storage.FromInput(form, "r1", created)
	require.NoError(t, err)

	assert.Equal(t, "r1", reg.ID)
	assert.Equal(t, created, reg.CreatedAt)
	require.Len(t, reg.RequiredParticipants(), 1)
	p := reg.RequiredParticipants()[0]
	assert.Equal(t, "Ann", p.Firstname())
	assert.Equal(t, "Lee", p.Lastname())
	assert.Equal(t, "ann@example.com", p.Email())
	assert.Equal(t, "Fuksi", p.Quota())
	assert.Empty(t, reg.OptionalParticipants())
	assert.True(t, reg.OtherAttributes().PrivacyConsent())
	assert.True(t, reg.OtherAttributes().ShowNameConsent())
	assert.Equal(t, "gluteeni", reg.OtherAttributes().Get(AttrAllergies).Str())
}

func TestRecordRejectsWrongValues(t *testing.T) {
	types := compileTest(t)
	reg := types.Storage.New("r1", time.Now())

	row, err := reg.Record().Append(AttrRequiredParticipants)
	require.NoError(t, err)
	assert.Error(t, row.Set(AttrQuota, ChoiceValue("Hallitus")))
	assert.Error(t, row.Set(AttrFirstname, IntValue(3)))
	assert.Error(t, row.Set("nope", StringValue("x")))
	assert.NoError(t, row.Set(AttrQuota, ChoiceValue("Tutor")))

	_, err = reg.Record().Append(AttrOtherAttributes)
	require.NoError(t, err)
	_, err = reg.Record().Append(AttrOtherAttributes)
	assert.Error(t, err)
}

func TestRequiredSlotsMustBeFilled(t *testing.T) {
	// Names without Required still have to be given in required slots.
	loose := []Attribute{Firstname(), Lastname(), Email()}
	types, err := Compile(loose, loose, otherAttrs(), 2, 1, "visa")
	require.NoError(t, err)

	form := types.Input.New()
	form.Bind(map[string]any{
		AttrRequiredParticipants: []any{
			map[string]any{"firstname": "Ann", "lastname": "Lee", "email": "ann@example.com"},
			map[string]any{"firstname": "Bob"},
		},
		AttrOtherAttributes: map[string]any{"privacy_consent": true},
	})
	assert.False(t, form.Validate())
	errs := form.Errors()
	assert.Equal(t, []string{"This field is required."}, errs["required_participants-1-lastname"])
	assert.NotContains(t, errs, "required_participants-1-firstname")
	assert.NotContains(t, errs, "optional_participants-0-firstname")

	_, err = types.Storage.FromInput(form, "r1", fixedTime)
	assert.Error(t, err)
}
