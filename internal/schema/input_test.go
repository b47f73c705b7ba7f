package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submission(participants []any, optional []any, other map[string]any) map[string]any {
	data := map[string]any{
		AttrRequiredParticipants: participants,
		AttrOtherAttributes:      other,
	}
	if optional != nil {
		data[AttrOptionalParticipants] = optional
	}
	return data
}

func person(first, last, email, quota string) map[string]any {
	return map[string]any{"firstname": first, "lastname": last, "email": email, "quota": quota}
}

func consent() map[string]any {
	return map[string]any{"privacy_consent": true}
}

func TestFormRequiresMandatoryFields(t *testing.T) {
	form := compileTest(t).Input.New()
	form.Bind(submission([]any{person("Ann", "", "", "Fuksi")}, nil, map[string]any{}))

	assert.False(t, form.Validate())
	errs := form.Errors()
	assert.Contains(t, errs, "required_participants-0-lastname")
	assert.Contains(t, errs, "required_participants-0-email")
	assert.Contains(t, errs, "other_attributes-privacy_consent")
	assert.NotContains(t, errs, "required_participants-0-firstname")
}

func TestOptionalSlotWithOnlyFirstnameIsIgnored(t *testing.T) {
	types := compileTest(t)
	form := types.Input.New()
	form.Bind(submission(
		[]any{person("Ann", "Lee", "ann@example.com", "Fuksi")},
		[]any{map[string]any{"firstname": "Bob"}},
		consent(),
	))

	require.True(t, form.Validate(), form.Errors())

	opt := form.OptionalParticipants()
	require.Len(t, opt, 2)
	assert.False(t, opt[0].Filled())
	assert.Equal(t, []string{"Fuksi"}, QuotaClaims(form))

	reg, err := types.Storage.FromInput(form, "r1", fixedTime)
	require.NoError(t, err)
	assert.Empty(t, reg.OptionalParticipants())
	assert.Len(t, Participants(reg), 1)
}

func TestFilledOptionalSlotIsValidated(t *testing.T) {
	form := compileTest(t).Input.New()
	form.Bind(submission(
		[]any{person("Ann", "Lee", "ann@example.com", "Fuksi")},
		[]any{nil, map[string]any{"firstname": "Bob", "lastname": "Ek", "email": "not-an-email"}},
		consent(),
	))

	assert.False(t, form.Validate())
	errs := form.Errors()
	assert.Equal(t, []string{"Invalid email address."}, errs["optional_participants-1-email"])
	assert.Contains(t, errs, "optional_participants-1-quota")
	assert.NotContains(t, errs, "optional_participants-0-firstname")
}

func TestChoiceMustBeDeclared(t *testing.T) {
	form := compileTest(t).Input.New()
	form.Bind(submission([]any{person("Ann", "Lee", "ann@example.com", "Hallitus")}, nil, consent()))

	assert.False(t, form.Validate())
	assert.Equal(t, []string{"Not a valid choice."}, form.Errors()["required_participants-0-quota"])
}

func TestListRejectsTooManyEntries(t *testing.T) {
	form := compileTest(t).Input.New()
	form.Bind(submission(
		[]any{person("Ann", "Lee", "ann@example.com", "Fuksi"), person("Bob", "Ek", "bob@example.com", "Fuksi")},
		nil,
		consent(),
	))

	assert.False(t, form.Validate())
	assert.Contains(t, form.Errors(), AttrRequiredParticipants)
}

func TestMaxLength(t *testing.T) {
	form := compileTest(t).Input.New()
	form.Bind(submission([]any{person(strings.Repeat("ä", 51), "Lee", "ann@example.com", "Fuksi")}, nil, consent()))

	assert.False(t, form.Validate())
	assert.Equal(t, []string{"Field cannot be longer than 50 characters."},
		form.Errors()["required_participants-0-firstname"])
}

func TestTextInputNormalizes(t *testing.T) {
	form := compileTest(t).Input.New()
	// "A" followed by a combining diaeresis composes to "Ä".
	form.Bind(submission([]any{person("  A\u0308ni ", "Lee", "ann@example.com", "Fuksi")}, nil, consent()))

	require.True(t, form.Validate(), form.Errors())
	assert.Equal(t, "\u00c4ni", form.RequiredParticipants()[0].Firstname())
}

func TestIntAndDatetimeParsing(t *testing.T) {
	other := append(otherAttrs(),
		Int("age", "Ikä", ""),
		Datetime("arrival", "Saapuminen", "", "2006-01-02 15:04"),
	)
	types, err := Compile(participantAttrs(), nil, other, 1, 0, "ikä")
	require.NoError(t, err)

	form := types.Input.New()
	form.Bind(submission([]any{person("Ann", "Lee", "ann@example.com", "Fuksi")}, nil,
		map[string]any{"privacy_consent": true, "age": "abc", "arrival": "2025-13-01 10:00"}))
	assert.False(t, form.Validate())
	errs := form.Errors()
	assert.Equal(t, []string{"Not a valid int value."}, errs["other_attributes-age"])
	assert.Equal(t, []string{"Not a valid datetime value."}, errs["other_attributes-arrival"])

	form = types.Input.New()
	form.Bind(submission([]any{person("Ann", "Lee", "ann@example.com", "Fuksi")}, nil,
		map[string]any{"privacy_consent": true, "age": float64(23), "arrival": "2025-02-01 10:00"}))
	require.True(t, form.Validate(), form.Errors())
	assert.Equal(t, int64(23), form.OtherAttributes().Get("age").Int())
	assert.Equal(t, 2, int(form.OtherAttributes().Get("arrival").Time().Month()))
}

func TestRequiredIf(t *testing.T) {
	other := append(otherAttrs(),
		Bool("sauna", "Saunaan", ""),
		String("towel", "Pyyhe", "", 20, RequiredIf("sauna", "")),
	)
	types, err := Compile(participantAttrs(), nil, other, 1, 0, "sauna")
	require.NoError(t, err)

	form := types.Input.New()
	form.Bind(submission([]any{person("Ann", "Lee", "ann@example.com", "Fuksi")}, nil,
		map[string]any{"privacy_consent": true, "sauna": true}))
	assert.False(t, form.Validate())
	assert.Contains(t, form.Errors(), "other_attributes-towel")

	form = types.Input.New()
	form.Bind(submission([]any{person("Ann", "Lee", "ann@example.com", "Fuksi")}, nil,
		map[string]any{"privacy_consent": true}))
	assert.True(t, form.Validate(), form.Errors())
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"ann@example.com", true},
		{"ann.lee@sub.example.fi", true},
		{"", true},
		{"ann@localhost", false},
		{"Ann <ann@example.com>", false},
		{"ann", false},
		{"ann@@example.com", false},
	}
	types := compileTest(t)
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			g := types.Input.Group().Elem(AttrRequiredParticipants).New()
			g.Bind(map[string]any{"email": tt.email})
			f, _ := g.Field(AttrEmail)
			assert.Equal(t, tt.valid, ValidEmail()(f, g) == nil)
		})
	}
}

func TestWidgetFor(t *testing.T) {
	few := QuotaChoice([]string{"a", "b", "c", "d"})
	many := QuotaChoice([]string{"a", "b", "c", "d", "e"})
	assert.Equal(t, WidgetRadio, WidgetFor(&few))
	assert.Equal(t, WidgetSelect, WidgetFor(&many))
}

func TestEchoKeepsSubmittedValues(t *testing.T) {
	form := compileTest(t).Input.New()
	form.Bind(submission([]any{person("Ann", "Lee", "bad", "Fuksi")}, nil, consent()))
	require.False(t, form.Validate())

	echo := form.Echo()
	slots := echo[AttrRequiredParticipants].([]any)
	assert.Equal(t, "bad", slots[0].(map[string]any)["email"])
	assert.Equal(t, true, echo[AttrOtherAttributes].(map[string]any)["privacy_consent"])
}
