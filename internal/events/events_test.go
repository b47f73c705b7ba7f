package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouluntietoteekkarit/ilmo/internal/i18n"
	"github.com/ouluntietoteekkarit/ilmo/internal/model"
	"github.com/ouluntietoteekkarit/ilmo/internal/repository"
	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

func helsinki(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)
	return loc
}

func TestAllEventsBuild(t *testing.T) {
	reg, err := NewRegistry(helsinki(t), All()...)
	require.NoError(t, err)

	var ids []string
	for _, m := range reg.Modules() {
		ids = append(ids, m.ID)
		assert.Equal(t, m.ID, m.Types.Form)
	}
	assert.Equal(t, []string{"pitsakalja", "pubivisa", "humanoori_sitsit", "fuksisitsit_2025"}, ids)
	assert.Len(t, reg.Active(), 3)
}

func TestBrokenDefinitionIsSkipped(t *testing.T) {
	broken := Definition{ID: "rikki", Build: func(*time.Location) (*service.Module, error) {
		_, err := schema.Compile(nil, nil, nil, 1, 0, "rikki")
		return nil, err
	}}
	reg, err := NewRegistry(time.UTC, broken, All()[0])
	require.NoError(t, err)

	_, err = reg.Module("rikki")
	assert.True(t, errors.Is(err, service.ErrNotFound))
	_, err = reg.Module("pitsakalja")
	assert.NoError(t, err)
}

func TestFuksisitsitSpillover(t *testing.T) {
	m, err := fuksisitsit2025(helsinki(t))
	require.NoError(t, err)

	muu, ok := m.Event.Quota("Muu")
	require.True(t, ok)
	assert.Equal(t, 0, muu.Guaranteed)
	assert.True(t, muu.Start.Before(m.Event.Start()))

	tally := model.NewTally(m.Event)
	assert.Equal(t, 120, tally.MaxCapacity("Muu"))
	tally.Add(quotaFuksi, 100)
	assert.Equal(t, 20, tally.MaxCapacity("Muu"))
}

func TestPitsakaljaAdmission(t *testing.T) {
	loc := helsinki(t)
	m, err := pitsakalja(loc)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Prepare(ctx, m.ID, m.Types.Storage))
	a := service.NewAdmission(store, nil, i18n.New("fi"),
		service.WithClock(func() time.Time { return at(loc, 2026, time.October, 30, 12, 0, 0) }))

	submit := func(first, alcohol, mild string) service.Outcome {
		form := m.Types.Input.New()
		p := map[string]any{"firstname": first, "lastname": "Korhonen", "email": first + "@example.com",
			"alcohol": alcohol, "pizza": "Kana"}
		if mild != "" {
			p["mild_drink"] = mild
		}
		form.Bind(map[string]any{
			schema.AttrRequiredParticipants: []any{p},
			schema.AttrOtherAttributes:      map[string]any{"privacy_consent": true},
		})
		out, err := a.Submit(ctx, m, form)
		require.NoError(t, err)
		return out
	}

	out := submit("matti", drinkAlcoholic, "")
	assert.False(t, out.Admitted())
	assert.Contains(t, out.Errors, "required_participants-0-mild_drink")

	out = submit("matti", drinkAlcoholic, "Siideri")
	assert.True(t, out.Admitted(), out.Rejection)

	out = submit("maija", drinkNonAlcoholic, "")
	assert.True(t, out.Admitted(), out.Rejection)
	assert.False(t, out.Reserve)
}

func TestMessages(t *testing.T) {
	m, err := pubivisa(time.UTC)
	require.NoError(t, err)

	form := m.Types.Input.New()
	person := func(first string) map[string]any {
		return map[string]any{"firstname": first, "lastname": "Visailija", "email": first + "@example.com"}
	}
	form.Bind(map[string]any{
		schema.AttrRequiredParticipants: []any{person("Aku"), person("Iines"), person("Hessu")},
		schema.AttrOtherAttributes: map[string]any{
			"teamname": "Tietäjät", "privacy_consent": true, "binding_registration_consent": true,
		},
	})
	require.True(t, form.Validate(), "%v", form.Errors())
	reg, err := m.Types.Storage.FromInput(form, "r1", time.Now())
	require.NoError(t, err)

	participants := schema.Participants(reg)
	msg := m.Messages.BuildMessage(participants[0], reg, false)
	assert.Contains(t, msg, "Hei Aku Visailija")
	assert.Contains(t, msg, "Joukkueen nimi: Tietäjät")
	assert.Contains(t, msg, "Hessu Visailija\n")

	fuksi, err := fuksisitsit2025(time.UTC)
	require.NoError(t, err)
	stub := stubParticipant{first: "Eka", last: "Vuosi", quota: quotaFuksi}
	assert.NotContains(t, fuksi.Messages.BuildMessage(stub, nil, false), "Maksuohjeet")
	stub.quota = "Muu"
	assert.Contains(t, fuksi.Messages.BuildMessage(stub, nil, false), "Maksuohjeet")
}

type stubParticipant struct {
	first, last, quota string
}

func (s stubParticipant) Firstname() string       { return s.first }
func (s stubParticipant) Lastname() string        { return s.last }
func (s stubParticipant) Email() string           { return "" }
func (s stubParticipant) Quota() string           { return s.quota }
func (s stubParticipant) Filled() bool            { return true }
func (s stubParticipant) Get(string) schema.Value { return schema.Value{} }

func TestPubivisaRequiresEveryTeamMember(t *testing.T) {
	m, err := pubivisa(time.UTC)
	require.NoError(t, err)

	form := m.Types.Input.New()
	form.Bind(map[string]any{
		schema.AttrOtherAttributes: map[string]any{
			"teamname": "Tyhjät", "privacy_consent": true, "binding_registration_consent": true,
		},
	})
	assert.False(t, form.Validate())
	errs := form.Errors()
	for _, key := range []string{"required_participants-0-firstname", "required_participants-2-email"} {
		assert.Contains(t, errs, key)
	}
	assert.NotContains(t, errs, "optional_participants-0-firstname")
}
