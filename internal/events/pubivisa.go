package events

import (
	"strings"
	"time"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

var guilds = []string{"OTiT", "SIK", "YMP", "KONE", "PROSE", "OPTIEM", "ARK"}

func pubivisa(loc *time.Location) (*service.Module, error) {
	participant := []schema.Attribute{
		schema.Firstname(schema.Required()),
		schema.Lastname(schema.Required()),
		schema.Email(schema.Required()),
		schema.PhoneNumber(),
		schema.Choice("guild", "Kilta *", "Kilta", guilds),
	}
	other := []schema.Attribute{
		schema.String("teamname", "Joukkueen nimi *", "Joukkueen nimi", 100, schema.Required()),
		schema.NameConsent("Sallin joukkueen nimen julkaisemisen osallistujalistassa"),
		schema.BindingRegistrationConsent("", schema.Required()),
		schema.PrivacyConsent("", schema.Required()),
	}
	types, err := schema.Compile(participant, participant, other, 3, 1, "pubivisa")
	if err != nil {
		return nil, err
	}
	event, err := model.NewEvent("Pubivisa",
		at(loc, 2026, time.November, 2, 12, 0, 0), at(loc, 2026, time.November, 12, 23, 59, 59),
		types.AsksNameConsent(), model.DefaultQuota(50, 0))
	if err != nil {
		return nil, err
	}
	return &service.Module{
		ID:       "pubivisa",
		Event:    event,
		Types:    types,
		Messages: service.MessageFunc(pubivisaMessage),
		Active:   true,
	}, nil
}

func pubivisaMessage(p schema.Participant, reg *schema.Registration, _ bool) string {
	var b strings.Builder
	b.WriteString(greeting(p))
	b.WriteString("Olet ilmoittautunut pubivisaan. Syötit muun muassa seuraavia tietoja:\n")
	b.WriteString("Joukkueen nimi: " + reg.OtherAttributes().Get("teamname").Str() + "\n")
	b.WriteString("Osallistujien nimet:\n")
	for _, q := range schema.Participants(reg) {
		b.WriteString(q.Firstname() + " " + q.Lastname() + "\n")
	}
	b.WriteString("\n" + signature)
	return b.String()
}
