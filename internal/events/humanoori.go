package events

import (
	"time"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

func humanooriSitsit(loc *time.Location) (*service.Module, error) {
	guildQuotas := []string{"OTiT", "PROSE", "COMMUNICA"}
	participant := []schema.Attribute{
		schema.Firstname(schema.Required()),
		schema.Lastname(schema.Required()),
		schema.Email(schema.Required()),
		schema.QuotaChoice(guildQuotas, schema.Required()),
		schema.Choice("drink", "Juoma", "Juoma", []string{"Olut", "Siideri", "Alkoholiton"}, schema.Required()),
		schema.Choice("liquor", "Viinakaato", "Viinakaato", []string{"Alkoholillinen", "Alkoholiton"}, schema.Required()),
		schema.Choice("wine", "Viini", "Viini", []string{"Punaviini", "Valkoviini", "Alkoholiton"}, schema.Required()),
		schema.Allergies(),
		schema.String("seating_preference", "Pöytäseuratoive", "Pöytäseuratoive", 100),
	}
	other := []schema.Attribute{
		schema.NameConsent(""),
		schema.PrivacyConsent("", schema.Required()),
	}
	types, err := schema.Compile(participant, participant, other, 1, 1, "humanoori_sitsit")
	if err != nil {
		return nil, err
	}

	quotas := make([]model.Quota, 0, len(guildQuotas))
	for _, g := range guildQuotas {
		quotas = append(quotas, model.NewQuota(g, 30, 10))
	}
	event, err := model.NewEvent("Humanöörisitsit",
		at(loc, 2027, time.February, 21, 12, 0, 0), at(loc, 2027, time.March, 6, 23, 59, 59),
		types.AsksNameConsent(), quotas...)
	if err != nil {
		return nil, err
	}
	return &service.Module{
		ID:       "humanoori_sitsit",
		Event:    event,
		Types:    types,
		Messages: service.MessageFunc(humanooriMessage),
		Active:   true,
	}, nil
}

func humanooriMessage(p schema.Participant, _ *schema.Registration, reserve bool) string {
	contact := "Jos tulee kysyttävää, voit olla sähköpostitse yhteydessä joensuu@otit.fi"
	if reserve {
		return lines(greeting(p)+"Olet ilmoittautunut humanöörisitseille. Olet varasijalla.",
			"Jos sitseille jää syystä tai toisesta vapaita paikkoja, niin sinuun voidaan olla yhteydessä.",
			"", contact, "", noReply)
	}
	return lines(greeting(p)+"Olet ilmoittautunut humanöörisitseille. Sitsit järjestetään Walhallassa 14.3. klo 18:00 alkaen.",
		"",
		"Tässä vielä maksuohjeet:",
		"Maksettava summa on 23€, tai 46€ jos osallistut avecin kanssa. Maksu tapahtuu tilisiirrolla",
		"Communica ry:n tilille FI52 5741 3620 5641 27. Kirjoita viestikenttään oma nimesi, avecisi",
		"nimi ja \"humanöörisitsit\".",
		"", contact, noReply)
}
