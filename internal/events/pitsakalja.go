package events

import (
	"time"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

const (
	drinkAlcoholic    = "Alkoholillinen"
	drinkNonAlcoholic = "Alkoholiton"
)

func pitsakalja(loc *time.Location) (*service.Module, error) {
	participant := []schema.Attribute{
		schema.Firstname(schema.Required()),
		schema.Lastname(schema.Required()),
		schema.Email(schema.Required()),
		schema.Choice("alcohol", "Alkoholillinen/Alkoholiton *", "Alkoholi",
			[]string{drinkAlcoholic, drinkNonAlcoholic}, schema.Required()),
		schema.Choice("mild_drink", "Mieto juoma *", "Mieto juoma",
			[]string{"Olut", "Siideri"}, schema.RequiredIf("alcohol", drinkAlcoholic)),
		schema.Choice("pizza", "Pitsa *", "Pitsa", []string{"Liha", "Kana", "Vege"}, schema.Required()),
		schema.Allergies(),
	}
	other := []schema.Attribute{
		schema.NameConsent("Hyväksyn nimeni julkaisemisen tällä sivulla"),
		schema.PrivacyConsent("", schema.Required()),
	}
	types, err := schema.Compile(participant, nil, other, 1, 0, "pitsakalja")
	if err != nil {
		return nil, err
	}
	event, err := model.NewEvent("Pitsakalja",
		at(loc, 2026, time.October, 26, 12, 0, 0), at(loc, 2026, time.November, 9, 23, 59, 59),
		types.AsksNameConsent(), model.DefaultQuota(60, 30))
	if err != nil {
		return nil, err
	}
	return &service.Module{
		ID:       "pitsakalja",
		Event:    event,
		Types:    types,
		Messages: service.MessageFunc(pitsakaljaMessage),
		Active:   true,
	}, nil
}

func pitsakaljaMessage(p schema.Participant, _ *schema.Registration, reserve bool) string {
	contact := "Jos tulee kysyttävää, niin voit olla sähköpostitse yhteydessä pepeministeri@otit.fi"
	if reserve {
		return lines(greeting(p)+"Olet ilmoittautunut OTiTin Pitsakalja-sitseille. Olet varasijalla.",
			"Jos sitseille jää syystä tai toisesta vapaita paikkoja, niin sinuun voidaan olla yhteydessä.",
			"", contact, "", noReply)
	}
	return lines(greeting(p)+"Olet ilmoittautunut OTiTin Pitsakalja-sitseille. Tässä vielä maksuohjeet:",
		"",
		"Hinta alkoholillisen juoman kanssa on 20€ ja alkoholittoman juoman kanssa 17€.",
		"Maksu tapahtuu tilisiirrolla Oulun Tietoteekkarit ry:n tilille FI03 4744 3020 0116 87.",
		"Kirjoita viestikenttään nimesi, Pitsakalja-sitsit sekä alkoholiton tai alkoholillinen valintasi mukaan.",
		"", contact, "", noReply)
}
