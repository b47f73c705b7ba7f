package events

import (
	"fmt"
	"time"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

const (
	quotaFuksi = "Fuksi"
	quotaTutor = "Tutor"
)

func fuksisitsit2025(loc *time.Location) (*service.Module, error) {
	start := at(loc, 2025, time.September, 11, 0, 0, 0)
	end := at(loc, 2025, time.September, 14, 23, 59, 59)
	quotas := []model.Quota{
		model.NewQuota(quotaFuksi, 120, 0).Windowed(start, end),
		model.NewQuota(quotaTutor, 15, 0).Windowed(start, end),
		model.NewQuota("Hallitus", 12, 0).Windowed(start, end),
		// Others get the seats fuksis leave unused.
		{Name: "Muu", Reserve: 20, Spillover: quotaFuksi, Start: at(loc, 2025, time.September, 8, 0, 0, 0), End: end},
	}
	names := make([]string, len(quotas))
	for i, q := range quotas {
		names[i] = q.Name
	}

	participant := []schema.Attribute{
		schema.Firstname(schema.Required()),
		schema.Lastname(schema.Required()),
		schema.Email(schema.Required()),
		schema.QuotaChoice(names, schema.Required()),
		schema.Choice("drink", "Juoma | Mild drink", "Juoma",
			[]string{"Olut (Beer)", "Siideri (Cider)", "Alkoholiton (Non-alcoholic)"}, schema.Required()),
		schema.Choice("liquor", "Viinakaato | Shot", "Viinakaato",
			[]string{"Alkoholillinen (Alcoholic)", "Alkoholiton (Non-alcoholic)"}, schema.Required()),
		schema.Choice("wine", "Viini | Wine", "Viini",
			[]string{"Punaviini (Red wine)", "Valkoviini (White wine)", "Alkoholiton (Non-alcoholic)"}, schema.Required()),
		schema.Allergies(),
	}
	other := []schema.Attribute{
		schema.NameConsent(""),
		schema.PrivacyConsent("", schema.Required()),
		schema.BindingRegistrationConsent("", schema.Required()),
	}
	types, err := schema.Compile(participant, nil, other, 1, 0, "fuksisitsit_2025")
	if err != nil {
		return nil, err
	}
	event, err := model.NewEvent("Fuksisitsit 2025", start, end, types.AsksNameConsent(), quotas...)
	if err != nil {
		return nil, err
	}
	return &service.Module{
		ID:       "fuksisitsit_2025",
		Event:    event,
		Types:    types,
		Messages: service.MessageFunc(fuksisitsitMessage),
	}, nil
}

func fuksisitsitMessage(p schema.Participant, _ *schema.Registration, _ bool) string {
	fi := fmt.Sprintf("Tervehdys, %s %s! Olet ilmoittautunut OTiT:n fuksisitseille.\n"+
		"Sitsit järjestetään Walhallassa maanantaina 15.9. klo 18 alkaen. Tapahtuman pukukoodi on cocktail.\n"+
		"Muistathan tulla ajoissa paikalle!\n", p.Firstname(), p.Lastname())
	en := fmt.Sprintf("Greetings, %s %s! You have registered for OTiT's freshman sitsit.\n"+
		"The sitsit will be held at Walhalla on Monday, September 15, starting at 18:00. The dress code for the event is cocktail.\n"+
		"Please remember to arrive on time!\n", p.Firstname(), p.Lastname())

	if q := p.Quota(); q != quotaFuksi && q != quotaTutor {
		fi += "\nMaksuohjeet:\n" +
			"Sitsien hinta on 25 €. Maksu tapahtuu tilisiirrolla Oulun Tietoteekkarit ry:n tilille FI03 4744 3020 0116 87.\n" +
			"Kirjoita viestikenttään nimesi + fuksisitsit. Jos tulee kysyttävää, niin voit olla sähköpostitse yhteydessä soteministeri@otit.fi.\n"
		en += "\nPayment instructions:\n" +
			"The price of the sitsit is 25 €. Payment is made by bank transfer to the account of Oulun Tietoteekkarit ry: FI03 4744 3020 0116 87.\n" +
			"Write \"your name + fuksisitsit\" in the message field. If you have any questions, you can contact us via email at soteministeri@otit.fi.\n"
	}
	return fi + "\nÄlä vastaa tähän sähköpostiin, vastaus ei mene mihinkään.\n-----\n" +
		en + "\nDo not reply to this email, responses will not be received."
}
