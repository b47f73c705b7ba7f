// Package i18n holds the user-facing message catalog. Message keys are the
// English texts; Finnish is the default language.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ValidationFailed  = "Registration failed, check the submitted information"
	NotOpen           = "Registration has not opened yet"
	Closed            = "Registration has closed"
	QuotaNotOpen      = "Registration has not opened for quota %s"
	QuotaClosed       = "Registration has closed for quota %s"
	InvalidValue      = "Invalid value."
	QuotaFull         = "Quota %s is full."
	Full              = "Registration is full."
	AlreadyRegistered = "%s %s has already registered."
	DuplicateInForm   = "You cannot register the same person twice: %s %s"
	DatabaseError     = "Database error. Please try again."
	Succeeded         = "Registration succeeded"
	SucceededReserve  = "Registration succeeded, you are on the waitlist"
)

var finnish = map[string]string{
	ValidationFailed:  "Ilmoittautuminen epäonnistui, tarkista syöttämäsi tiedot",
	NotOpen:           "Ilmoittautuminen ei ole alkanut",
	Closed:            "Ilmoittautuminen on päättynyt",
	QuotaNotOpen:      "Ilmoittautuminen ei ole alkanut kiintiölle %s",
	QuotaClosed:       "Ilmoittautuminen on päättynyt kiintiölle %s",
	InvalidValue:      "Kelvoton arvo.",
	QuotaFull:         "Ilmoittautuminen on jo täynnä kiintiön %s osalta.",
	Full:              "Ilmoittautuminen on jo täynnä.",
	AlreadyRegistered: "%s %s on jo ilmoittautunut.",
	DuplicateInForm:   "Et voi ilmoittaa samaa henkilöä kahdesti: %s %s",
	DatabaseError:     "Tietokantavirhe. Yritä uudestaan.",
	Succeeded:         "Ilmoittautuminen onnistui",
	SucceededReserve:  "Ilmoittautuminen onnistui, olet varasijalla",
}

// Supported lists the catalog languages, default first.
var Supported = []language.Tag{language.Finnish, language.English}

var matcher = language.NewMatcher(Supported)

func init() {
	for key, fi := range finnish {
		mustSet(language.Finnish, key, fi)
		mustSet(language.English, key, key)
	}
}

func mustSet(tag language.Tag, key, msg string) {
	if err := message.SetString(tag, key, msg); err != nil {
		panic(fmt.Sprintf("i18n: register %q for %s: %v", key, tag, err))
	}
}

// Printer formats catalog messages in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a printer for the best supported match of lang. An empty or
// unknown lang selects Finnish.
func New(lang string) *Printer {
	tag := Supported[0]
	if strings.TrimSpace(lang) != "" {
		if parsed, err := language.Parse(lang); err == nil {
			_, idx, conf := matcher.Match(parsed)
			if conf != language.No {
				tag = Supported[idx]
			}
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag)}
}

// Language returns the printer's language.
func (p *Printer) Language() language.Tag { return p.tag }

// Sprintf formats the catalog message for key.
func (p *Printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}
