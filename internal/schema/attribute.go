package schema

// Well-known attribute names. The role checklists and the participant
// accessors are keyed on these.
const (
	AttrFirstname                  = "firstname"
	AttrLastname                   = "lastname"
	AttrEmail                      = "email"
	AttrQuota                      = "quota"
	AttrPhoneNumber                = "phone_number"
	AttrDepartureLocation          = "departure_location"
	AttrAllergies                  = "allergies"
	AttrRequiredParticipants       = "required_participants"
	AttrOptionalParticipants       = "optional_participants"
	AttrOtherAttributes            = "other_attributes"
	AttrPrivacyConsent             = "privacy_consent"
	AttrNameConsent                = "show_name_consent"
	AttrBindingRegistrationConsent = "binding_registration_consent"
)

// Attribute is the declarative description of one field.
type Attribute struct {
	Name       string
	Label      string
	ShortLabel string
	Kind       Kind

	MaxLength int         // KindString
	Layout    string      // KindDatetime
	Choices   []string    // KindChoice
	Count     int         // KindList
	SkipEmpty bool        // KindList: slots nobody filled in are neither validated nor stored
	Elem      []Attribute // KindList, KindObject

	Validators []Validator
}

func String(name, label, short string, maxLength int, v ...Validator) Attribute {
	return Attribute{Name: name, Label: label, ShortLabel: short, Kind: KindString, MaxLength: maxLength, Validators: v}
}

func Int(name, label, short string, v ...Validator) Attribute {
	return Attribute{Name: name, Label: label, ShortLabel: short, Kind: KindInt, Validators: v}
}

func Bool(name, label, short string, v ...Validator) Attribute {
	return Attribute{Name: name, Label: label, ShortLabel: short, Kind: KindBool, Validators: v}
}

func Datetime(name, label, short, layout string, v ...Validator) Attribute {
	return Attribute{Name: name, Label: label, ShortLabel: short, Kind: KindDatetime, Layout: layout, Validators: v}
}

func Choice(name, label, short string, choices []string, v ...Validator) Attribute {
	return Attribute{Name: name, Label: label, ShortLabel: short, Kind: KindChoice, Choices: choices, Validators: v}
}

// List repeats the element attributes count times.
func List(name, label, short string, count int, elem []Attribute, v ...Validator) Attribute {
	return Attribute{Name: name, Label: label, ShortLabel: short, Kind: KindList, Count: count, Elem: elem, Validators: v}
}

func Object(name, label, short string, elem []Attribute, v ...Validator) Attribute {
	return Attribute{Name: name, Label: label, ShortLabel: short, Kind: KindObject, Elem: elem, Validators: v}
}

// Header returns the short label, falling back to the name.
func (a *Attribute) Header() string {
	if a.ShortLabel != "" {
		return a.ShortLabel
	}
	return a.Name
}

// Common attribute makers.

func Firstname(v ...Validator) Attribute {
	return String(AttrFirstname, "Etunimi *", "Etunimi", 50, v...)
}

func Lastname(v ...Validator) Attribute {
	return String(AttrLastname, "Sukunimi *", "Sukunimi", 50, v...)
}

func Email(v ...Validator) Attribute {
	return String(AttrEmail, "Sähköposti *", "Sähköposti", 100, append(v, ValidEmail())...)
}

func PhoneNumber(v ...Validator) Attribute {
	return String(AttrPhoneNumber, "Puhelinnumero *", "Puhelinnumero", 20, v...)
}

func Allergies(v ...Validator) Attribute {
	return String(AttrAllergies, "Erityisruokavaliot/allergiat", "Allergiat", 200, v...)
}

func DepartureLocation(choices []string, v ...Validator) Attribute {
	return Choice(AttrDepartureLocation, "Lähtöpaikka *", "Lähtöpaikka", choices, v...)
}

func QuotaChoice(choices []string, v ...Validator) Attribute {
	return Choice(AttrQuota, "Kiintiö *", "Kiintiö", choices, v...)
}

func NameConsent(label string, v ...Validator) Attribute {
	if label == "" {
		label = "Sallin nimeni julkaisemisen osallistujalistassa tällä sivulla"
	}
	return Bool(AttrNameConsent, label, "Sallin nimenjulkaisun", v...)
}

func PrivacyConsent(label string, v ...Validator) Attribute {
	if label == "" {
		label = "Olen lukenut tietosuojaselosteen ja hyväksyn tietojen käytön tapahtuman järjestämisessä *"
	}
	return Bool(AttrPrivacyConsent, label, "Hyväksyn tietosuojaselosteen", v...)
}

func BindingRegistrationConsent(label string, v ...Validator) Attribute {
	if label == "" {
		label = "Ymmärrän, että ilmoittautuminen on sitova *"
	}
	return Bool(AttrBindingRegistrationConsent, label, "Sitoudun ilmoittautumiseen", v...)
}
