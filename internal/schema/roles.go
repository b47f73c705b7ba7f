package schema

import "github.com/ouluntietoteekkarit/ilmo/internal/model"

// Participant is the role contract shared by input slots and stored
// participant rows.
type Participant interface {
	Firstname() string
	Lastname() string
	Email() string
	// Quota returns the claimed quota name, or the default quota name when
	// the form has no quota attribute or the slot left it empty.
	Quota() string
	// Filled reports whether both names are given. Unfilled participants
	// are never stored and claim no quota.
	Filled() bool
	Get(name string) Value
}

// OtherAttributes is the role contract for the per-registration attributes.
type OtherAttributes interface {
	Get(name string) Value
	PrivacyConsent() bool
	ShowNameConsent() bool
}

// Entry is implemented by both a submitted Form and a stored Registration.
type Entry interface {
	RequiredParticipants() []Participant
	OptionalParticipants() []Participant
	OtherAttributes() OtherAttributes
}

// Participants returns required participants followed by optional ones.
func Participants(e Entry) []Participant {
	req := e.RequiredParticipants()
	opt := e.OptionalParticipants()
	out := make([]Participant, 0, len(req)+len(opt))
	out = append(out, req...)
	return append(out, opt...)
}

// QuotaClaims returns the quota claimed by each filled participant, in
// participant order.
func QuotaClaims(e Entry) []string {
	var claims []string
	for _, p := range Participants(e) {
		if p.Filled() {
			claims = append(claims, p.Quota())
		}
	}
	return claims
}

type getter interface {
	Get(name string) Value
	Has(name string) bool
}

type participant struct{ g getter }

func participantOf(g getter) participant { return participant{g: g} }

func (p participant) Firstname() string     { return p.g.Get(AttrFirstname).Str() }
func (p participant) Lastname() string      { return p.g.Get(AttrLastname).Str() }
func (p participant) Email() string         { return p.g.Get(AttrEmail).Str() }
func (p participant) Get(name string) Value { return p.g.Get(name) }

func (p participant) Quota() string {
	if q := p.g.Get(AttrQuota).Str(); q != "" {
		return q
	}
	return model.DefaultQuotaName
}

func (p participant) Filled() bool {
	return p.Firstname() != "" && p.Lastname() != ""
}

type otherAttributes struct{ g getter }

func otherAttributesOf(g getter) OtherAttributes {
	if g == nil {
		return otherAttributes{g: emptyGetter{}}
	}
	return otherAttributes{g: g}
}

func (o otherAttributes) Get(name string) Value { return o.g.Get(name) }
func (o otherAttributes) PrivacyConsent() bool  { return o.g.Get(AttrPrivacyConsent).Bool() }
func (o otherAttributes) ShowNameConsent() bool { return o.g.Get(AttrNameConsent).Bool() }

type emptyGetter struct{}

func (emptyGetter) Get(string) Value { return Value{} }
func (emptyGetter) Has(string) bool  { return false }
