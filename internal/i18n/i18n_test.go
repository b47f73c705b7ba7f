package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestDefaultsToFinnish(t *testing.T) {
	for _, lang := range []string{"", "fi", "fi-FI", "not a tag"} {
		p := New(lang)
		assert.Equal(t, language.Finnish, p.Language(), lang)
		assert.Equal(t, "Ann Lee on jo ilmoittautunut.", p.Sprintf(AlreadyRegistered, "Ann", "Lee"))
	}
}

func TestEnglish(t *testing.T) {
	p := New("en-GB")
	assert.Equal(t, language.English, p.Language())
	assert.Equal(t, "Quota Fuksi is full.", p.Sprintf(QuotaFull, "Fuksi"))
}

func TestEveryMessageIsTranslated(t *testing.T) {
	fi := New("fi")
	for key, want := range finnish {
		assert.NotEqual(t, key, want)
		assert.NotEmpty(t, fi.Sprintf(key, "x", "y"))
	}
	assert.Equal(t, "Ilmoittautuminen on jo täynnä kiintiön Tutor osalta.", fi.Sprintf(QuotaFull, "Tutor"))
}
