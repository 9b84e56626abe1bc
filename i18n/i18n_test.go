package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguages(t *testing.T) {
	assert.Equal(t, []string{"en", "es", "fr"}, Languages())
}

func TestEnglish(t *testing.T) {
	c := New("en")
	assert.Equal(t, "en", c.Lang())
	assert.Equal(t, "Score: 30", c.Get("SCORE", 30))
	assert.Equal(t, "Game Over!", c.Get("GAME_OVER"))
}

func TestLocaleNormalization(t *testing.T) {
	assert.Equal(t, "fr", New("fr_FR.UTF-8").Lang())
	assert.Equal(t, "es", New("ES-mx").Lang())
	assert.Equal(t, "Record : 40", New("fr").Get("BEST", 40))
	assert.Equal(t, "En pausa", New("es").Get("PAUSED"))
}

func TestUnknownLocaleFallsBackToEnglish(t *testing.T) {
	c := New("et")
	assert.Equal(t, "en", c.Lang())
	assert.Equal(t, "Paused", c.Get("PAUSED"))
}

func TestUnknownIDIsReturnedAsIs(t *testing.T) {
	assert.Equal(t, "NO_SUCH_ID", New("fr").Get("NO_SUCH_ID"))
}
