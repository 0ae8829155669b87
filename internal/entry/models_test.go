package entry

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, DefaultFilename, SanitizeFilename("   "))
	assert.Equal(t, "a.txt", SanitizeFilename("  a.txt "))

	long := strings.Repeat("é", MaxFilenameLength+10)
	assert.Equal(t, MaxFilenameLength, len([]rune(SanitizeFilename(long))))
}

func TestSanitizeNote(t *testing.T) {
	assert.Nil(t, SanitizeNote(nil))
	blank := " \n "
	assert.Nil(t, SanitizeNote(&blank))

	long := strings.Repeat("x", MaxNoteLength+1)
	got := SanitizeNote(&long)
	if assert.NotNil(t, got) {
		assert.Len(t, *got, MaxNoteLength)
	}
}

func TestResolveExpiration(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	seven := 7
	zero := 0
	negative := -3

	exp, err := ResolveExpiration(now, nil, 30)
	assert.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 30), *exp)

	exp, err = ResolveExpiration(now, &seven, 30)
	assert.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 7), *exp)

	exp, err = ResolveExpiration(now, &zero, 30)
	assert.NoError(t, err)
	assert.Nil(t, exp)

	_, err = ResolveExpiration(now, &negative, 30)
	assert.ErrorIs(t, err, ErrInvalidExpiration)
}

func TestEntryExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.True(t, Entry{ExpirationTime: &past}.Expired(now))
	assert.True(t, Entry{ExpirationTime: &now}.Expired(now))
	assert.False(t, Entry{ExpirationTime: &future}.Expired(now))
	assert.False(t, Entry{}.Expired(now))
}
