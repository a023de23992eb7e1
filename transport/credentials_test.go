package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsFromCookies(t *testing.T) {
	creds := CredentialsFromCookies([]*http.Cookie{
		{Name: "ourcity_session", Value: "tok"},
		{Name: "stale", Value: "x", MaxAge: -1},
		{Name: "blank", Value: ""},
	})
	assert.Equal(t, Credentials{"ourcity_session": "tok"}, creds)
}

func TestCredentialsFromNoCookiesIsEmptyNotNil(t *testing.T) {
	creds := CredentialsFromCookies(nil)
	require.NotNil(t, creds)
	assert.Empty(t, creds)
}

func TestCredentialsClone(t *testing.T) {
	var none Credentials
	assert.Nil(t, none.Clone())

	orig := Credentials{"a": "1"}
	cp := orig.Clone()
	cp["a"] = "2"
	assert.Equal(t, "1", orig["a"])
}

func TestCredentialsNamesSorted(t *testing.T) {
	c := Credentials{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, []string{"a", "b", "c"}, c.Names())
}
