package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "church-manager", TTL: time.Hour}

	tok, err := j.Issue("u1", "admin")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, "admin", c.Role)
}

func TestParseRejects(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "church-manager", TTL: time.Hour}
	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "church-manager", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := &JWTer{Secret: []byte("s3cret"), Issuer: "someone-else", TTL: time.Hour}
	_, err = wrongIssuer.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := &JWTer{Secret: []byte("s3cret"), Issuer: "church-manager", TTL: -time.Hour}
	old, err := expired.Issue("u1", "user")
	require.NoError(t, err)
	_, err = j.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = j.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
