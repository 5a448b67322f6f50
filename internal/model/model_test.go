package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prefixCipher is a reversible stand-in for the real cipher.
type prefixCipher struct{}

func (prefixCipher) Encrypt(plain string) (string, error) { return "enc:" + plain, nil }
func (prefixCipher) Decrypt(blob string) (string, error) {
	if !strings.HasPrefix(blob, "enc:") {
		return "", errors.New("invalid token")
	}
	return strings.TrimPrefix(blob, "enc:"), nil
}

func TestNewAccount_RejectsEmptyAndPlainSecret(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

	_, err := NewAccount("Acme", "alice", "", prefixCipher{}, now)
	assert.ErrorIs(t, err, ErrInvalidSecret)

	_, err = NewAccount("Acme", "alice", "JBSWY3DPEHPK3PXP", prefixCipher{}, now)
	assert.ErrorIs(t, err, ErrInvalidSecret)

	a, err := NewAccount("Acme", "alice", "enc:JBSWY3DPEHPK3PXP", prefixCipher{}, now)
	require.NoError(t, err)
	assert.Equal(t, "Acme", a.Issuer)
	assert.Equal(t, 0, a.UsedFrequency)
	assert.Nil(t, a.Icon)
	assert.True(t, a.LastUsed.Equal(now))
}

func TestOtpRecord_SealIsOneWay(t *testing.T) {
	r := NewOtpRecord("Acme", "alice@acme.com", "JBSWY3DPEHPK3PXP")
	now := time.Date(2024, 6, 1, 12, 30, 15, 500, time.Local)

	a, err := r.Seal(prefixCipher{}, now)
	require.NoError(t, err)
	assert.NotEqual(t, r.Secret(), a.Secret)
	plain, err := a.PlainSecret(prefixCipher{})
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", plain)
	assert.Equal(t, r.Identity(), a.Identity())
	assert.Equal(t, "2024-06-01 12:30:15", a.LastUsed.String())

	_, err = NewOtpRecord("", "x", "y").Seal(prefixCipher{}, now)
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestOtpRecord_StringHidesSecret(t *testing.T) {
	r := NewOtpRecord("Acme", "alice", "JBSWY3DPEHPK3PXP")
	assert.NotContains(t, fmt.Sprintf("%v %+v %#v %s", r, r, r, r), "JBSWY3DPEHPK3PXP")
}

func TestAccount_JSONShape(t *testing.T) {
	lu, err := ParseTimestamp("2024-01-01 08:00:00")
	require.NoError(t, err)
	icon := "github"
	a := Account{Issuer: "GitHub", Label: "me", Secret: "enc:S", LastUsed: lu, UsedFrequency: 3, Favorite: true, Icon: &icon}

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"issuer":"GitHub","label":"me","secret":"enc:S","last_used":"2024-01-01 08:00:00","used_frequency":3,"favorite":true,"icon":"github"}`, string(b))

	var back Account
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, a.Equal(back))

	a.Icon = nil
	b, _ = json.Marshal(a)
	assert.Contains(t, string(b), `"icon":null`)
}

func TestAccount_Equal(t *testing.T) {
	i1, i2 := "x", "x"
	a := Account{Issuer: "A", Label: "l", Secret: "s", Icon: &i1}
	b := Account{Issuer: "A", Label: "l", Secret: "s", Icon: &i2}
	assert.True(t, a.Equal(b))
	b.Icon = nil
	assert.False(t, a.Equal(b))
	b.Icon = &i2
	b.Favorite = true
	assert.False(t, a.Equal(b))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-06-01 00:00:00", want: "2024-06-01 00:00:00"},
		{in: "2024-06-01 10:11:12.345678", want: "2024-06-01 10:11:12"},
		{in: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`42`), &ts))
}

func TestNewVaultFile_EmptyEntriesIsArray(t *testing.T) {
	b, err := json.Marshal(NewVaultFile(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"vault":{"version":"1","entries":[]}}`, string(b))
}
