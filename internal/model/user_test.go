package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	allow := NewAllowlist([]string{" boss@example.com ", "", "ops@example.com"})

	assert.False(t, IsAdmin(nil, allow))
	assert.False(t, IsAdmin(&User{Email: "someone@example.com"}, allow))
	assert.True(t, IsAdmin(&User{Email: "someone@example.com", IsAdmin: true}, allow))
	assert.True(t, IsAdmin(&User{Email: "boss@example.com"}, allow))
	assert.True(t, IsAdmin(&User{Email: "Ops@Example.com"}, allow))
	assert.False(t, IsAdmin(&User{Email: "boss@example.com"}, nil))
}

func TestNewAllowlist_DropsBlanks(t *testing.T) {
	allow := NewAllowlist([]string{"", "  ", "a@b.c"})
	assert.Equal(t, Allowlist{"a@b.c"}, allow)
	assert.False(t, allow.Contains(""))
}

func TestNewUserView_DerivesAdmin(t *testing.T) {
	u := &User{ID: "1", Username: "ann", Email: "ann@example.com", PasswordHash: "hash"}
	v := NewUserView(u, Allowlist{"ann@example.com"})

	assert.Equal(t, "1", v.ID)
	assert.Equal(t, "ann", v.Username)
	assert.True(t, v.IsAdmin)
	assert.Nil(t, v.CreatedAt)
}

func TestRegisterRequest_Validate(t *testing.T) {
	ok := RegisterRequest{Username: "ann", Email: "ann@example.com", Password: "secret"}
	assert.NoError(t, ok.Validate())

	short := ok
	short.Password = "12345"
	err := short.Validate()
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Password must be at least 6 characters", err.Error())

	long := ok
	long.Password = strings.Repeat("p", MaxPasswordBytes+1)
	assert.Equal(t, "Password must be at most 72 bytes", long.Validate().Error())
	long.Password = strings.Repeat("p", MaxPasswordBytes)
	assert.NoError(t, long.Validate())

	missing := ok
	missing.Username = ""
	assert.ErrorIs(t, missing.Validate(), ErrValidation)

	badEmail := ok
	badEmail.Email = "not-an-email"
	assert.ErrorIs(t, badEmail.Validate(), ErrValidation)
}

func TestUserPatch_Apply(t *testing.T) {
	u := &User{Username: "ann", Email: "ann@example.com"}
	admin := true
	name := " annie "
	p := UserPatch{Username: &name, IsAdmin: &admin}

	assert.NoError(t, p.Validate())
	p.Apply(u)

	assert.Equal(t, "annie", u.Username)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.True(t, u.IsAdmin)
	assert.True(t, UserPatch{}.IsEmpty())
}
