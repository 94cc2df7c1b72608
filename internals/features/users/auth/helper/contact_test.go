package helpers_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	helpers "schoolku_backend/internals/features/users/auth/helper"
)

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		cc, mobile string
		want       string
		err        error
	}{
		{"+91", "9876543210", "+919876543210", nil},
		{"91", "98765 43210", "+919876543210", nil},
		{" +1 ", "(555) 010-0000", "+15550100000", nil},
		{"+", "9876543210", "", helpers.ErrInvalidCountryCode},
		{"+12345", "9876543210", "", helpers.ErrInvalidCountryCode},
		{"+91", "98765abc", "", helpers.ErrInvalidMobileNo},
		{"+91", "", "", helpers.ErrInvalidMobileNo},
	}
	for _, tc := range cases {
		got, err := helpers.NormalizeE164(tc.cc, tc.mobile)
		if tc.err != nil {
			require.ErrorIs(t, err, tc.err, "%q %q", tc.cc, tc.mobile)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	e, err := helpers.NormalizeEmail("  Parent@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "parent@example.com", e)

	e, err = helpers.NormalizeEmail("")
	require.NoError(t, err)
	require.Empty(t, e)

	_, err = helpers.NormalizeEmail("not-an-email")
	require.ErrorIs(t, err, helpers.ErrInvalidEmail)
}

func TestMaskContact(t *testing.T) {
	require.Equal(t, "*********3210", helpers.MaskContact("+919876543210"))
	require.Equal(t, "****", helpers.MaskContact("123"))
}
