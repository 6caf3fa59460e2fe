package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEncode(t *testing.T) {
	for _, addr := range []string{
		"rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		"r4yc85M1hwsegVGZ1pawpZPwj65SVs8PzD",
		"rnQUEEg8yyjrwk9FhyXpKavHyCRJM9BDMW",
	} {
		id, err := Decode(addr)
		require.NoError(t, err)
		require.Len(t, id, 20)
		require.Equal(t, addr, Encode(id))
		require.True(t, IsValid(addr))
	}
}

func TestDecodeBad(t *testing.T) {
	// Flipped last character breaks the checksum.
	_, err := Decode("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTr")
	require.Error(t, err)
	// Bitcoin-alphabet characters are not valid here.
	_, err = Decode("0Ol")
	require.Error(t, err)
	_, err = Decode("")
	require.Error(t, err)
	require.False(t, IsValid("not an address"))
}
