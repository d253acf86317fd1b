package employee

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoutil "hrrecords/internal/platform/crypto"
)

func newFieldCrypto(t *testing.T, hexByte string) *cryptoutil.Service {
	t.Helper()
	svc, err := cryptoutil.New(strings.Repeat(hexByte, 32))
	require.NoError(t, err)
	return svc
}

func TestSealAndOpenOptionalRoundTrip(t *testing.T) {
	store := &Store{Crypto: newFieldCrypto(t, "11")}

	plain, sealed, err := store.sealOptional("uan", strPtr("100200300400"))
	require.NoError(t, err)
	assert.Nil(t, plain)
	require.NotEmpty(t, sealed)

	opened, err := openOptional(store.Crypto, "uan", sealed, plain)
	require.NoError(t, err)
	assert.Equal(t, "100200300400", StringValue(opened))
}

func TestSealOptionalWithoutKeyKeepsPlaintext(t *testing.T) {
	store := &Store{Crypto: newFieldCrypto(t, "")}

	plain, sealed, err := store.sealOptional("uan", strPtr("100200300400"))
	require.NoError(t, err)
	assert.Nil(t, sealed)
	assert.Equal(t, "100200300400", StringValue(plain))
}

func TestOpenOptionalWrongKeyFails(t *testing.T) {
	writer := &Store{Crypto: newFieldCrypto(t, "11")}
	_, sealed, err := writer.sealOptional("esiip", strPtr("ESI-77"))
	require.NoError(t, err)

	opened, err := openOptional(newFieldCrypto(t, "22"), "esiip", sealed, nil)
	assert.ErrorIs(t, err, ErrFieldUnreadable)
	assert.Nil(t, opened)
}

func TestOpenOptionalMissingKeyFails(t *testing.T) {
	writer := &Store{Crypto: newFieldCrypto(t, "11")}
	_, sealed, err := writer.sealOptional("uan", strPtr("100200300400"))
	require.NoError(t, err)

	_, err = openOptional(newFieldCrypto(t, ""), "uan", sealed, nil)
	assert.ErrorIs(t, err, ErrFieldUnreadable)
	assert.ErrorIs(t, err, cryptoutil.ErrNotConfigured)
}

func TestOpenOptionalPlaintextOnly(t *testing.T) {
	opened, err := openOptional(newFieldCrypto(t, "11"), "uan", nil, strPtr("legacy"))
	require.NoError(t, err)
	assert.Equal(t, "legacy", StringValue(opened))
}
