package license

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type pemPair struct {
	private string
	public  string
}

var (
	testKeysOnce sync.Once
	testKeys     map[string]pemPair
	testKeysErr  error
)

// testPEM returns a PEM key pair for algorithm, generated once per test run.
func testPEM(t *testing.T, algorithm string) pemPair {
	t.Helper()
	testKeysOnce.Do(func() {
		testKeys = make(map[string]pemPair)
		for _, alg := range []string{AlgorithmRSA, AlgorithmECDSA, AlgorithmEd25519} {
			priv, pub, err := GenerateKeyPair(alg)
			if err != nil {
				testKeysErr = err
				return
			}
			testKeys[alg] = pemPair{private: string(priv), public: string(pub)}
		}
	})
	require.NoError(t, testKeysErr)
	pair, ok := testKeys[algorithm]
	require.True(t, ok, "no test key for %s", algorithm)
	return pair
}

func testKeyPair(t *testing.T, algorithm string) *KeyPair {
	t.Helper()
	pair := testPEM(t, algorithm)
	kp, err := LoadKeyPair(pair.private, pair.public)
	require.NoError(t, err)
	return kp
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(testKeyPair(t, AlgorithmRSA))
}
