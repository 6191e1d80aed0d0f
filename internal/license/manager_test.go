package license

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"licensekeys/pkg/contracts/domain"
)

const (
	testProductID  = "XYZ123"
	testMachineID  = "cpu-abc-123"
	testPeriodDays = 365
)

type ManagerTestSuite struct {
	suite.Suite
	manager *Manager
	key     string
}

func (s *ManagerTestSuite) SetupTest() {
	s.manager = testManager(s.T())

	key, err := s.manager.Issue(testProductID, testMachineID, testPeriodDays)
	s.Require().NoError(err)
	s.key = key
}

func (s *ManagerTestSuite) TestIssue_FourFields() {
	parts := strings.Split(s.key, "-")
	s.Require().Len(parts, 4)
	s.Equal(testProductID, parts[0])
	s.Equal(Checksum(parts[1]), parts[2])
	s.Regexp("^[0-9a-f]+$", parts[3])
}

func (s *ManagerTestSuite) TestValidate_IssuedKey() {
	ok, err := s.manager.Validate(s.key)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ManagerTestSuite) TestExtract_IssuedKey() {
	data, ok := s.manager.Extract(s.key)
	s.Require().True(ok)
	s.Equal(&domain.LicenseData{
		ProductID:  testProductID,
		MachineID:  testMachineID,
		PeriodDays: testPeriodDays,
	}, data)
}

func (s *ManagerTestSuite) TestMalformed_FirstDelimiterReplaced() {
	malformed := strings.Replace(s.key, "-", ":", 1)

	ok, err := s.manager.Validate(malformed)
	s.NoError(err)
	s.False(ok)

	data, ok := s.manager.Extract(malformed)
	s.False(ok)
	s.Nil(data)
}

func (s *ManagerTestSuite) TestTamper_SignatureField() {
	f, ok := splitKey(s.key)
	s.Require().True(ok)

	for i := range f.Signature {
		tampered := f
		tampered.Signature = flipHex(f.Signature, i)

		valid, err := s.manager.Validate(tampered.String())
		s.Require().NoError(err)
		s.False(valid, "signature flip at %d accepted", i)

		if c := f.Signature[i]; c >= 'a' && c <= 'f' {
			upper := f
			upper.Signature = f.Signature[:i] + strings.ToUpper(string(c)) + f.Signature[i+1:]

			valid, err := s.manager.Validate(upper.String())
			s.Require().NoError(err)
			s.False(valid, "upper-case signature digit at %d accepted", i)
		}
	}
}

func (s *ManagerTestSuite) TestTamper_SignatureUpperCase() {
	f, ok := splitKey(s.key)
	s.Require().True(ok)
	s.Require().NotEqual(f.Signature, strings.ToUpper(f.Signature), "signature has no hex letters")

	f.Signature = strings.ToUpper(f.Signature)
	valid, err := s.manager.Validate(f.String())
	s.Require().NoError(err)
	s.False(valid)
}

func (s *ManagerTestSuite) TestTamper_ChecksumField() {
	f, ok := splitKey(s.key)
	s.Require().True(ok)

	for i := range f.Checksum {
		tampered := f
		tampered.Checksum = flipHex(f.Checksum, i)

		valid, err := s.manager.Validate(tampered.String())
		s.Require().NoError(err)
		s.False(valid, "checksum flip at %d accepted", i)
	}
}

func (s *ManagerTestSuite) TestTamper_TokenWithoutRecomputation() {
	f, ok := splitKey(s.key)
	s.Require().True(ok)

	f.Token = Encode(testMachineID, 3650)

	valid, err := s.manager.Validate(f.String())
	s.Require().NoError(err)
	s.False(valid)
}

func (s *ManagerTestSuite) TestTamper_TokenWithRecomputedChecksum() {
	f, ok := splitKey(s.key)
	s.Require().True(ok)

	// a forger can recompute the checksum but not the signature
	f.Token = Encode(testMachineID, 3650)
	f.Checksum = Checksum(f.Token)

	valid, err := s.manager.Validate(f.String())
	s.Require().NoError(err)
	s.False(valid)

	// extraction still succeeds: it never checks the signature
	data, ok := s.manager.Extract(f.String())
	s.Require().True(ok)
	s.Equal(3650, data.PeriodDays)
}

func (s *ManagerTestSuite) TestVerify() {
	res, err := s.manager.Verify(s.key)
	s.Require().NoError(err)
	s.True(res.Valid)
	s.Require().NotNil(res.Data)
	s.Equal(testMachineID, res.Data.MachineID)

	res, err = s.manager.Verify(s.key + "0")
	s.Require().NoError(err)
	s.False(res.Valid)
	s.Nil(res.Data)
}

func (s *ManagerTestSuite) TestValidate_OtherKeyPair() {
	other := NewManager(testKeyPair(s.T(), AlgorithmECDSA))

	ok, err := other.Validate(s.key)
	s.Require().NoError(err)
	s.False(ok)
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func TestManager_RoundTripAcrossAlgorithms(t *testing.T) {
	inputs := []domain.LicenseRequest{
		{ProductID: "P1", MachineID: "m", PeriodDays: 0},
		{ProductID: "PRO_2024", MachineID: "cpu-abc-123", PeriodDays: 365},
		{ProductID: "p.3", MachineID: "00:1a:2b:3c:4d:5e", PeriodDays: 30},
		{ProductID: "X", MachineID: strings.Repeat("id", 500), PeriodDays: 99999},
	}

	for _, alg := range []string{AlgorithmRSA, AlgorithmECDSA, AlgorithmEd25519} {
		manager := NewManager(testKeyPair(t, alg))
		for _, in := range inputs {
			key, err := manager.IssueRequest(in)
			require.NoError(t, err, "%s %+v", alg, in)

			ok, err := manager.Validate(key)
			require.NoError(t, err)
			assert.True(t, ok, "%s %+v", alg, in)

			data, ok := manager.Extract(key)
			require.True(t, ok)
			assert.Equal(t, in.ProductID, data.ProductID)
			assert.Equal(t, in.MachineID, data.MachineID)
			assert.Equal(t, in.PeriodDays, data.PeriodDays)
		}
	}
}

func TestManager_EmptyPrivateKeyFailsIssue(t *testing.T) {
	kp, err := LoadKeyPair("", testPEM(t, AlgorithmRSA).public)
	require.NoError(t, err)
	manager := NewManager(kp)

	key, err := manager.Issue(testProductID, testMachineID, testPeriodDays)
	assert.Empty(t, key)
	assert.ErrorIs(t, err, ErrPrivateKeyNotConfigured)
	assert.True(t, IsConfigError(err))
	assert.False(t, manager.CanIssue())
	assert.True(t, manager.CanValidate())
}

func TestManager_MissingPublicKeyFailsValidate(t *testing.T) {
	kp, err := LoadKeyPair(testPEM(t, AlgorithmRSA).private, "")
	require.NoError(t, err)
	manager := NewManager(kp)

	key, err := manager.Issue(testProductID, testMachineID, testPeriodDays)
	require.NoError(t, err)

	ok, err := manager.Validate(key)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrPublicKeyNotConfigured)

	_, err = manager.Verify(key)
	assert.ErrorIs(t, err, ErrPublicKeyNotConfigured)

	// extraction needs no key material
	_, ok = manager.Extract(key)
	assert.True(t, ok)
}

func TestManager_NilKeyPair(t *testing.T) {
	manager := NewManager(nil)

	_, err := manager.Issue(testProductID, testMachineID, testPeriodDays)
	assert.ErrorIs(t, err, ErrPrivateKeyNotConfigured)

	_, err = manager.Validate("a-b-c-d")
	assert.ErrorIs(t, err, ErrPublicKeyNotConfigured)
}

func TestManager_IssueRejectsBadRequest(t *testing.T) {
	manager := testManager(t)

	tests := []struct {
		name       string
		productID  string
		machineID  string
		periodDays int
	}{
		{"empty product", "", "m", 1},
		{"blank product", "  ", "m", 1},
		{"empty machine", "p", "", 1},
		{"negative period", "p", "m", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Issue(tt.productID, tt.machineID, tt.periodDays)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.False(t, IsConfigError(err))
		})
	}
}

func TestManager_ProductIDWithDelimiterDoesNotValidate(t *testing.T) {
	manager := testManager(t)

	key, err := manager.Issue("ACME-PRO", testMachineID, testPeriodDays)
	require.NoError(t, err)

	ok, err := manager.Validate(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_MalformedKeys(t *testing.T) {
	manager := testManager(t)

	valid, err := manager.Issue(testProductID, testMachineID, testPeriodDays)
	require.NoError(t, err)
	f, _ := splitKey(valid)

	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"three fields", "a-b-c"},
		{"five fields", valid + "-extra"},
		{"empty product", "-" + f.Token + "-" + f.Checksum + "-" + f.Signature},
		{"empty token", f.ProductID + "--" + f.Checksum + "-" + f.Signature},
		{"empty signature", f.ProductID + "-" + f.Token + "-" + f.Checksum + "-"},
		{"undecodable token", f.ProductID + "-!!!-" + Checksum("!!!") + "-" + f.Signature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := manager.Validate(tt.key)
			assert.NoError(t, err)
			assert.False(t, ok)

			data, ok := manager.Extract(tt.key)
			assert.False(t, ok)
			assert.Nil(t, data)
		})
	}
}

func TestManager_ConcurrentUse(t *testing.T) {
	manager := testManager(t)

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		days := i
		g.Go(func() error {
			key, err := manager.Issue(testProductID, testMachineID, days)
			if err != nil {
				return err
			}
			ok, err := manager.Validate(key)
			if err != nil {
				return err
			}
			if !ok {
				t.Errorf("key for %d days did not validate", days)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

// flipHex changes the hex digit at i to a different hex digit.
func flipHex(s string, i int) string {
	b := []byte(s)
	if b[i] == '0' {
		b[i] = '1'
	} else {
		b[i] = '0'
	}
	return string(b)
}
