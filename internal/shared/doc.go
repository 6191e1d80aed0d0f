// Package shared holds helpers used across packages that belong to no
// single layer. The testutil subpackage captures slog output so tests can
// assert on what a component logged:
//
//	logger, logs := testutil.NewTestLogger(t)
//	svc := services.NewLicenseService(manager, nil, nil, logger)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "license issuance failed")
package shared
