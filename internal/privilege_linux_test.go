//go:build linux

package internal

import "testing"

func TestHaveCapSysAdminDoesNotPanic(t *testing.T) {
	// Whether the test runner holds CAP_SYS_ADMIN varies by environment;
	// this only asserts the check completes and returns a plain bool.
	_ = HaveCapSysAdmin()
}
