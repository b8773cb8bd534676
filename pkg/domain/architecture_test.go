package domain

import (
	"testing"

	"usercore/testutil"
)

// TestDomainDoesNotImportInternal keeps the domain layer free of implementation
// packages so persistence backends and test doubles can depend on it freely.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must stay implementation free")
}

func TestDomainHasNoThirdPartyDependencies(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImport, "domain depends on the standard library only")
}

func TestDomainHasNoTransitiveInfraDependency(t *testing.T) {
	if testing.Short() {
		t.Skip("go list in short mode")
	}
	testutil.AssertNoTransitiveDependency(t, "usercore/pkg/domain", testutil.InfraImportForbidden, "domain must not reach storage backends")
}
