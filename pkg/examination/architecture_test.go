package examination

import (
	"testing"

	"vetclinic/testutil"
)

func TestExaminationImportsStayPublic(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.AnyOf(testutil.InternalImport, testutil.DomainImport), "form core must not depend on server packages")
}

func TestExaminationHasNoInfraDependencies(t *testing.T) {
	if testing.Short() {
		t.Skip("runs go list")
	}
	testutil.AssertNoTransitiveDependency(t, "vetclinic/pkg/examination",
		testutil.AnyOf(testutil.CloudSDKImport, testutil.DatabaseDriverImport),
		"form core must stay free of storage drivers")
}
