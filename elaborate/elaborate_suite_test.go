package elaborate_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_lookup_test.go github.com/sarchlab/velab/elaborate ModuleLookup
func TestElaborate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Elaborate Suite")
}
