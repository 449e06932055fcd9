package modulejob_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestModuleJob(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ModuleJob Worker Suite")
}
