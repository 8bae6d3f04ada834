package ringbuffer_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRingbuffer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ringbuffer Suite")
}
