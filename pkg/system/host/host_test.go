package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Collect(t *testing.T) {
	s := Collect()

	assert.NotEmpty(t, s.OS)
	assert.NotZero(t, s.LogicalCores)
	assert.NotZero(t, s.MemoryTotal)

	t.Logf("host: %s", s)
}
