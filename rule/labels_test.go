package rules

import (
	"testing"

	C "github.com/xiaobei/singbox-manager/constant"

	"github.com/stretchr/testify/assert"
)

func TestInfoCoversEveryType(t *testing.T) {
	for _, tp := range C.RuleTypes {
		info, ok := typeInfos[tp]
		assert.True(t, ok, tp.String())
		assert.NotEmpty(t, info.Label)
		assert.NotEmpty(t, info.Placeholder)
	}
	assert.Equal(t, "One value per line", Info(C.RuleType(99)).Placeholder)
}

func TestChipColor(t *testing.T) {
	assert.Equal(t, ColorSuccess, ChipColor(C.Direct))
	assert.Equal(t, ColorDanger, ChipColor(C.Reject))
	assert.Equal(t, ColorPrimary, ChipColor(C.Proxy))
	assert.Equal(t, ColorPrimary, ChipColor("Streaming"))
}
