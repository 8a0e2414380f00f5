package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cstannahill/dataset-generator/types"
)

func TestBuild_ContainsObjectiveAndCount(t *testing.T) {
	b := &Builder{}
	p := b.Build("customer support assistant", "telecom domain", 25, types.FormatAlpaca)

	assert.Contains(t, p, "Generate exactly 25 high-quality training examples")
	assert.Contains(t, p, "OBJECTIVE: customer support assistant")
	assert.Contains(t, p, "CONTEXT: telecom domain")
	assert.Contains(t, p, "instruction, input, output")
	assert.Contains(t, p, "Return ONLY a valid JSON array")
}

func TestBuild_EmptyContextFallback(t *testing.T) {
	b := &Builder{}
	p := b.Build("goal", "", 5, types.FormatAlpaca)
	assert.Contains(t, p, "This is the first batch.")
}

func TestFormatInstruction_AllFormatsCovered(t *testing.T) {
	for _, format := range types.AllFormats() {
		instr := FormatInstruction(format)
		assert.True(t, strings.HasPrefix(instr, "Format each as JSON"), "format %s", format)
	}
	// 未知格式退回 Alpaca
	assert.Equal(t, FormatInstruction(types.FormatAlpaca), FormatInstruction(types.DatasetFormat("bogus")))
}

func TestSystem_Override(t *testing.T) {
	b := &Builder{}
	assert.Equal(t, DefaultSystemPrompt, b.System())

	b.SystemPrompt = "custom"
	assert.Equal(t, "custom", b.System())
}
