package generator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cstannahill/dataset-generator/types"
)

func TestParser_ValidArray(t *testing.T) {
	parser := NewParser(zap.NewNop())

	raw := `[{"instruction": "What is Go?", "input": "", "output": "A programming language."}]`
	entries := parser.Parse(raw, 1)

	require.Len(t, entries, 1)
	assert.Equal(t, "What is Go?", entries[0].String("instruction"))
	assert.Equal(t, "A programming language.", entries[0].String("output"))
}

func TestParser_ExtractsArrayFromProse(t *testing.T) {
	parser := NewParser(zap.NewNop())

	raw := `Here are the entries you asked for:

[{"instruction": "a", "output": "b"}, {"instruction": "c", "output": "d"}]

Let me know if you need more!`
	entries := parser.Parse(raw, 2)

	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].String("instruction"))
	assert.Equal(t, "c", entries[1].String("instruction"))
}

func TestParser_MalformedFallsBack(t *testing.T) {
	parser := NewParser(zap.NewNop())

	entries := parser.Parse("I'm sorry, I can't produce JSON today.", 5)

	require.Len(t, entries, 5)
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("Sample instruction %d", i+1), entry.String("instruction"))
		assert.Equal(t, fmt.Sprintf("Sample input context %d", i+1), entry.String("input"))
		assert.Equal(t, fmt.Sprintf("Sample response output %d", i+1), entry.String("output"))
	}
}

func TestParser_TruncatedJSONFallsBack(t *testing.T) {
	parser := NewParser(zap.NewNop())

	entries := parser.Parse(`[{"instruction": "cut off mid`, 3)

	require.Len(t, entries, 3)
	assert.Equal(t, "Sample instruction 1", entries[0].String("instruction"))
}

func TestParser_EmptyArrayFallsBack(t *testing.T) {
	parser := NewParser(zap.NewNop())

	entries := parser.Parse("[]", 2)

	require.Len(t, entries, 2)
	assert.Equal(t, types.FallbackEntry(1), entries[0])
	assert.Equal(t, types.FallbackEntry(2), entries[1])
}

func TestParser_CountMismatchKeptAsIs(t *testing.T) {
	parser := NewParser(zap.NewNop())

	// 模型少给了条目：解析结果原样保留，不补齐占位
	raw := `[{"instruction": "only one", "output": "entry"}]`
	entries := parser.Parse(raw, 3)

	require.Len(t, entries, 1)
	assert.Equal(t, "only one", entries[0].String("instruction"))
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare array", `[1,2]`, `[1,2]`},
		{"prefixed", `json: [1,2]`, `[1,2]`},
		{"suffixed", `[1,2] done`, `[1,2]`},
		{"nested arrays kept whole", `x [[1],[2]] y`, `[[1],[2]]`},
		{"no opening bracket", `no json here`, `no json here`},
		{"bracket order inverted", `] then [`, `] then [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONArray(tt.raw))
		})
	}
}
