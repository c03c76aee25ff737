package policy

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/summa/internal/engine"
	"github.com/roach88/summa/internal/ir"
)

func TestLoadBytesDefaults(t *testing.T) {
	p, err := LoadBytes("empty.cue", []byte(""))
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultPolicy(), p)
}

func TestLoadBytesOverrides(t *testing.T) {
	p, err := LoadBytes("small.cue", []byte(`
capacity: 3
patterns: ["Verify"]
`))
	require.NoError(t, err)

	want := engine.DefaultPolicy()
	want.Capacity = 3
	want.BlacklistPatterns = []string{"Verify"}
	assert.Equal(t, want, p)
}

func TestLoadFile(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "strict.cue"))
	require.NoError(t, err)

	assert.Equal(t, 10, p.Capacity)
	assert.Equal(t, []string{"println", "hashCode"}, p.NativeAllowList)
	assert.Empty(t, p.Blacklist)
	assert.Equal(t, ir.MethodID("Main.main([Ljava/lang/String;)V"), p.EntryMethod)
	assert.Equal(t, engine.DefaultPolicy().BlacklistPatterns, p.BlacklistPatterns)
}

func TestLoadBytesErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "non-positive capacity", src: "capacity: 0"},
		{name: "capacity above cap", src: "capacity: 101"},
		{name: "wrong type", src: `capacity: "many"`},
		{name: "unknown field", src: "capcity: 10"},
		{name: "empty entry method", src: `entry_method: ""`},
		{name: "syntax", src: "capacity: [1,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("bad.cue", []byte(tt.src))
			require.Error(t, err)
		})
	}
}

func TestLoadBytesMaxCapacity(t *testing.T) {
	p, err := LoadBytes("max.cue", []byte("capacity: 100\n"))
	require.NoError(t, err)
	assert.Equal(t, 100, p.Capacity)
}

func TestUnknownFieldPosition(t *testing.T) {
	_, err := LoadBytes("typo.cue", []byte("capacity: 5\ncapcity: 10\n"))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "capcity", ce.Field)
	assert.Equal(t, 2, ce.Pos.Line())
	assert.Contains(t, err.Error(), "typo.cue:2")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.cue"))
	require.Error(t, err)
}
