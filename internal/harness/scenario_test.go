package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: duel
description: "Two fencers, one bout"
fencers:
  - {id: a, last_name: Arnaud}
  - {id: b, last_name: Bertin}
pools:
  - id: p1
    fencers: [a, b]
    bouts:
      - {left: a, right: b, score: [5, 1]}
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "duel", scenario.Name)
	assert.Len(t, scenario.Fencers, 2)
	require.Len(t, scenario.Pools, 1)
	assert.Equal(t, []int{5, 1}, scenario.Pools[0].Bouts[0].Score)
	assert.Empty(t, scenario.Rule)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: minimalScenario + "flavour: vanilla\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: `
description: "x"
fencers: [{id: a, last_name: A}]
pools: [{id: p, fencers: [a]}]
`,
			want: "name is required",
		},
		{
			name: "no pools",
			yaml: `
name: n
description: "x"
fencers: [{id: a, last_name: A}]
`,
			want: "pools list is required",
		},
		{
			name: "duplicate fencer",
			yaml: `
name: n
description: "x"
fencers: [{id: a, last_name: A}, {id: a, last_name: B}]
pools: [{id: p, fencers: [a]}]
`,
			want: `duplicate id "a"`,
		},
		{
			name: "unknown pool fencer",
			yaml: `
name: n
description: "x"
fencers: [{id: a, last_name: A}]
pools: [{id: p, fencers: [a, ghost]}]
`,
			want: `unknown fencer "ghost"`,
		},
		{
			name: "bout outside pool",
			yaml: `
name: n
description: "x"
fencers: [{id: a, last_name: A}, {id: b, last_name: B}, {id: c, last_name: C}]
pools:
  - id: p
    fencers: [a, b]
    bouts: [{left: a, right: c, score: [5, 0]}]
`,
			want: "is not a bout of this pool",
		},
		{
			name: "one-sided score",
			yaml: `
name: n
description: "x"
fencers: [{id: a, last_name: A}, {id: b, last_name: B}]
pools:
  - id: p
    fencers: [a, b]
    bouts: [{left: a, right: b, score: [5]}]
`,
			want: "score needs two values",
		},
		{
			name: "cutoff out of range",
			yaml: minimalScenario + "cutoff_ratio: 1.5\n",
			want: "cutoff_ratio",
		},
		{
			name: "unknown winner",
			yaml: minimalScenario + "bracket: [{round: 0, match: 0, winner: zed}]\n",
			want: `bracket[0]: unknown fencer "zed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
