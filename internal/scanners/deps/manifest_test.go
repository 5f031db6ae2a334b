package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePubspec = `
name: demo_app
dependencies:
  http: ^1.2.0
  dio: any
  shared_preferences:
  intl: ">=0.18.0"
  my_local:
    path: ../my_local
  flutter:
    sdk: flutter
  some_git:
    git:
      url: https://github.com/x/y.git
  pinned_dep:
    version: 2.0.1
dev_dependencies:
  test: ^1.25.0
dependency_overrides:
  http: 1.2.1
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(samplePubspec))
	require.NoError(t, err)
	assert.Equal(t, "demo_app", m.Name)

	byName := map[string]Dependency{}
	for _, d := range m.Deps {
		if d.Group == GroupMain {
			byName[d.Name] = d
		}
	}

	assert.Equal(t, "^1.2.0", byName["http"].Constraint)
	assert.True(t, byName["http"].Hosted)
	assert.Equal(t, "any", byName["dio"].Constraint)
	assert.Equal(t, "", byName["shared_preferences"].Constraint)
	assert.True(t, byName["shared_preferences"].Hosted)
	assert.False(t, byName["my_local"].Hosted, "path deps are not hosted")
	assert.False(t, byName["flutter"].Hosted, "sdk deps are not hosted")
	assert.False(t, byName["some_git"].Hosted, "git deps are not hosted")
	assert.Equal(t, "2.0.1", byName["pinned_dep"].Constraint)
	assert.True(t, byName["pinned_dep"].Hosted)

	// deterministic: names sorted within each group
	var mainNames []string
	for _, d := range m.Deps {
		if d.Group == GroupMain {
			mainNames = append(mainNames, d.Name)
		}
	}
	assert.IsNonDecreasing(t, mainNames)
}

func TestParseManifest_Groups(t *testing.T) {
	m, err := ParseManifest([]byte(samplePubspec))
	require.NoError(t, err)

	groups := map[Group]int{}
	for _, d := range m.Deps {
		groups[d.Group]++
	}
	assert.Equal(t, 8, groups[GroupMain])
	assert.Equal(t, 1, groups[GroupDev])
	assert.Equal(t, 1, groups[GroupOverride])
}

func TestParseManifest_Malformed(t *testing.T) {
	_, err := ParseManifest([]byte("dependencies:\n  - not\n - aligned: [\n"))
	assert.Error(t, err)
}

func TestClassifyConstraint(t *testing.T) {
	cases := []struct {
		in   string
		want constraintKind
	}{
		{"", constraintAny},
		{"any", constraintAny},
		{"Any", constraintAny},
		{"^1.2.0", constraintBounded},
		{"1.2.3", constraintPinned},
		{">=1.0.0 <2.0.0", constraintBounded},
		{">=1.0.0", constraintLowerOnly},
		{">1.0.0", constraintLowerOnly},
		{"<2.0.0", constraintBounded},
		{"weird!", constraintUnknown},
	}
	for _, c := range cases {
		got, _ := classifyConstraint(c.in)
		assert.Equal(t, c.want, got, "constraint %q", c.in)
	}
}
