package domain_test

import (
	"errors"
	"testing"

	"github.com/dakshscra/scra/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *domain.Registry {
	return &domain.Registry{
		Platforms: []domain.Platform{
			{Name: "php", FileTypes: []string{"*.php"}, RulesPath: "php.yaml"},
			{Name: "java", FileTypes: []string{"*.java", "*.jsp"}, RulesPath: "java.yaml"},
			{Name: "common", FileTypes: []string{"*.*"}, RulesPath: "common.yaml"},
		},
	}
}

func TestParsePlatformSelection(t *testing.T) {
	tests := []struct {
		in   string
		want domain.PlatformSelection
	}{
		{"php", domain.PlatformSelection{"php"}},
		{"php, java", domain.PlatformSelection{"php", "java"}},
		{"PHP,java,php", domain.PlatformSelection{"php", "java"}},
		{" java ,, php ", domain.PlatformSelection{"java", "php"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.ParsePlatformSelection(tt.in), "input %q", tt.in)
	}
}

func TestPlatformSelection_String(t *testing.T) {
	assert.Equal(t, "php,java", domain.PlatformSelection{"php", "java"}.String())
}

func TestParseFileTypes(t *testing.T) {
	assert.Equal(t, []string{"*.java", "*.jsp"}, domain.ParseFileTypes("*.java, *.jsp,"))
	assert.Empty(t, domain.ParseFileTypes(""))
}

func TestRegistry_Names(t *testing.T) {
	reg := testRegistry()
	assert.Equal(t, []string{"common", "java", "php"}, reg.Names())
	assert.Equal(t, []string{"java", "php"}, reg.Names("common"))
}

func TestRegistry_ResolveKeepsSelectionOrder(t *testing.T) {
	platforms, err := testRegistry().Resolve(domain.PlatformSelection{"php", "java"})
	require.NoError(t, err)
	require.Len(t, platforms, 2)
	assert.Equal(t, "php", platforms[0].Name)
	assert.Equal(t, "java", platforms[1].Name)
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	_, err := testRegistry().Resolve(domain.PlatformSelection{"php", "cobol", "rpg"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownPlatform))

	var upe *domain.UnknownPlatformError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, []string{"cobol", "rpg"}, upe.Names)
	assert.Contains(t, err.Error(), `unknown platform "cobol", "rpg"`)
	assert.Contains(t, err.Error(), "available: common, java, php")
}

func TestRegistry_ResolveEmpty(t *testing.T) {
	_, err := testRegistry().Resolve(nil)
	assert.ErrorIs(t, err, domain.ErrNoPlatforms)
}
