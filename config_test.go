package vecpy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandedBindingsAll(t *testing.T) {
	got := Options{Bindings: []Binding{BindingAll}}.expandedBindings()
	assert.ElementsMatch(t, []Binding{BindingCpp, BindingDynamic, BindingManaged}, got)
}

func TestExpandedBindingsDedup(t *testing.T) {
	got := Options{Bindings: []Binding{BindingCpp, BindingCpp, BindingDynamic}}.expandedBindings()
	assert.Equal(t, []Binding{BindingCpp, BindingDynamic}, got)
}

func TestParseBindings(t *testing.T) {
	assert.Equal(t, []Binding{BindingCpp, BindingManaged}, parseBindings("cpp, managed"))
	assert.Nil(t, parseBindings(""))
}

func TestValidateNoBindings(t *testing.T) {
	err := Options{}.Validate()
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.NotEmpty(t, cfgErr.BuildID)
}

func TestValidateNegativeThreads(t *testing.T) {
	err := Options{Bindings: []Binding{BindingCpp}, Threads: -1}.Validate()
	require.Error(t, err)
}

func TestValidateOK(t *testing.T) {
	err := Options{Bindings: []Binding{BindingCpp}, Threads: 0}.Validate()
	assert.NoError(t, err)
}
