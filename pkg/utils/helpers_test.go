package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestFromDataToSpec(t *testing.T) {
	got, err := FromDataToSpec([]byte("name: store\n"), sample{Name: "default", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, "store", got.Name)
	assert.Equal(t, 3, got.Count)

	got, err = FromDataToSpec([]byte(`{"count": 7}`), sample{Name: "default"})
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "default", Count: 7}, *got)

	_, err = FromDataToSpec([]byte("count: [1"), sample{})
	assert.Error(t, err)
}
