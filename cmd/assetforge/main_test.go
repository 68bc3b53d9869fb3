package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismrt/assetforge/internal/config"
)

func TestParseSearchPathFlags(t *testing.T) {
	paths, err := parseSearchPathFlags([]string{"10:/assets/base", "/assets/plain", "3:relative/dir"})
	require.NoError(t, err)

	assert.Equal(t, []config.SearchPath{
		{Priority: 10, Path: "/assets/base"},
		{Priority: 0, Path: "/assets/plain"},
		{Priority: 3, Path: "relative/dir"},
	}, paths)
}

func TestParseSearchPathFlagsRejectsEmptyPath(t *testing.T) {
	_, err := parseSearchPathFlags([]string{"5:"})
	require.Error(t, err)
}

func TestParseHashFlag(t *testing.T) {
	h, err := parseHashFlag("0xABCD")
	require.NoError(t, err)
	assert.Equal(t, uint64(0xabcd), h)

	h, err = parseHashFlag("1234")
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), h)

	_, err = parseHashFlag("0xzz")
	require.Error(t, err)
	_, err = parseHashFlag("notahash")
	require.Error(t, err)
}
