package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderQR(t *testing.T) {
	png, err := GenerateOrderQR("order-42", "user-1")
	require.NoError(t, err)

	// Signature PNG
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestGenerateOrderQRBase64(t *testing.T) {
	data, err := GenerateOrderQRBase64("order-42", "user-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(data, "data:image/png;base64,"))
}
