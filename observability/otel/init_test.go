package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders("api-key=secret, tenant = dsc ,broken,=nokey")
	require.Equal(t, map[string]string{"api-key": "secret", "tenant": "dsc"}, headers)

	require.Empty(t, ParseHeaders(""))
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)
}
