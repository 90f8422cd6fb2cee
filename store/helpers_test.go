// store/helpers_test.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package store

import (
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func newTestZstdWriter(t *testing.T, w io.Writer) *zstd.Encoder {
	t.Helper()
	zw, err := zstd.NewWriter(w)
	require.NoError(t, err)
	return zw
}
