package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

func TestIsNoSuchKey(t *testing.T) {
	require.False(t, IsNoSuchKey(nil))
	require.True(t, IsNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	require.True(t, IsNoSuchKey(fmt.Errorf("remove: %w", minio.ErrorResponse{Code: "NotFound"})))
	require.True(t, IsNoSuchKey(errors.New("The specified key does not exist.")))
	require.False(t, IsNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
	require.False(t, IsNoSuchKey(errors.New("connection refused")))
}
