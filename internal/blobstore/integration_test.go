package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}

// createMinIOContainer sets up and starts a MinIO Docker container for testing
func createMinIOContainer(ctx context.Context) (testcontainers.Container, string, string, error) {
	// Get a random free port
	port, err := getFreePort()
	if err != nil {
		return nil, "", "", fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"9000/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		Cmd:   []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ACCESS_KEY": "minio_admin",
			"MINIO_SECRET_KEY": "minio_admin",
		},
		ExposedPorts: []string{
			"9000/tcp",
		},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9000/tcp").WithStartupTimeout(20*time.Second),
			wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(20*time.Second),
		),
	}

	containerInstance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to start MinIO container: %w", err)
	}

	host, err := containerInstance.Host(ctx)
	if err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, "", "", fmt.Errorf("failed to get host: %w", err)
	}

	return containerInstance, host, portStr, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func(addr net.Listener) {
		err := addr.Close()
		if err != nil {
			fmt.Printf("Failed to close listener: %v", err)
		}
	}(addr)

	return addr.Addr().(*net.TCPAddr).Port, nil
}

// TestGatewayWithFXModule exercises the gateway end to end against a real
// MinIO instance, wired through Fx like production.
func TestGatewayWithFXModule(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	minioContainer, host, port, err := createMinIOContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := minioContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using MinIO on %s:%s", host, port)

	cfg := Config{
		Connection: ConnectionConfig{
			Endpoint:        fmt.Sprintf("%s:%s", host, port),
			AccessKeyID:     "minio_admin",
			SecretAccessKey: "minio_admin",
			UseSSL:          false,
			BucketName:      "modality-files",
			Region:          "us-east-1",
		},
		Presigned: PresignedConfig{
			ExpiryDuration: time.Minute,
		},
	}

	var gateway *Gateway
	app := fxtest.New(t,
		fx.Provide(
			func() Config { return cfg },
			func() Logger { return nopLogger{} },
			NewGateway,
		),
		fx.Invoke(RegisterLifecycle),
		fx.Populate(&gateway),
	)

	err = app.Start(ctx)
	require.NoError(t, err)
	require.NotNil(t, gateway)
	assert.Equal(t, "modality-files", gateway.Bucket())

	t.Run("PutThenGetRoundTrip", func(t *testing.T) {
		payload := []byte("not quite a NIfTI volume")

		storedKey, err := gateway.Put(ctx, "patients/P-100/t1c-scan.nii.gz", bytes.NewReader(payload), int64(len(payload)), "application/gzip")
		require.NoError(t, err)
		assert.Equal(t, "patients/P-100/t1c-scan.nii.gz", storedKey)

		data, err := gateway.Get(ctx, storedKey)
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("PutRejectsEmptyKey", func(t *testing.T) {
		_, err := gateway.Put(ctx, "", bytes.NewReader(nil), 0, "")
		assert.Error(t, err)
	})

	t.Run("SignedGetServesObject", func(t *testing.T) {
		payload := []byte("thumbnail bytes")
		_, err := gateway.Put(ctx, "patients/P-101/thumbnail.png", bytes.NewReader(payload), int64(len(payload)), "image/png")
		require.NoError(t, err)

		signedURL, err := gateway.SignedGet(ctx, "patients/P-101/thumbnail.png", 0)
		require.NoError(t, err)
		require.NotEmpty(t, signedURL)

		resp, err := http.Get(signedURL)
		require.NoError(t, err)
		defer func() {
			require.NoError(t, resp.Body.Close())
		}()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, payload, body)
	})

	t.Run("SignedGetEmptyReferenceYieldsEmptyURL", func(t *testing.T) {
		signedURL, err := gateway.SignedGet(ctx, "", 0)
		require.NoError(t, err)
		assert.Empty(t, signedURL)
	})

	t.Run("DeleteRemovesObject", func(t *testing.T) {
		payload := []byte("flair volume")
		_, err := gateway.Put(ctx, "patients/P-102/flair-scan.nii.gz", bytes.NewReader(payload), int64(len(payload)), "application/gzip")
		require.NoError(t, err)

		require.NoError(t, gateway.Delete(ctx, "patients/P-102/flair-scan.nii.gz"))

		_, err = gateway.Get(ctx, "patients/P-102/flair-scan.nii.gz")
		assert.Error(t, err)
	})
}
