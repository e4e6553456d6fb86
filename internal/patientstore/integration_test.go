package patientstore

import (
	"context"
	"fmt"
	"net"
	"os"
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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/simri/simri/internal/mri"
)

// PostgresContainer represents a Postgres container for testing
type PostgresContainer struct {
	testcontainers.Container
	Config Config
	Host   string
	Port   string
}

// setupPostgresContainer sets up a Postgres container for testing
func setupPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	// Get a random free port
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"5432/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "postgres:15",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	// Double-check port mapping (could be different from requested)
	mappedPort, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}
	portStr = mappedPort.Port()

	// Wait for PostgreSQL to be fully ready for connections
	err = waitForPostgresReady(host, portStr, 30*time.Second)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("postgres container not ready: %w", err)
	}

	config := Config{
		Connection: Connection{
			Host:     host,
			Port:     portStr,
			User:     "testuser",
			Password: "testpass",
			DbName:   "testdb",
			SSLMode:  "disable",
		},
	}

	return &PostgresContainer{
		Container: pgContainer,
		Config:    config,
		Host:      host,
		Port:      portStr,
	}, nil
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

// waitForPostgresReady attempts to connect until the database accepts
// connections or the timeout elapses.
func waitForPostgresReady(host, port string, timeout time.Duration) error {
	connStr := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable", host, port)

	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for PostgreSQL to be ready after %s", timeout)
		}

		db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil && sqlDB.Ping() == nil {
				return sqlDB.Close()
			}
			if dbErr == nil {
				_ = sqlDB.Close()
			}
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

func testRecord(patientID string, age int, diagnosis string, uploadedAt time.Time) *PatientRecord {
	return &PatientRecord{
		PatientID: patientID,
		PublicID:  patientID,
		Clinical: ClinicalColumn{
			Age:       age,
			Sex:       mri.SexMale,
			Diagnosis: diagnosis,
		},
		ModalityRefs: RefsColumn{
			mri.T1c: fmt.Sprintf("patients/%s/t1c-scan.nii.gz", patientID),
		},
		Embedding:       VectorColumn{0.1, 0.2, 0.3},
		SimilarPatients: SimilarColumn{},
		UploadedAt:      uploadedAt,
	}
}

// TestStoreWithFXModule exercises the store end to end against a real
// postgres instance, wired through the FX module like production.
func TestStoreWithFXModule(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := setupPostgresContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using PostgreSQL on %s:%s", pgContainer.Host, pgContainer.Port)

	var store *Store
	app := fxtest.New(t,
		fx.Provide(
			func() Config {
				return pgContainer.Config
			},
			NewStore,
		),
		fx.Invoke(RegisterStoreLifecycle),
		fx.Populate(&store),
	)

	err = app.Start(ctx)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Run("UpsertCreatesThenUpdates", func(t *testing.T) {
		record := testRecord("P-001", 58, "Glioblastoma", time.Now().UTC())

		created, err := store.Upsert(ctx, record)
		require.NoError(t, err)
		assert.True(t, created)

		// Second upsert for the same patient id replaces the document.
		record.Clinical.Diagnosis = "Glioblastoma, IDH-wildtype"
		record.Embedding = VectorColumn{0.4, 0.5, 0.6}
		created, err = store.Upsert(ctx, record)
		require.NoError(t, err)
		assert.False(t, created)

		fetched, err := store.GetByID(ctx, "P-001")
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, "Glioblastoma, IDH-wildtype", fetched.Clinical.Diagnosis)
		assert.Equal(t, VectorColumn{0.4, 0.5, 0.6}, fetched.Embedding)

		var count int64
		require.NoError(t, store.db.Model(&PatientRecord{}).Where("patient_id = ?", "P-001").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("UpsertRejectsEmptyID", func(t *testing.T) {
		_, err := store.Upsert(ctx, &PatientRecord{})
		assert.Error(t, err)
	})

	t.Run("DeleteRemovesRecord", func(t *testing.T) {
		record := testRecord("P-050", 44, "Astrocytoma", time.Now().UTC())
		_, err := store.Upsert(ctx, record)
		require.NoError(t, err)

		found, err := store.Delete(ctx, "P-050")
		require.NoError(t, err)
		assert.True(t, found)

		fetched, err := store.GetByID(ctx, "P-050")
		require.NoError(t, err)
		assert.Nil(t, fetched)

		// Deleting again reports nothing found.
		found, err = store.Delete(ctx, "P-050")
		require.NoError(t, err)
		assert.False(t, found)

		_, err = store.Delete(ctx, "")
		assert.Error(t, err)
	})

	t.Run("GetMissingRecordYieldsNil", func(t *testing.T) {
		record, err := store.GetByID(ctx, "nope")
		assert.NoError(t, err)
		assert.Nil(t, record)

		record, err = store.GetByPublicID(ctx, "nope")
		assert.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("Listing", func(t *testing.T) {
		require.NoError(t, store.db.Exec("DELETE FROM patient_records").Error)

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		seed := []*PatientRecord{
			testRecord("L-001", 58, "Glioblastoma", base.Add(1*time.Hour)),
			testRecord("L-002", 45, "Low-Grade Glioma", base.Add(2*time.Hour)),
			testRecord("L-003", 71, "Glioblastoma", base.Add(3*time.Hour)),
			testRecord("L-004", 33, "Meningioma", base.Add(4*time.Hour)),
		}
		sample := testRecord("Sample_Patient1", 58, "Glioblastoma", base)
		sample.IsExternalSample = true
		seed = append(seed, sample)

		for _, record := range seed {
			_, err := store.Upsert(ctx, record)
			require.NoError(t, err)
		}

		t.Run("NewestFirstAndSamplesExcluded", func(t *testing.T) {
			result, err := store.List(ctx, ListQuery{})
			require.NoError(t, err)
			require.Len(t, result.Items, 4)
			assert.Equal(t, int64(4), result.TotalCount)
			assert.False(t, result.HasMore)
			assert.Equal(t, "L-004", result.Items[0].PublicID)
			assert.Equal(t, "L-001", result.Items[3].PublicID)
		})

		t.Run("IncludeSamples", func(t *testing.T) {
			result, err := store.List(ctx, ListQuery{IncludeSamples: true})
			require.NoError(t, err)
			assert.Equal(t, int64(5), result.TotalCount)
		})

		t.Run("SearchMatchesIDOrDiagnosis", func(t *testing.T) {
			result, err := store.List(ctx, ListQuery{Search: "glio"})
			require.NoError(t, err)
			assert.Equal(t, int64(3), result.TotalCount)

			result, err = store.List(ctx, ListQuery{Search: "L-004"})
			require.NoError(t, err)
			require.Len(t, result.Items, 1)
			assert.Equal(t, "L-004", result.Items[0].PublicID)
		})

		t.Run("DiagnosisFilter", func(t *testing.T) {
			result, err := store.List(ctx, ListQuery{Diagnosis: "glioblastoma"})
			require.NoError(t, err)
			assert.Equal(t, int64(2), result.TotalCount)
		})

		t.Run("AgeRange", func(t *testing.T) {
			result, err := store.List(ctx, ListQuery{AgeMin: 40, AgeMax: 60})
			require.NoError(t, err)
			require.Len(t, result.Items, 2)
			for _, item := range result.Items {
				assert.GreaterOrEqual(t, item.Clinical.Age, 40)
				assert.LessOrEqual(t, item.Clinical.Age, 60)
			}
		})

		t.Run("ExcludeFetchedIDs", func(t *testing.T) {
			result, err := store.List(ctx, ListQuery{ExcludeIDs: []string{"L-003", "L-004"}})
			require.NoError(t, err)
			assert.Equal(t, int64(2), result.TotalCount)
			for _, item := range result.Items {
				assert.NotContains(t, []string{"L-003", "L-004"}, item.PublicID)
			}
		})

		t.Run("Pagination", func(t *testing.T) {
			page1, err := store.List(ctx, ListQuery{Limit: 3})
			require.NoError(t, err)
			assert.Len(t, page1.Items, 3)
			assert.True(t, page1.HasMore)

			page2, err := store.List(ctx, ListQuery{Skip: 3, Limit: 3})
			require.NoError(t, err)
			assert.Len(t, page2.Items, 1)
			assert.False(t, page2.HasMore)
		})

		t.Run("LikeWildcardsEscaped", func(t *testing.T) {
			result, err := store.List(ctx, ListQuery{Search: "%"})
			require.NoError(t, err)
			assert.Equal(t, int64(0), result.TotalCount)
		})
	})

	require.NoError(t, app.Stop(ctx))
}
