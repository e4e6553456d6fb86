package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	traceapi "go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/simri/simri/internal/ingest"
	"github.com/simri/simri/internal/mri"
	"github.com/simri/simri/internal/patientstore"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

type nopObserver struct{}

func (nopObserver) ObserveHTTPRequest(string, string) {}

type fakeTracer struct {
	spans []string
	errs  []error
}

func (f *fakeTracer) StartSpan(ctx context.Context, name string) (context.Context, traceapi.Span) {
	f.spans = append(f.spans, name)
	return tracenoop.NewTracerProvider().Tracer("").Start(ctx, name)
}

func (f *fakeTracer) RecordErrorOnSpan(_ traceapi.Span, err error) {
	f.errs = append(f.errs, err)
}

func (f *fakeTracer) SetAttributes(traceapi.Span, map[string]interface{}) {}

func (f *fakeTracer) SetCarrierOnContext(ctx context.Context, _ map[string]string) context.Context {
	return ctx
}

type fakeIngestor struct {
	got       ingest.Request
	result    *ingest.Result
	err       error
	removed   []string
	removeErr error
}

func (f *fakeIngestor) Ingest(_ context.Context, req ingest.Request) (*ingest.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &ingest.Result{PatientID: req.PatientID, Operation: ingest.OperationCreated}, nil
}

func (f *fakeIngestor) Remove(_ context.Context, patientID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, patientID)
	return nil
}

type fakeReader struct {
	record     *patientstore.PatientRecord
	listResult *patientstore.ListResult
	gotQuery   patientstore.ListQuery
	err        error
}

func (f *fakeReader) GetByPublicID(_ context.Context, _ string) (*patientstore.PatientRecord, error) {
	return f.record, f.err
}

func (f *fakeReader) List(_ context.Context, q patientstore.ListQuery) (*patientstore.ListResult, error) {
	f.gotQuery = q
	if f.err != nil {
		return nil, f.err
	}
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &patientstore.ListResult{Items: []patientstore.PatientRecord{}}, nil
}

type fakeSigner struct {
	err error
}

func (f *fakeSigner) SignedGet(_ context.Context, reference string, _ time.Duration) (string, error) {
	if reference == "" {
		return "", nil
	}
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example/" + reference, nil
}

type testAPI struct {
	server   *echo.Echo
	ingestor *fakeIngestor
	reader   *fakeReader
	signer   *fakeSigner
	tracer   *fakeTracer
}

func newTestAPI(cfg Config) *testAPI {
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "32M"
	}
	api := &testAPI{
		ingestor: &fakeIngestor{},
		reader:   &fakeReader{},
		signer:   &fakeSigner{},
		tracer:   &fakeTracer{},
	}
	handler := NewHandler(cfg, api.ingestor, api.reader, api.signer, nopLogger{})
	api.server = NewServer(cfg, handler, nopLogger{}, nopObserver{}, api.tracer)
	return api
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func multipartUpload(t *testing.T, patientID, clinicalJSON string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("patientId", patientID))
	require.NoError(t, w.WriteField("clinicalData", clinicalJSON))
	for part, name := range files {
		fw, err := w.CreateFormFile(part, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(fmt.Sprintf("%s bytes", part)))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreatePatientMultipart(t *testing.T) {
	api := newTestAPI(Config{})

	body, contentType := multipartUpload(t, "P-100",
		`{"age":62,"sex":"F","diagnosis":"Glioblastoma"}`,
		map[string]string{"t1c": "t1c.nii.gz", "t2f": "t2f.nii.gz"})

	req := httptest.NewRequest(http.MethodPost, "/api/patients", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := api.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "P-100", resp["patient_id"])
	assert.Equal(t, "created", resp["operation"])

	got := api.ingestor.got
	assert.Equal(t, "P-100", got.PatientID)
	assert.Equal(t, 62, got.Clinical.Age)
	assert.False(t, got.IsSample)
	require.Len(t, got.Uploads, 2)
	assert.Equal(t, "t1c.nii.gz", got.Uploads[mri.T1c].FileName)
	_, hasSeg := got.Uploads[mri.Seg]
	assert.False(t, hasSeg)
}

func TestCreatePatientSampleJSON(t *testing.T) {
	api := newTestAPI(Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/patients",
		strings.NewReader(`{"isSample":true,"patientId":"Sample_Patient1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := api.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)

	got := api.ingestor.got
	assert.True(t, got.IsSample)
	assert.Equal(t, "Sample_Patient1", got.PatientID)
	// Catalogue filled in the declared references and clinical data.
	assert.Equal(t, "Glioblastoma", got.Clinical.Diagnosis)
	assert.Len(t, got.StorageKeys, 5)
	assert.Empty(t, got.Uploads)
}

func TestCreatePatientJSONWithoutSampleFlag(t *testing.T) {
	api := newTestAPI(Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/patients",
		strings.NewReader(`{"patientId":"P-1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := api.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "isSample")
}

func TestCreatePatientUnsupportedContentType(t *testing.T) {
	api := newTestAPI(Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader("t1c data"))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec := api.do(req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCreatePatientPipelineErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"Validation", &ingest.ValidationError{Reason: "age must be a positive number"}, http.StatusBadRequest},
		{"StorageWrite", &ingest.StorageWriteError{Err: errors.New("minio down")}, http.StatusServiceUnavailable},
		{"EmbeddingService", &ingest.EmbeddingServiceError{Err: errors.New("inference down")}, http.StatusServiceUnavailable},
		{"Persistence", &ingest.PersistenceError{Err: errors.New("pg down")}, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(Config{})
			api.ingestor.err = tc.err

			req := httptest.NewRequest(http.MethodPost, "/api/patients",
				strings.NewReader(`{"isSample":true,"patientId":"Sample_Patient1"}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := api.do(req)

			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.NotEmpty(t, body["message"])
			_, hasDetails := body["details"]
			assert.False(t, hasDetails)
		})
	}
}

func TestCreatePatientDebugErrorsIncludeChain(t *testing.T) {
	api := newTestAPI(Config{DebugErrors: true})
	api.ingestor.err = &ingest.EmbeddingServiceError{Err: errors.New("inference down")}

	req := httptest.NewRequest(http.MethodPost, "/api/patients",
		strings.NewReader(`{"isSample":true,"patientId":"Sample_Patient1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := api.do(req)

	body := decodeBody(t, rec)
	details, ok := body["details"].([]interface{})
	require.True(t, ok)
	require.Len(t, details, 2)
	assert.Contains(t, details[1], "inference down")
}

func detailRecord() *patientstore.PatientRecord {
	return &patientstore.PatientRecord{
		PatientID: "P-33",
		PublicID:  "P-33",
		Clinical: patientstore.ClinicalColumn{
			Age:       71,
			Sex:       mri.SexMale,
			Diagnosis: "Meningioma",
		},
		ModalityRefs: patientstore.RefsColumn{
			mri.T1c: "patients/P-33/t1c-scan.nii.gz",
			mri.Seg: "patients/P-33/seg-scan.nii.gz",
		},
		ThumbnailRef: "patients/P-33/thumbnail_display.png",
		SimilarPatients: patientstore.SimilarColumn{
			{PatientID: "P-1", Score: 0.99},
			{PatientID: "P-2", Score: 0.95},
			{PatientID: "P-3", Score: 0.91},
			{PatientID: "P-4", Score: 0.90},
		},
		UploadedAt: time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestGetPatientDetail(t *testing.T) {
	api := newTestAPI(Config{})
	api.reader.record = detailRecord()

	rec := api.do(httptest.NewRequest(http.MethodGet, "/api/patients/P-33", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	patient, ok := body["patient"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "P-33", patient["patient_id"])

	urls, ok := patient["mri_files_urls"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, urls, 5)
	assert.Equal(t, "https://signed.example/patients/P-33/t1c-scan.nii.gz", urls["t1c"])
	assert.Nil(t, urls["t1n"])
	assert.Nil(t, urls["t2f"])
	assert.Nil(t, urls["t2w"])

	assert.Equal(t, "https://signed.example/patients/P-33/thumbnail_display.png", patient["display_thumbnail_url"])

	similar, ok := patient["similar_patients"].([]interface{})
	require.True(t, ok)
	assert.Len(t, similar, 3)
}

func TestGetPatientSigningFailureNullsURL(t *testing.T) {
	api := newTestAPI(Config{})
	api.reader.record = detailRecord()
	api.signer.err = errors.New("signing failed")

	rec := api.do(httptest.NewRequest(http.MethodGet, "/api/patients/P-33", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	patient := decodeBody(t, rec)["patient"].(map[string]interface{})
	urls := patient["mri_files_urls"].(map[string]interface{})
	assert.Nil(t, urls["t1c"])
	assert.Nil(t, patient["display_thumbnail_url"])
}

func TestGetPatientNotFound(t *testing.T) {
	api := newTestAPI(Config{})

	rec := api.do(httptest.NewRequest(http.MethodGet, "/api/patients/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Patient not found", decodeBody(t, rec)["message"])
}

func TestDeletePatient(t *testing.T) {
	api := newTestAPI(Config{})

	rec := api.do(httptest.NewRequest(http.MethodDelete, "/api/patients/P-33", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Patient deleted", decodeBody(t, rec)["message"])
	assert.Equal(t, []string{"P-33"}, api.ingestor.removed)
}

func TestDeletePatientNotFound(t *testing.T) {
	api := newTestAPI(Config{})
	api.ingestor.removeErr = ingest.ErrUnknownPatient

	rec := api.do(httptest.NewRequest(http.MethodDelete, "/api/patients/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Patient not found", decodeBody(t, rec)["message"])
}

func TestDeletePatientPersistenceFailure(t *testing.T) {
	api := newTestAPI(Config{})
	api.ingestor.removeErr = &ingest.PersistenceError{Err: errors.New("pg down")}

	rec := api.do(httptest.NewRequest(http.MethodDelete, "/api/patients/P-9", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestsAreTraced(t *testing.T) {
	api := newTestAPI(Config{})

	rec := api.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"GET /healthz"}, api.tracer.spans)
}

func TestListPatientsQueryMapping(t *testing.T) {
	api := newTestAPI(Config{})
	api.reader.listResult = &patientstore.ListResult{
		Items: []patientstore.PatientRecord{{
			PatientID:    "P-1",
			PublicID:     "P-1",
			Clinical:     patientstore.ClinicalColumn{Age: 58, Diagnosis: "Glioblastoma"},
			ThumbnailRef: "patients/P-1/thumbnail_display.png",
		}},
		TotalCount: 30,
		HasMore:    true,
	}

	target := "/api/patients?search=glio&diagnosis=GBM&ageMin=40&ageMax=70&limit=10&skip=20&fetched=P-2,P-3,"
	rec := api.do(httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	q := api.reader.gotQuery
	assert.Equal(t, "glio", q.Search)
	assert.Equal(t, "GBM", q.Diagnosis)
	assert.Equal(t, 40, q.AgeMin)
	assert.Equal(t, 70, q.AgeMax)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 20, q.Skip)
	assert.Equal(t, []string{"P-2", "P-3"}, q.ExcludeIDs)
	assert.False(t, q.IncludeSamples)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["hasMore"])
	assert.Equal(t, float64(30), body["totalCount"])

	patients := body["patients"].([]interface{})
	require.Len(t, patients, 1)
	row := patients[0].(map[string]interface{})
	assert.Equal(t, "P-1", row["patient_id"])
	assert.Equal(t, "Glioblastoma", row["diagnosis"])
	assert.Equal(t, float64(58), row["age"])
	assert.Equal(t, "https://signed.example/patients/P-1/thumbnail_display.png", row["thumbnail_url"])
}

func TestListPatientsDefaults(t *testing.T) {
	api := newTestAPI(Config{})

	rec := api.do(httptest.NewRequest(http.MethodGet, "/api/patients?ageMin=-4&limit=abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	q := api.reader.gotQuery
	assert.Zero(t, q.AgeMin)
	assert.Zero(t, q.AgeMax)
	assert.Zero(t, q.Limit)
	assert.Empty(t, q.ExcludeIDs)
}

func TestListSamples(t *testing.T) {
	api := newTestAPI(Config{})

	rec := api.do(httptest.NewRequest(http.MethodGet, "/api/patients/samples", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	samples := decodeBody(t, rec)["samples"].([]interface{})
	require.Len(t, samples, 2)
	first := samples[0].(map[string]interface{})
	assert.Equal(t, "Sample_Patient1", first["patientId"])
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(Config{})

	rec := api.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}
