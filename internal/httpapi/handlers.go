package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/simri/simri/internal/ingest"
	"github.com/simri/simri/internal/mri"
	"github.com/simri/simri/internal/patientstore"
)

// detailSimilarLimit caps the cached similarity list on the detail view.
const detailSimilarLimit = 3

// Handler serves the patient API.
type Handler struct {
	cfg      Config
	ingestor Ingestor
	records  RecordReader
	signer   URLSigner
	logger   Logger
}

func NewHandler(cfg Config, ingestor Ingestor, records RecordReader, signer URLSigner, logger Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		ingestor: ingestor,
		records:  records,
		signer:   signer,
		logger:   logger,
	}
}

// RegisterRoutes attaches every route to the server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/patients", h.createPatient)
	api.GET("/patients", h.listPatients)
	api.GET("/patients/samples", h.listSamples)
	api.GET("/patients/:patientId", h.getPatient)
	api.DELETE("/patients/:patientId", h.deletePatient)

	e.GET("/healthz", h.health)
}

// sampleRequest is the JSON shape of the sample ingestion path.
type sampleRequest struct {
	IsSample    bool             `json:"isSample"`
	PatientID   string           `json:"patientId"`
	Clinical    mri.ClinicalData `json:"clinicalData"`
	StorageKeys mri.ModalityRefs `json:"storageKeys"`
}

func (h *Handler) createPatient(c echo.Context) error {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	var req ingest.Request
	switch {
	case strings.HasPrefix(contentType, echo.MIMEApplicationJSON):
		parsed, err := h.parseSampleRequest(c)
		if err != nil {
			return h.errorResponse(c, err)
		}
		req = parsed

	case strings.HasPrefix(contentType, echo.MIMEMultipartForm):
		parsed, closeFiles, err := h.parseUploadRequest(c)
		if err != nil {
			return h.errorResponse(c, err)
		}
		defer closeFiles()
		req = parsed

	default:
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{
			"message": fmt.Sprintf("unsupported content type %q, expected application/json or multipart/form-data", contentType),
		})
	}

	result, err := h.ingestor.Ingest(c.Request().Context(), req)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) parseSampleRequest(c echo.Context) (ingest.Request, error) {
	var body sampleRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return ingest.Request{}, &ingest.ValidationError{Reason: fmt.Sprintf("malformed JSON body: %v", err)}
	}
	if !body.IsSample {
		return ingest.Request{}, &ingest.ValidationError{Reason: "JSON ingestion requires the isSample flag"}
	}

	// A bare catalogue reference is enough; the server fills in the rest.
	if len(body.StorageKeys) == 0 {
		sample, ok := ingest.SampleByID(body.PatientID)
		if !ok {
			return ingest.Request{}, &ingest.ValidationError{Reason: "storageKeys are required for samples outside the catalogue"}
		}
		body.StorageKeys = sample.StorageKeys
		if body.Clinical.Diagnosis == "" {
			body.Clinical = sample.Clinical
		}
	}

	return ingest.Request{
		PatientID:   body.PatientID,
		Clinical:    body.Clinical,
		IsSample:    true,
		StorageKeys: body.StorageKeys,
	}, nil
}

func (h *Handler) parseUploadRequest(c echo.Context) (ingest.Request, func(), error) {
	noop := func() {}

	patientID := c.FormValue("patientId")
	clinicalJSON := c.FormValue("clinicalData")
	if patientID == "" || clinicalJSON == "" {
		return ingest.Request{}, noop, &ingest.ValidationError{Reason: "patientId and clinicalData form fields are required"}
	}

	var clinical mri.ClinicalData
	if err := json.Unmarshal([]byte(clinicalJSON), &clinical); err != nil {
		return ingest.Request{}, noop, &ingest.ValidationError{Reason: fmt.Sprintf("malformed clinicalData JSON: %v", err)}
	}

	uploads := make(map[mri.Modality]ingest.Upload)
	var closers []func()
	closeFiles := func() {
		for _, closeFile := range closers {
			closeFile()
		}
	}

	for _, modality := range mri.Modalities() {
		fileHeader, err := c.FormFile(string(modality))
		if err != nil {
			// Part absent; the pipeline decides whether that is tolerable.
			continue
		}

		file, err := fileHeader.Open()
		if err != nil {
			closeFiles()
			return ingest.Request{}, noop, &ingest.ValidationError{Reason: fmt.Sprintf("unreadable %s file part: %v", modality, err)}
		}
		closers = append(closers, func() { _ = file.Close() })

		contentType := fileHeader.Header.Get(echo.HeaderContentType)
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		uploads[modality] = ingest.Upload{
			FileName:    fileHeader.Filename,
			ContentType: contentType,
			Size:        fileHeader.Size,
			Reader:      file,
		}
	}

	return ingest.Request{
		PatientID: patientID,
		Clinical:  clinical,
		Uploads:   uploads,
	}, closeFiles, nil
}

// patientDetail is the detail view of one case.
type patientDetail struct {
	PatientID           string               `json:"patient_id"`
	ClinicalData        mri.ClinicalData     `json:"clinical_data"`
	MRIFilesURLs        map[string]*string   `json:"mri_files_urls"`
	DisplayThumbnailURL *string              `json:"display_thumbnail_url"`
	SimilarPatients     []mri.SimilarPatient `json:"similar_patients"`
	UploadedAt          time.Time            `json:"uploaded_at"`
}

func (h *Handler) getPatient(c echo.Context) error {
	ctx := c.Request().Context()
	patientID := c.Param("patientId")

	record, err := h.records.GetByPublicID(ctx, patientID)
	if err != nil {
		h.logger.Error("failed to fetch patient record", err, map[string]interface{}{
			"patient_id": patientID,
		})
		return h.errorResponse(c, err)
	}
	if record == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Patient not found"})
	}

	// Each modality URL is independently nullable: a missing reference or
	// a failed signing both yield null without failing the request.
	fileURLs := make(map[string]*string, len(mri.Modalities()))
	refs := mri.ModalityRefs(record.ModalityRefs).Normalized()
	for modality, ref := range refs {
		fileURLs[string(modality)] = h.signRef(ctx, ref, patientID)
	}

	similar := []mri.SimilarPatient(record.SimilarPatients)
	if len(similar) > detailSimilarLimit {
		similar = similar[:detailSimilarLimit]
	}
	if similar == nil {
		similar = []mri.SimilarPatient{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"patient": patientDetail{
			PatientID:           record.PublicID,
			ClinicalData:        mri.ClinicalData(record.Clinical),
			MRIFilesURLs:        fileURLs,
			DisplayThumbnailURL: h.signRef(ctx, record.ThumbnailRef, patientID),
			SimilarPatients:     similar,
			UploadedAt:          record.UploadedAt,
		},
	})
}

// signRef resolves a reference to a nullable signed URL.
func (h *Handler) signRef(ctx context.Context, ref, patientID string) *string {
	if ref == "" {
		return nil
	}
	url, err := h.signer.SignedGet(ctx, ref, 0)
	if err != nil || url == "" {
		if err != nil {
			h.logger.Warn("failed to sign storage reference", err, map[string]interface{}{
				"patient_id": patientID,
				"reference":  ref,
			})
		}
		return nil
	}
	return &url
}

func (h *Handler) deletePatient(c echo.Context) error {
	patientID := c.Param("patientId")

	err := h.ingestor.Remove(c.Request().Context(), patientID)
	if errors.Is(err, ingest.ErrUnknownPatient) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Patient not found"})
	}
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Patient deleted"})
}

// patientSummary is one row of the listing.
type patientSummary struct {
	PatientID    string           `json:"patient_id"`
	ClinicalData mri.ClinicalData `json:"clinical_data"`
	Diagnosis    string           `json:"diagnosis"`
	Age          int              `json:"age"`
	ThumbnailURL *string          `json:"thumbnail_url"`
	UploadedAt   time.Time        `json:"uploaded_at"`
}

func (h *Handler) listPatients(c echo.Context) error {
	ctx := c.Request().Context()

	query := patientstore.ListQuery{
		Search:    strings.TrimSpace(c.QueryParam("search")),
		Diagnosis: strings.TrimSpace(c.QueryParam("diagnosis")),
		AgeMin:    parseParamInt(c.QueryParam("ageMin"), 0),
		AgeMax:    parseParamInt(c.QueryParam("ageMax"), 0),
		Skip:      parseParamInt(c.QueryParam("skip"), 0),
		Limit:     parseParamInt(c.QueryParam("limit"), 0),
	}
	if fetched := c.QueryParam("fetched"); fetched != "" {
		for _, id := range strings.Split(fetched, ",") {
			if id = strings.TrimSpace(id); id != "" {
				query.ExcludeIDs = append(query.ExcludeIDs, id)
			}
		}
	}

	result, err := h.records.List(ctx, query)
	if err != nil {
		h.logger.Error("failed to list patient records", err, nil)
		return h.errorResponse(c, err)
	}

	patients := make([]patientSummary, 0, len(result.Items))
	for _, record := range result.Items {
		clinical := mri.ClinicalData(record.Clinical)
		patients = append(patients, patientSummary{
			PatientID:    record.PublicID,
			ClinicalData: clinical,
			Diagnosis:    clinical.Diagnosis,
			Age:          clinical.Age,
			ThumbnailURL: h.signRef(ctx, record.ThumbnailRef, record.PublicID),
			UploadedAt:   record.UploadedAt,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"patients":   patients,
		"hasMore":    result.HasMore,
		"totalCount": result.TotalCount,
	})
}

func (h *Handler) listSamples(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"samples": ingest.Samples()})
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// errorResponse maps a pipeline error onto its `{message}` envelope.
func (h *Handler) errorResponse(c echo.Context, err error) error {
	body := echo.Map{"message": err.Error()}
	if h.cfg.DebugErrors {
		body["details"] = errorChain(err)
	}
	return c.JSON(ingest.HTTPStatus(err), body)
}

// errorChain renders the unwrap chain, outermost first.
func errorChain(err error) []string {
	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, e.Error())
	}
	return chain
}

func parseParamInt(param string, defaultValue int) int {
	n, err := strconv.Atoi(param)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
