package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmission-service/models"
	"readmission-service/risk"
	"readmission-service/security"
)

type fixedPredictor struct {
	p float64
}

func (f fixedPredictor) Predict(models.FeatureRecord) (float64, error) { return f.p, nil }
func (f fixedPredictor) Version() string                              { return "test-model" }

func newTestRouter(p float64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := risk.NewService(risk.DefaultMappings(), fixedPredictor{p: p})
	rc := NewRiskController(svc)

	r := gin.New()
	r.POST("/predict", rc.Predict)
	r.POST("/predict/batch", rc.BatchPredict)
	r.GET("/predict/schema", rc.Schema)
	return r
}

func validFormJSON() map[string]interface{} {
	return map[string]interface{}{
		"age_group":              "[70-80)",
		"race":                   "Caucasian",
		"gender":                 "Female",
		"time_in_hospital":       4,
		"num_procedures":         1,
		"num_medications":        10,
		"prior_inpatient_visits": 0,
		"discharge_disposition":  "Home",
		"medication_change":      "No",
		"a1c_result":             "Norm",
		"insulin_status":         "No",
		"primary_diagnosis":      250,
	}
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPredictEndpoint(t *testing.T) {
	r := newTestRouter(0.65)

	w := postJSON(t, r, "/predict", validFormJSON())
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RiskAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 0.65, resp.Probability)
	assert.Equal(t, 65, resp.RiskIndex)
	assert.Equal(t, models.TierHigh, resp.RiskTier)
	assert.Equal(t, risk.AdviceHigh, resp.Recommendation)
	assert.Equal(t, "test-model", resp.ModelVersion)
}

func TestPredictEndpointValidation(t *testing.T) {
	r := newTestRouter(0.2)

	t.Run("missing required field", func(t *testing.T) {
		body := validFormJSON()
		delete(body, "age_group")
		w := postJSON(t, r, "/predict", body)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp security.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, security.CodeValidationError, resp.Code)
	})

	t.Run("out of range stay", func(t *testing.T) {
		body := validFormJSON()
		body["time_in_hospital"] = 45
		w := postJSON(t, r, "/predict", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of domain categorical", func(t *testing.T) {
		body := validFormJSON()
		body["discharge_disposition"] = "Hospice"
		w := postJSON(t, r, "/predict", body)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp security.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, security.CodeOutOfDomainInput, resp.Code)
		assert.Contains(t, resp.Message, "Hospice")
	})
}

func csvUpload(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "batch.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestBatchPredictEndpoint(t *testing.T) {
	r := newTestRouter(0.42)

	zeros := make([]string, len(models.FeatureNames))
	for i := range zeros {
		zeros[i] = "0"
	}
	content := strings.Join(models.FeatureNames, ",") + "\n" +
		strings.Join(zeros, ",") + "\n" +
		strings.Join(zeros, ",") + "\n"

	body, contentType := csvUpload(t, content)
	req := httptest.NewRequest(http.MethodPost, "/predict/batch", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []models.BatchRowResult `json:"results"`
		Count   int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[0].Row)
	assert.Equal(t, 42, resp.Results[0].RiskIndex)
	assert.Equal(t, models.TierMedium, resp.Results[0].RiskTier)
}

func TestBatchPredictEndpointRejectsMalformedUploads(t *testing.T) {
	r := newTestRouter(0.42)

	t.Run("no file field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/predict/batch", strings.NewReader("plain"))
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp security.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, security.CodeMalformedUpload, resp.Code)
	})

	t.Run("bad header", func(t *testing.T) {
		body, contentType := csvUpload(t, "a,b,c\n1,2,3\n")
		req := httptest.NewRequest(http.MethodPost, "/predict/batch", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp security.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, security.CodeMalformedUpload, resp.Code)
	})
}

func TestSchemaEndpoint(t *testing.T) {
	r := newTestRouter(0.1)

	req := httptest.NewRequest(http.MethodGet, "/predict/schema", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Columns        []string `json:"columns"`
		ModelVersion   string   `json:"model_version"`
		MappingVersion int      `json:"mapping_version"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, models.FeatureNames, resp.Columns)
	assert.Equal(t, "test-model", resp.ModelVersion)
	assert.Equal(t, 1, resp.MappingVersion)
}
