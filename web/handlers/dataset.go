package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"viz-agent/config"
	"viz-agent/dataset"
	vizerrors "viz-agent/errors"
	"viz-agent/web/middleware"
	"viz-agent/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DatasetHandler serves dataset ingestion: file upload and the bundled sample.
type DatasetHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewDatasetHandler(cfg *config.Config, logger *zap.Logger) *DatasetHandler {
	return &DatasetHandler{cfg: cfg, logger: logger}
}

// Upload ingests a CSV or Excel file and makes it the session's dataset.
func (h *DatasetHandler) Upload(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	file, err := c.FormFile("file")
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, "no file in upload")
		return
	}

	if file.Size > h.cfg.MaxUploadBytes {
		respondWithClientError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".csv", ".xlsx", ".xls":
	default:
		respondWithClientError(c, http.StatusBadRequest, "unsupported file type; upload a .csv, .xlsx, or .xls file")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "could not read the uploaded file", h.logger)
		return
	}
	defer src.Close()

	var ds *dataset.Dataset
	if ext == ".csv" {
		ds, err = dataset.LoadCSV(file.Filename, src)
	} else {
		ds, err = dataset.LoadExcel(file.Filename, src)
	}
	if err != nil {
		if vizerrors.IsInvalidInput(err) {
			respondWithClientError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(c, http.StatusInternalServerError, err, "could not load the uploaded file", h.logger,
			zap.String("filename", file.Filename))
		return
	}

	sess.SetDataset(ds)
	h.logger.Info("Dataset loaded",
		zap.String("session_id", sess.ID().String()),
		zap.String("dataset", ds.Name()),
		zap.Int("rows", ds.NumRows()),
		zap.Int("columns", len(ds.Columns())))

	c.JSON(http.StatusOK, datasetResponse(ds))
}

// LoadSample loads the bundled sample sales dataset into the session.
func (h *DatasetHandler) LoadSample(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	ds, err := dataset.LoadSample()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "could not load the sample dataset", h.logger)
		return
	}

	sess.SetDataset(ds)
	h.logger.Info("Sample dataset loaded", zap.String("session_id", sess.ID().String()))

	c.JSON(http.StatusOK, datasetResponse(ds))
}

// Describe returns the schema of the session's current dataset.
func (h *DatasetHandler) Describe(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	ds := sess.Dataset()
	if ds == nil {
		respondWithClientError(c, http.StatusNotFound, "no dataset loaded")
		return
	}

	c.JSON(http.StatusOK, datasetResponse(ds))
}

func datasetResponse(ds *dataset.Dataset) types.DatasetResponse {
	schema := dataset.Summarize(ds)
	columns := make([]types.ColumnInfo, len(schema.Columns))
	for i, col := range schema.Columns {
		columns[i] = types.ColumnInfo{
			Name:    col.Name,
			Type:    col.Type,
			Samples: col.Samples,
		}
	}
	return types.DatasetResponse{
		Name:    schema.DatasetName,
		NumRows: schema.NumRows,
		Columns: columns,
	}
}
