package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hyeonwoo/ledgerflow/internal/service"
	"gorm.io/gorm"
)

// maxRulesSize bounds the rules JSON upload.
const maxRulesSize = 5 << 20 // 5 MB

// AccountingHandler handles batch classification endpoints.
type AccountingHandler struct {
	intake *service.IntakeService
}

// NewAccountingHandler creates a new accounting handler.
func NewAccountingHandler(intake *service.IntakeService) *AccountingHandler {
	return &AccountingHandler{intake: intake}
}

// Process handles POST /api/v1/accounting/process. It expects a
// multipart form with a "transactions" CSV file and a "rules" JSON
// file, and responds 202 with the pending job.
func (h *AccountingHandler) Process(c *gin.Context) {
	txnHeader, err := c.FormFile("transactions")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transactions file is required"})
		return
	}
	rulesHeader, err := c.FormFile("rules")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rules file is required"})
		return
	}

	rulesFile, err := rulesHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read rules file: " + err.Error()})
		return
	}
	defer rulesFile.Close()
	rulesJSON, err := io.ReadAll(io.LimitReader(rulesFile, maxRulesSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read rules file: " + err.Error()})
		return
	}

	txnFile, err := txnHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read transactions file: " + err.Error()})
		return
	}
	defer txnFile.Close()

	job, err := h.intake.Submit(c.Request.Context(), txnHeader.Filename, txnFile, rulesJSON)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// GetJob handles GET /api/v1/accounting/jobs/:id.
func (h *AccountingHandler) GetJob(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.intake.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetRecords handles GET /api/v1/accounting/records?company_id=.
func (h *AccountingHandler) GetRecords(c *gin.Context) {
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}

	records, err := h.intake.CompanyRecords(c.Request.Context(), companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load records: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}
