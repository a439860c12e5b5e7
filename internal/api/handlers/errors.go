package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/optimizer"
	"github.com/gin-gonic/gin"
)

// respondError maps domain, ingest and optimizer errors to a status code and JSON body.
// fallback is the message used for unexpected failures.
func respondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	var (
		missingKey  *optimizer.MissingKeyError
		invalidCost *optimizer.InvalidCostError
		solverErr   *optimizer.SolverError
		missingCols *ingest.MissingColumnsError
		rowErr      *ingest.RowError
	)

	switch {
	case errors.Is(err, domain.ErrDuplicateSKU):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrDuplicateSKU.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &missingKey):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "sku": missingKey.SKU, "input": missingKey.Input})
	case errors.As(err, &invalidCost):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "sku": invalidCost.SKU})
	case errors.As(err, &solverErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "solver": solverErr.Solver, "status": solverErr.Status})
	case errors.As(err, &missingCols):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "columns": missingCols.Columns})
	case errors.As(err, &rowErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "row": rowErr.Row, "column": rowErr.Column})
	case errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrUnknownKind),
		errors.Is(err, ingest.ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}
