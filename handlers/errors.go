package handlers

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/inspace/protocoin/models"
)

// writeError maps the ledger failure taxonomy onto HTTP statuses. Every
// domain failure carries its identifying reason string in the body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnknownSymbol),
		errors.Is(err, models.ErrUnknownAccount),
		errors.Is(err, models.ErrNoBalanceRecord),
		errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAsset),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrPrecisionMismatch),
		errors.Is(err, models.ErrInvalidIndex),
		errors.Is(err, models.ErrSelfTransfer),
		errors.Is(err, models.ErrMemoTooLong):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrOverdrawn),
		errors.Is(err, models.ErrSupplyExceeded),
		errors.Is(err, models.ErrNonZeroBalance):
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}
