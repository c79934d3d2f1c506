package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	custerrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/service"
	"github.com/umalmyha/customersync/internal/validation"
	"github.com/umalmyha/customersync/pkg/db/transactor"
)

type address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}

type shoppingList struct {
	ID       string   `json:"id"`
	Products []string `json:"products" validate:"dive,required"`
}

type externalCustomer struct {
	ExternalID     string         `json:"externalId" validate:"required"`
	IsCompany      bool           `json:"isCompany"`
	CompanyNumber  string         `json:"companyNumber" validate:"required_if=IsCompany true"`
	Name           string         `json:"name" validate:"required"`
	PostalAddress  *address       `json:"postalAddress" validate:"omitempty"`
	PreferredStore string         `json:"preferredStore"`
	ShoppingLists  []shoppingList `json:"shoppingLists" validate:"dive"`
}

type syncResult struct {
	Created bool `json:"created"`
}

// CustomerSyncHTTPHandler is http handler for customer synchronization endpoint
type CustomerSyncHTTPHandler struct {
	syncSvc service.CustomerSyncService
	trx     transactor.Transactor
}

// NewCustomerSyncHTTPHandler builds new CustomerSyncHTTPHandler.
// If transactor is provided, every synchronization is done within single transaction.
func NewCustomerSyncHTTPHandler(syncSvc service.CustomerSyncService, trx transactor.Transactor) *CustomerSyncHTTPHandler {
	return &CustomerSyncHTTPHandler{syncSvc: syncSvc, trx: trx}
}

// Sync synchronizes external customer
// @Summary     Synchronize external customer
// @Description Creates or updates customers according to external customer record
// @Tags        customers
// @Security	ApiKeyAuth
// @Accept      json
// @Produce     json
// @Param       externalCustomer body	  externalCustomer true "External customer record"
// @Success     200              {object} syncResult
// @Success     201              {object} syncResult
// @Failure     400              {object} echo.HTTPError
// @Failure     409              {object} echo.HTTPError
// @Failure     500              {object} echo.HTTPError
// @Router      /api/v1/customers/sync [post]
// @Router      /api/v2/customers/sync [post]
func (h *CustomerSyncHTTPHandler) Sync(c echo.Context) error {
	var ec externalCustomer
	if err := c.Bind(&ec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(&ec); err != nil {
		return err
	}

	created, err := h.sync(c.Request().Context(), ec.toModel())
	if err != nil {
		return syncHTTPError(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, &syncResult{Created: created})
}

func (h *CustomerSyncHTTPHandler) sync(ctx context.Context, ext *model.ExternalCustomer) (bool, error) {
	if h.trx == nil {
		return h.syncSvc.SyncCustomer(ctx, ext)
	}

	var created bool
	err := h.trx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = h.syncSvc.SyncCustomer(txCtx, ext)
		return err
	})
	return created, err
}

// ErrorHandler logs error and writes json response for payload errors
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		c.Logger().Error(err.Error())

		var pldErr *validation.PayloadError
		if errors.As(err, &pldErr) {
			err = echo.NewHTTPError(http.StatusBadRequest, pldErr)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

func syncHTTPError(err error) error {
	var conflictErr *custerrors.ConflictErr
	if errors.As(err, &conflictErr) {
		return echo.NewHTTPError(http.StatusConflict, conflictErr).SetInternal(err)
	}

	var validationErr *custerrors.ValidationErr
	if errors.As(err, &validationErr) {
		return echo.NewHTTPError(http.StatusBadRequest, validationErr).SetInternal(err)
	}
	return err
}

func (ec *externalCustomer) toModel() *model.ExternalCustomer {
	ext := &model.ExternalCustomer{
		ExternalID:     ec.ExternalID,
		IsCompany:      ec.IsCompany,
		CompanyNumber:  ec.CompanyNumber,
		Name:           ec.Name,
		PreferredStore: ec.PreferredStore,
		ShoppingLists:  make([]*model.ShoppingList, 0, len(ec.ShoppingLists)),
	}

	if ec.PostalAddress != nil {
		ext.PostalAddress = &model.Address{
			Street:     ec.PostalAddress.Street,
			City:       ec.PostalAddress.City,
			PostalCode: ec.PostalAddress.PostalCode,
		}
	}

	for _, sl := range ec.ShoppingLists {
		ext.ShoppingLists = append(ext.ShoppingLists, &model.ShoppingList{ID: sl.ID, Products: sl.Products})
	}
	return ext
}
