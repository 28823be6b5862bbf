package handlers

import (
	"saldo/internal/domain/ledger"
	"saldo/internal/infrastructure/http/v1/dto"
)

// AccountHTTPHandler is a type alias to keep signatures short.
type AccountHTTPHandler = CatalogHandler[
	*ledger.Account,
	dto.CreateAccountRequest,
	dto.UpdateAccountRequest,
]

// NewAccountHandler is a factory hiding the generic configuration.
func NewAccountHandler(
	base *BaseHandler,
	service *ledger.AccountService,
) *AccountHTTPHandler {

	config := CatalogHandlerConfig[
		*ledger.Account,
		dto.CreateAccountRequest,
		dto.UpdateAccountRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "account",

		MapCreateDTO: func(req dto.CreateAccountRequest) *ledger.Account {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateAccountRequest, existing *ledger.Account) *ledger.Account {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *ledger.Account) any {
			return dto.FromAccount(entity)
		},
	}

	return NewCatalogHandler(base, config)
}
