package v1

import (
	"net/http"

	"github.com/tinoosan/ermay/internal/dictionary"
)

// GET /v1/dictionary/currencies
func (s *Server) getCurrencies(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, listResponse[dictionary.CurrencyDef]{Items: dictionary.Currencies()})
}

// GET /v1/dictionary/payment-methods
func (s *Server) getPaymentMethods(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, listResponse[dictionary.PaymentMethodDef]{Items: dictionary.PaymentMethods()})
}
