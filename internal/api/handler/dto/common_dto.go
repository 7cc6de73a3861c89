package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// PhoneNumber accepts either a JSON string or a JSON number.
type PhoneNumber string

func (p *PhoneNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PhoneNumber(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("phone_number must be a string or a number")
	}
	*p = PhoneNumber(n.String())
	return nil
}

// money rounds an amount to cents for presentation.
func money(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}
