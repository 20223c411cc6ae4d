package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	CustomerID      string          `json:"customer_id"`
	Product1        int             `json:"product1"`
	Product2        int             `json:"product2"`
	Product3        int             `json:"product3"`
	AmountBeforeTax decimal.Decimal `json:"amount_before_tax"` // stored, never recomputed
	AmountAfterTax  decimal.Decimal `json:"amount_after_tax"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // bcrypt
	CreatedAt    time.Time `json:"created_at"`
}
