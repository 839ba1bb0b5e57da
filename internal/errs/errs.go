// Package errs implements the engine's single error-code taxonomy, in the
// shape of the teacher's internal/common/errors package: a Code enum, a
// TradingError carrying structured details and a cause chain, and Is/As
// helpers that walk the chain by code.
package errs

import (
	"fmt"
	"runtime"
	"time"
)

// Code enumerates the exhaustive ErrorKind taxonomy.
type Code string

const (
	OrderNotFound              Code = "ORDER_NOT_FOUND"
	InvalidPrice               Code = "INVALID_PRICE"
	InvalidQuantity            Code = "INVALID_QUANTITY"
	OrderAlreadyExists         Code = "ORDER_ALREADY_EXISTS"
	OrderSizeExceedsLimit      Code = "ORDER_SIZE_EXCEEDS_LIMIT"
	OrderSizeBelowMinimum      Code = "ORDER_SIZE_BELOW_MINIMUM"
	NotionalValueExceedsLimit  Code = "NOTIONAL_VALUE_EXCEEDS_LIMIT"
	PriceDeviationExceedsLimit Code = "PRICE_DEVIATION_EXCEEDS_LIMIT"
	PositionLimitExceeded      Code = "POSITION_LIMIT_EXCEEDED"
	DailyPnLLimitExceeded      Code = "DAILY_PNL_LIMIT_EXCEEDED"
	UnsupportedSymbol          Code = "UNSUPPORTED_SYMBOL"
	InsufficientLiquidity      Code = "INSUFFICIENT_LIQUIDITY"
)

// TradingError is the engine's structured error type. Details carries
// check-specific payload (e.g. price/reference/deviation/limit for a
// PriceDeviationExceedsLimit violation) so callers can build the
// OrderRejected event without re-deriving the numbers.
type TradingError struct {
	Code      Code
	Message   string
	Details   map[string]interface{}
	Cause     error
	Timestamp time.Time
	File      string
	Line      int
}

func (e *TradingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TradingError) Unwrap() error { return e.Cause }

// WithDetail attaches one key/value to the error's Details map.
func (e *TradingError) WithDetail(key string, value interface{}) *TradingError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New constructs a TradingError with caller location captured.
func New(code Code, message string) *TradingError {
	_, file, line, _ := runtime.Caller(1)
	return &TradingError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		File:      file,
		Line:      line,
	}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...interface{}) *TradingError {
	_, file, line, _ := runtime.Caller(1)
	return &TradingError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
		File:      file,
		Line:      line,
	}
}

// Wrap attaches a cause to a new TradingError of the given code.
func Wrap(code Code, cause error, message string) *TradingError {
	_, file, line, _ := runtime.Caller(1)
	return &TradingError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
		File:      file,
		Line:      line,
	}
}

// Is reports whether err is a *TradingError carrying the given code,
// walking the Unwrap chain.
func Is(err error, code Code) bool {
	for err != nil {
		if te, ok := err.(*TradingError); ok {
			if te.Code == code {
				return true
			}
			err = te.Cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// As extracts the first *TradingError in the chain, if any.
func As(err error) (*TradingError, bool) {
	for err != nil {
		if te, ok := err.(*TradingError); ok {
			return te, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
