package validation

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinWorkers = 1
	MaxWorkers = 20
)

const DateLayout = "2006-01-02"

var (
	PaymentFilters    = []string{"all", "paid", "unpaid", "overdue"}
	PaymentMethods    = []string{"cash", "bank_transfer", "check", "card", "other"}
	DocumentTypes     = []string{"contract", "receipt", "insurance", "other"}
	ApartmentStatuses = []string{"vacant", "rented", "maintenance"}
	PropertyTypes     = []string{"apartment", "house", "detached", "office", "land"}
)

func ValidateWorkerCount(workers int) error {
	if workers < MinWorkers || workers > MaxWorkers {
		return fmt.Errorf("worker count must be between %d and %d, got %d", MinWorkers, MaxWorkers, workers)
	}
	return nil
}

// ValidateID checks a backend primary key. kind names the resource in the message.
func ValidateID(kind string, id int) error {
	if id <= 0 {
		return fmt.Errorf("%s ID must be a positive integer, got %d", kind, id)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	return nil
}

func ValidateYear(year int) error {
	if year < 1900 || year > 9999 {
		return fmt.Errorf("year must be between 1900 and 9999, got %d", year)
	}
	return nil
}

func ValidateDueDay(day int) error {
	if day < 1 || day > 31 {
		return fmt.Errorf("payment due day must be between 1 and 31, got %d", day)
	}
	return nil
}

// ValidateDate accepts YYYY-MM-DD.
func ValidateDate(fieldName, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("%s must be a date in YYYY-MM-DD form, got %q", fieldName, value)
	}
	return nil
}

// ValidateYearMonth accepts YYYY-MM.
func ValidateYearMonth(value string) error {
	if _, err := time.Parse("2006-01", value); err != nil {
		return fmt.Errorf("invalid month %q: expected YYYY-MM", value)
	}
	return nil
}

func ValidatePaymentFilter(filter string) error {
	return oneOf("payment filter", filter, PaymentFilters)
}

func ValidatePaymentMethod(method string) error {
	return oneOf("payment method", method, PaymentMethods)
}

func ValidateDocumentType(docType string) error {
	return oneOf("document type", docType, DocumentTypes)
}

func ValidateApartmentStatus(status string) error {
	return oneOf("apartment status", status, ApartmentStatuses)
}

func ValidatePropertyType(propertyType string) error {
	return oneOf("property type", propertyType, PropertyTypes)
}

func oneOf(what, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %s (must be one of: %s)", what, value, strings.Join(allowed, ", "))
}
