package client

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// User is the account behind the current session.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Apartment is a rentable property.
type Apartment struct {
	ID           int     `json:"id,omitempty"`
	Owner        int     `json:"owner,omitempty"`
	Title        string  `json:"title"`
	Address      string  `json:"address"`
	SquareMeters int     `json:"square_meters"`
	PropertyType string  `json:"property_type,omitempty"`
	IsRented     bool    `json:"is_rented"`
	Status       string  `json:"status,omitempty"`
	Floor        *int    `json:"floor,omitempty"`
	YearBuilt    *int    `json:"year_built,omitempty"`
	Notes        string  `json:"notes"`
	Area         string  `json:"area"`
	City         string  `json:"city"`
	Region       string  `json:"region"`
	Lat          *string `json:"lat,omitempty"`
	Lng          *string `json:"lng,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

// Tenant is a contract holder for one apartment.
type Tenant struct {
	ID               int     `json:"id,omitempty"`
	Apartment        int     `json:"apartment"`
	ApartmentTitle   string  `json:"apartment_title,omitempty"`
	ApartmentAddress string  `json:"apartment_address,omitempty"`
	FullName         string  `json:"full_name"`
	Phone            string  `json:"phone"`
	Email            string  `json:"email"`
	ContractStart    string  `json:"contract_start"`
	ContractEnd      *string `json:"contract_end"`
	MonthlyRent      string  `json:"monthly_rent"`
	PaymentDueDay    int     `json:"payment_due_day,omitempty"`
	Deposit          string  `json:"deposit,omitempty"`
	Notes            string  `json:"notes"`
	CreatedAt        string  `json:"created_at,omitempty"`
}

// Payment is one monthly rent installment.
type Payment struct {
	ID                   int     `json:"id,omitempty"`
	Tenant               int     `json:"tenant"`
	TenantName           string  `json:"tenant_name,omitempty"`
	ApartmentTitle       string  `json:"apartment_title,omitempty"`
	ApartmentAddress     string  `json:"apartment_address,omitempty"`
	Month                int     `json:"month"`
	Year                 int     `json:"year"`
	Amount               string  `json:"amount"`
	DueDate              string  `json:"due_date"`
	Paid                 bool    `json:"paid"`
	PaidDate             *string `json:"paid_date,omitempty"`
	PaymentMethod        *string `json:"payment_method,omitempty"`
	PaymentMethodDisplay *string `json:"payment_method_display,omitempty"`
	ReceiptNumber        string  `json:"receipt_number"`
	Notes                string  `json:"notes"`
	IsOverdue            bool    `json:"is_overdue"`
	CreatedAt            string  `json:"created_at,omitempty"`
}

// Document is an uploaded file attached to a tenant or an apartment.
type Document struct {
	ID             int     `json:"id"`
	Tenant         *int    `json:"tenant"`
	Apartment      *int    `json:"apartment"`
	TenantName     *string `json:"tenant_name"`
	ApartmentTitle *string `json:"apartment_title"`
	DocumentType   string  `json:"document_type"`
	Title          string  `json:"title"`
	File           string  `json:"file"`
	Description    string  `json:"description"`
	UploadedAt     string  `json:"uploaded_at"`
}

// Notification is a message the backend generated for the current user.
type Notification struct {
	ID               int    `json:"id"`
	User             int    `json:"user"`
	NotificationType string `json:"notification_type"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	IsRead           bool   `json:"is_read"`
	CreatedAt        string `json:"created_at"`
}

// TenantHistory is the backend's tenant-history summary.
type TenantHistory struct {
	TotalTenants          int                  `json:"total_tenants"`
	CurrentTenants        int                  `json:"current_tenants"`
	PastTenants           int                  `json:"past_tenants"`
	TotalRentCollected    float64              `json:"total_rent_collected"`
	TotalPaymentsReceived float64              `json:"total_payments_received"`
	PendingPayments       float64              `json:"pending_payments"`
	Tenants               []TenantHistoryEntry `json:"tenants"`
}

// TenantHistoryEntry is one tenant row of TenantHistory.
type TenantHistoryEntry struct {
	ID            int     `json:"id"`
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Apartment     string  `json:"apartment"`
	ApartmentID   int     `json:"apartment_id"`
	ContractStart string  `json:"contract_start"`
	ContractEnd   *string `json:"contract_end"`
	MonthlyRent   float64 `json:"monthly_rent"`
	Deposit       float64 `json:"deposit"`
	Status        string  `json:"status"`
	TotalPaid     float64 `json:"total_paid"`
	TotalUnpaid   float64 `json:"total_unpaid"`
	TotalPayments int     `json:"total_payments"`
	PaidCount     int     `json:"paid_count"`
	UnpaidCount   int     `json:"unpaid_count"`
}

// ParseAmount reads a decimal string such as "450.00". Anything unparsable counts as zero.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Debug().Str("amount", s).Msg("Ignoring unparsable amount")
		return 0
	}
	return v
}
