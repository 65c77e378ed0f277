package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Apartments

// ListApartments returns every apartment visible to the current user.
func (c *Client) ListApartments(ctx context.Context) ([]Apartment, error) {
	return List[Apartment](ctx, c, "apartments/", nil)
}

// GetApartment fetches a single apartment.
func (c *Client) GetApartment(ctx context.Context, id int) (*Apartment, error) {
	var a Apartment
	if err := c.GetJSON(ctx, fmt.Sprintf("apartments/%d/", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateApartment adds an apartment and returns it as stored by the backend.
func (c *Client) CreateApartment(ctx context.Context, in Apartment) (*Apartment, error) {
	var a Apartment
	if err := c.PostJSON(ctx, "apartments/", in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteApartment removes an apartment.
func (c *Client) DeleteApartment(ctx context.Context, id int) error {
	return c.Delete(ctx, fmt.Sprintf("apartments/%d/", id))
}

// UpdateApartment replaces an apartment. It is sent as a form, like creation in the web client.
func (c *Client) UpdateApartment(ctx context.Context, id int, in Apartment) (*Apartment, error) {
	var a Apartment
	if err := c.PutMultipart(ctx, fmt.Sprintf("apartments/%d/", id), apartmentForm(in), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func apartmentForm(a Apartment) map[string]string {
	fields := map[string]string{
		"title":         a.Title,
		"address":       a.Address,
		"square_meters": strconv.Itoa(a.SquareMeters),
		"property_type": a.PropertyType,
		"status":        a.Status,
		"is_rented":     strconv.FormatBool(a.IsRented),
		"notes":         a.Notes,
		"area":          a.Area,
		"city":          a.City,
		"region":        a.Region,
	}
	if a.Floor != nil {
		fields["floor"] = strconv.Itoa(*a.Floor)
	}
	if a.YearBuilt != nil {
		fields["year_built"] = strconv.Itoa(*a.YearBuilt)
	}
	return fields
}

// Tenants

// ListTenants returns every tenant visible to the current user.
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	return List[Tenant](ctx, c, "tenants/", nil)
}

// GetTenant fetches a single tenant.
func (c *Client) GetTenant(ctx context.Context, id int) (*Tenant, error) {
	var t Tenant
	if err := c.GetJSON(ctx, fmt.Sprintf("tenants/%d/", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTenant adds a tenant to an apartment.
func (c *Client) CreateTenant(ctx context.Context, in Tenant) (*Tenant, error) {
	var t Tenant
	if err := c.PostJSON(ctx, "tenants/", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTenant removes a tenant.
func (c *Client) DeleteTenant(ctx context.Context, id int) error {
	return c.Delete(ctx, fmt.Sprintf("tenants/%d/", id))
}

// UpdateTenant replaces a tenant.
func (c *Client) UpdateTenant(ctx context.Context, id int, in Tenant) (*Tenant, error) {
	var t Tenant
	if err := c.PutJSON(ctx, fmt.Sprintf("tenants/%d/", id), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// TenantHistory fetches the tenant-history summary.
func (c *Client) TenantHistory(ctx context.Context) (*TenantHistory, error) {
	var h TenantHistory
	if err := c.GetJSON(ctx, "tenant-history/summary/", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Payments

// ListPayments returns every payment visible to the current user.
func (c *Client) ListPayments(ctx context.Context) ([]Payment, error) {
	return List[Payment](ctx, c, "payments/", nil)
}

// CreatePayment records a rent installment.
func (c *Client) CreatePayment(ctx context.Context, in Payment) (*Payment, error) {
	var p Payment
	if err := c.PostJSON(ctx, "payments/", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PaymentUpdate lists the payment fields to change. Nil fields are left as they are.
type PaymentUpdate struct {
	Amount        *string `json:"amount,omitempty"`
	DueDate       *string `json:"due_date,omitempty"`
	Paid          *bool   `json:"paid,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	ReceiptNumber *string `json:"receipt_number,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdatePayment patches the fields set in changes.
func (c *Client) UpdatePayment(ctx context.Context, id int, changes PaymentUpdate) (*Payment, error) {
	var p Payment
	if err := c.PatchJSON(ctx, fmt.Sprintf("payments/%d/", id), changes, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPaidRequest carries the optional details recorded with a payment.
type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method,omitempty"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// MarkPaid marks a payment as paid today and stores the optional details.
func (c *Client) MarkPaid(ctx context.Context, id int, details MarkPaidRequest) (*Payment, error) {
	var p Payment
	if err := c.PostJSON(ctx, fmt.Sprintf("payments/%d/mark_paid/", id), details, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkUnpaid clears the paid flag and paid date of a payment.
func (c *Client) MarkUnpaid(ctx context.Context, id int) (*Payment, error) {
	var p Payment
	if err := c.PostJSON(ctx, fmt.Sprintf("payments/%d/mark_unpaid/", id), struct{}{}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Documents

// ListDocuments returns the metadata of every uploaded document.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	return List[Document](ctx, c, "documents/", nil)
}

// GetDocument fetches the metadata of a single document.
func (c *Client) GetDocument(ctx context.Context, id int) (*Document, error) {
	var d Document
	if err := c.GetJSON(ctx, fmt.Sprintf("documents/%d/", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UploadDocument describes a new document. Exactly one of Tenant and Apartment is usually set.
type UploadDocument struct {
	Title        string
	DocumentType string
	Description  string
	Tenant       int
	Apartment    int
	Path         string
}

// UploadDocument sends the file at in.Path as multipart/form-data.
func (c *Client) UploadDocument(ctx context.Context, in UploadDocument) (*Document, error) {
	fields := map[string]string{
		"title":         in.Title,
		"document_type": in.DocumentType,
		"description":   in.Description,
	}
	if in.Tenant > 0 {
		fields["tenant"] = fmt.Sprint(in.Tenant)
	}
	if in.Apartment > 0 {
		fields["apartment"] = fmt.Sprint(in.Apartment)
	}

	var d Document
	if err := c.PostMultipart(ctx, "documents/", fields, &FormFile{Field: "file", Path: in.Path}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Notifications

// ListNotifications returns the user's notifications, optionally only the unread ones.
func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	var query url.Values
	if unreadOnly {
		query = url.Values{"is_read": {"false"}}
	}
	items, err := List[Notification](ctx, c, "notifications/", query)
	if err != nil || !unreadOnly {
		return items, err
	}
	// The backend may ignore the filter.
	unread := items[:0]
	for _, n := range items {
		if !n.IsRead {
			unread = append(unread, n)
		}
	}
	return unread, nil
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) (*Notification, error) {
	var n Notification
	if err := c.PostJSON(ctx, fmt.Sprintf("notifications/%d/mark_as_read/", id), struct{}{}, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllNotificationsRead marks every unread notification as read, one at a
// time, and returns the IDs it marked. It stops at the first failure.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) ([]int, error) {
	unread, err := c.ListNotifications(ctx, true)
	if err != nil {
		return nil, err
	}
	marked := make([]int, 0, len(unread))
	for _, n := range unread {
		if _, err := c.MarkNotificationRead(ctx, n.ID); err != nil {
			return marked, fmt.Errorf("notification %d: %w", n.ID, err)
		}
		marked = append(marked, n.ID)
	}
	return marked, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.GetJSON(ctx, "notifications/unread_count/", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}
