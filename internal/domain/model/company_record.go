package model

import "time"

// CompanyRecord holds the attributes of one company that feed the scorers.
// A nil pointer means the value was absent in the source, which several
// scorers treat differently from a zero or blank value.
type CompanyRecord struct {
	EstDate            *time.Time
	ExpiryDate         *time.Time
	EconomicDepartment *string
	Status             *string
	LegalType          *string
	WPS                *string
	PhoneNo            *string
	MobileNo           *string
	WebsiteURL         *string
	Email              *string
	VisaApproved       *int64
	VisaCancelled      *int64
	VisaRequested      *int64
	VisaUsed           *int64
	// IsBranch is boolean-like text in the source data but may arrive as
	// any type from callers; non-string values score as "not a branch".
	IsBranch     any
	BusinessName string
}

// CompanyOverrides carries user-edited attributes. Only non-nil fields
// replace the record's values.
type CompanyOverrides struct {
	EstDate            *Date      `json:"est_date,omitempty"`
	ExpiryDate         *Date      `json:"expiry_date,omitempty"`
	EconomicDepartment *string    `json:"economic_department,omitempty"`
	Status             *string    `json:"status,omitempty"`
	LegalType          *string    `json:"legal_type,omitempty"`
	WPS                *string    `json:"wps,omitempty"`
	PhoneNo            *string    `json:"phone_no,omitempty"`
	MobileNo           *string    `json:"mobile_no,omitempty"`
	WebsiteURL         *string    `json:"website_url,omitempty"`
	Email              *string    `json:"email,omitempty"`
	IsBranch           *string    `json:"is_branch,omitempty"`
	VisaApproved       *int64     `json:"visa_approved,omitempty"`
	VisaCancelled      *int64     `json:"visa_cancelled,omitempty"`
	VisaRequested      *int64     `json:"visa_requested,omitempty"`
	VisaUsed           *int64     `json:"visa_used,omitempty"`
}

// WithOverrides returns a copy of r with every set override applied.
// The receiver is left untouched.
func (r CompanyRecord) WithOverrides(o CompanyOverrides) CompanyRecord {
	out := r
	if o.EstDate != nil {
		out.EstDate = o.EstDate.timePtr()
	}
	if o.ExpiryDate != nil {
		out.ExpiryDate = o.ExpiryDate.timePtr()
	}
	if o.EconomicDepartment != nil {
		out.EconomicDepartment = o.EconomicDepartment
	}
	if o.Status != nil {
		out.Status = o.Status
	}
	if o.LegalType != nil {
		out.LegalType = o.LegalType
	}
	if o.WPS != nil {
		out.WPS = o.WPS
	}
	if o.PhoneNo != nil {
		out.PhoneNo = o.PhoneNo
	}
	if o.MobileNo != nil {
		out.MobileNo = o.MobileNo
	}
	if o.WebsiteURL != nil {
		out.WebsiteURL = o.WebsiteURL
	}
	if o.Email != nil {
		out.Email = o.Email
	}
	if o.IsBranch != nil {
		out.IsBranch = *o.IsBranch
	}
	if o.VisaApproved != nil {
		out.VisaApproved = o.VisaApproved
	}
	if o.VisaCancelled != nil {
		out.VisaCancelled = o.VisaCancelled
	}
	if o.VisaRequested != nil {
		out.VisaRequested = o.VisaRequested
	}
	if o.VisaUsed != nil {
		out.VisaUsed = o.VisaUsed
	}
	return out
}

// Fields renders the record as column name to display value, with absent
// values as empty strings. Used by exporters.
func (r CompanyRecord) Fields() map[string]string {
	return map[string]string{
		"business_name_english": r.BusinessName,
		"economic_department":   strOrEmpty(r.EconomicDepartment),
		"status":                strOrEmpty(r.Status),
		"legal_type":            strOrEmpty(r.LegalType),
		"wps":                   strOrEmpty(r.WPS),
		"est_date":              dateOrEmpty(r.EstDate),
		"expiry_date":           dateOrEmpty(r.ExpiryDate),
		"visa_approved":         intOrEmpty(r.VisaApproved),
		"visa_cancelled":        intOrEmpty(r.VisaCancelled),
		"visa_requested":        intOrEmpty(r.VisaRequested),
		"visa_used":             intOrEmpty(r.VisaUsed),
		"phone_no":              strOrEmpty(r.PhoneNo),
		"mobile_no":             strOrEmpty(r.MobileNo),
		"website_url":           strOrEmpty(r.WebsiteURL),
		"email":                 strOrEmpty(r.Email),
		"is_branch":             anyOrEmpty(r.IsBranch),
	}
}

// Columns lists the source column names in file order.
func Columns() []string {
	return []string{
		"business_name_english", "economic_department", "status", "legal_type", "wps",
		"est_date", "expiry_date", "visa_approved", "visa_cancelled", "visa_requested",
		"visa_used", "phone_no", "mobile_no", "website_url", "email", "is_branch",
	}
}

// DateLayout is the calendar-date format used for record dates.
const DateLayout = "2006-01-02"
