package model

import "time"

type Role string

const (
	RoleAdmin             Role = "admin"
	RoleHomeowner         Role = "homeowner"
	RoleSecurityPersonnel Role = "securityPersonnel"
	RoleUser              Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHomeowner, RoleSecurityPersonnel, RoleUser:
		return true
	}
	return false
}

// User is the profile document keyed by the identity account uid.
type User struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Address     string
	PhoneNumber string
	RFID        *string
	Role        Role
	PhotoURL    *string
	FCMToken    *string
	CreatedAt   time.Time
}

func (u User) DeviceHandle() string {
	if u.FCMToken == nil {
		return ""
	}
	return *u.FCMToken
}

type VisitRequest struct {
	ID             string
	HomeownerID    string
	VisitorID      string
	Classification string
	VisitDate      string
	VisitTime      string
	CreatedAt      time.Time
}

type NotificationStatus string

const (
	StatusPending  NotificationStatus = "pending"
	StatusApproved NotificationStatus = "approved"
)

type HomeownerNotification struct {
	VisitRequestID string
	IsRead         int
	Status         NotificationStatus
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// VisitorNotification is the token record handed to the visitor.
type VisitorNotification struct {
	ID             string
	VisitRequestID string
	UserID         string
	HomeownerID    string
	QRCode         string
	ValidFrom      time.Time
	ValidUntil     time.Time
	IsRead         int
	CreatedAt      time.Time
}

type ScanSource string

const (
	SourceQRCode ScanSource = "qrcode"
	SourceRFID   ScanSource = "rfid"
)

func (s ScanSource) Valid() bool {
	return s == SourceQRCode || s == SourceRFID
}

// ScanRecord is one row of either scan log. Timestamp holds the textual
// rfid encoding, ScannedAt the native qrcode one.
type ScanRecord struct {
	ID        string
	Source    ScanSource
	UserID    string
	Timestamp string
	ScannedAt time.Time
	Extra     map[string]any
}

type CleanupEntry struct {
	UID       string
	Reason    string
	Attempts  int
	LastError *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Approval is the outcome of the pending → approved transition.
type Approval struct {
	Visit           VisitRequest
	Token           VisitorNotification
	AlreadyApproved bool
}
