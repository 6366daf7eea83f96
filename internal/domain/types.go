// Package domain holds the fintrack entity types and the ownership rule
// shared by the store, handlers, and importers.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TransactionType values used by bank exports.
const (
	TypeCredit = "credit"
	TypeDebit  = "debit"
)

// CategoryTransfer marks internal account movements. Matching is
// case-insensitive everywhere this constant is compared.
const CategoryTransfer = "transfer"

// InvitationStatus represents the lifecycle of a sharing invitation.
// Use ValidateInvitationStatus before persisting a transition.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

var validInvitationStatuses = map[InvitationStatus]struct{}{
	InvitationPending: {}, InvitationAccepted: {}, InvitationRejected: {},
}

// ValidateInvitationStatus checks if the status is a known value.
func ValidateInvitationStatus(s InvitationStatus) bool {
	_, ok := validInvitationStatuses[s]
	return ok
}

// ValidateResponseStatus checks that a status is a legal invitation
// response. Only accepted and rejected can be requested by a recipient.
func ValidateResponseStatus(s InvitationStatus) bool {
	return s == InvitationAccepted || s == InvitationRejected
}

// User is the root owner of accounts, transactions, and invitations.
// PasswordHash is only set for locally provisioned users; rows created from
// a verified auth token carry an empty hash.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRef is the public projection of a user embedded in API responses.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Transaction is a single dated money movement owned by one user.
type Transaction struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Date            string    `json:"date"` // ISO format YYYY-MM-DD
	Vendor          string    `json:"vendor"`
	Amount          float64   `json:"amount"`
	Category        string    `json:"category"`
	TransactionType string    `json:"transactionType"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Validate checks the fields every persisted transaction must carry.
// The date string is not parsed here: imports keep whatever the export
// contained, and the composite duplicate key works on the raw value.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if t.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if t.Date == "" || t.Vendor == "" || t.Category == "" || t.TransactionType == "" {
		return fmt.Errorf("missing required fields: date, vendor, category, and transactionType are required")
	}
	return nil
}

// Key returns the composite duplicate key for this transaction.
func (t *Transaction) Key() string {
	return CompositeKey(t.Date, t.Vendor, t.Amount, t.TransactionType)
}

// CompositeKey builds the natural duplicate key for a transaction:
// date|vendor|amount|transactionType. The amount is rendered in its
// shortest exact decimal form so 12.5 and 12.50 collide.
func CompositeKey(date, vendor string, amount float64, transactionType string) string {
	return date + "|" + vendor + "|" + strconv.FormatFloat(amount, 'f', -1, 64) + "|" + transactionType
}

// Candidate is a parsed transaction that has not been persisted yet.
// Importers produce candidates; the duplicate detector decides which
// become Transactions.
type Candidate struct {
	Date            string  `json:"date"`
	Vendor          string  `json:"vendor"`
	Amount          float64 `json:"amount"`
	Category        string  `json:"category"`
	TransactionType string  `json:"transactionType"`
}

// HasRequiredFields reports whether the candidate carries every field an
// import requires. Amount is not required; it defaults to 0.
func (c Candidate) HasRequiredFields() bool {
	return c.Date != "" && c.Vendor != "" && c.Category != "" && c.TransactionType != ""
}

// Key returns the composite duplicate key for this candidate.
func (c Candidate) Key() string {
	return CompositeKey(c.Date, c.Vendor, c.Amount, c.TransactionType)
}

// IsTransfer reports whether the candidate is an internal account movement.
func (c Candidate) IsTransfer() bool {
	return strings.EqualFold(c.Category, CategoryTransfer)
}

// TransactionRecord is a transaction as returned by list queries: the row
// plus its owner, and share annotations when the row was shared with the
// caller rather than owned by them.
type TransactionRecord struct {
	Transaction
	Owner    UserRef  `json:"user"`
	IsShared bool     `json:"isShared,omitempty"`
	SharedBy *UserRef `json:"sharedBy,omitempty"`
}

// TransactionFilter narrows transaction list queries. Zero values mean
// "no constraint"; Amount uses a pointer because 0 is a legal filter value.
type TransactionFilter struct {
	Category        string
	Vendor          string
	TransactionType string
	Amount          *float64
	StartDate       string
	EndDate         string
	IncludeShared   bool
}

// BankAccount groups balance snapshots for one real-world account.
// LatestBalance is denormalized from the most recent snapshot.
type BankAccount struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	AccountType   string    `json:"accountType"`
	BankName      string    `json:"bankName"`
	AccountNumber string    `json:"accountNumber"`
	RoutingNumber string    `json:"routingNumber"`
	Notes         string    `json:"notes"`
	LatestBalance float64   `json:"latestBalance"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks the fields every persisted bank account must carry.
func (a *BankAccount) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("account ID is required")
	}
	if a.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if a.Name == "" {
		return fmt.Errorf("account name is required")
	}
	return nil
}

// AccountBalance is one append-only balance snapshot. The current balance
// of an account is the snapshot with the latest timestamp.
type AccountBalance struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	UserID    string    `json:"userId"`
	Balance   float64   `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// Invitation lets one user offer their transaction history to another.
// RecipientID is empty until a user with the invited email exists.
type Invitation struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	Status      InvitationStatus `json:"status"`
	SenderID    string           `json:"senderId"`
	RecipientID string           `json:"recipientId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// InvitationRecord is an invitation plus the user projections list
// queries attach to it.
type InvitationRecord struct {
	Invitation
	Sender    *UserRef `json:"sender,omitempty"`
	Recipient *UserRef `json:"recipient,omitempty"`
}

// SharedTransaction links one transaction to one user it is visible to.
// Conceptually unique on (TransactionID, SharedWithID); writes use
// skip-on-conflict semantics.
type SharedTransaction struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	SharedByID    string    `json:"sharedById"`
	SharedWithID  string    `json:"sharedWithId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CanMutate is the ownership guard applied before every mutation of an
// owned entity: only the owner may change or delete it.
func CanMutate(ownerID, actingUserID string) bool {
	return ownerID != "" && ownerID == actingUserID
}

// FormatDate renders a time in the ISO form stored on transactions.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
